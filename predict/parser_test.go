package predict

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	body := `{
		"cohort": "AAAA",
		"visitor": "v-1",
		"session": "s-1",
		"schema": ["item", "price"],
		"products": {"42": ["P1", "9.99"]},
		"features": {"RELATED": {"items": [{"id": "42"}]}}
	}`
	resp, err := ParseResponse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "AAAA", resp.Cohort)
	assert.Equal(t, "v-1", resp.Visitor)
	assert.Equal(t, "s-1", resp.Session)

	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, "RELATED", r.FeatureID)
	assert.Equal(t, "AAAA", r.Cohort)
	assert.Equal(t, "", r.Topic)
	require.Len(t, r.Products, 1)
	assert.Equal(t, map[string]any{"item": "P1", "price": "9.99"}, r.Products[0].Data)
	assert.Same(t, r, r.Products[0].Result())
}

func TestParseResponse_FeatureOrderAndTopics(t *testing.T) {
	body := `{
		"cohort": "B", "visitor": "v", "session": "s",
		"schema": ["item", "title", "price"],
		"products": {"0": ["10", "Dune", 12.5], "1": ["11", "Solaris"]},
		"features": {
			"PERSONAL": {"items": [{"id": 1}, {"id": "0"}]},
			"CATEGORY": {"topicLabel": "Books > Sci-Fi", "items": [{"id": "9"}]},
			"HOME": {"topicLabel": null, "items": []}
		}
	}`
	resp, err := ParseResponse([]byte(body))
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "PERSONAL", resp.Results[0].FeatureID)
	assert.Equal(t, "CATEGORY", resp.Results[1].FeatureID)
	assert.Equal(t, "HOME", resp.Results[2].FeatureID)

	personal := resp.Results[0].Products
	require.Len(t, personal, 2)
	assert.Equal(t, map[string]any{"item": "11", "title": "Solaris"}, personal[0].Data)
	assert.Equal(t, json.Number("12.5"), personal[1].Data["price"])
	price, ok := personal[1].Get("price")
	assert.True(t, ok)
	assert.Equal(t, "12.5", price)

	assert.Equal(t, "Books > Sci-Fi", resp.Results[1].Topic)
	require.Len(t, resp.Results[1].Products, 1)
	assert.Empty(t, resp.Results[1].Products[0].Data)
	assert.Empty(t, resp.Results[2].Products)
}

func TestParseResponse_OptionalSchemaAndProducts(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"cohort":"A","visitor":"v","session":"s","features":{"HOME":{"items":[{"id":"1"}]}}}`))
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0].Products, 1)
	assert.Empty(t, resp.Results[0].Products[0].Data)
}

func TestParseResponse_MissingParameters(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"cohort", `{"visitor":"v","session":"s","features":{}}`, "cohort"},
		{"visitor", `{"cohort":"c","session":"s","features":{}}`, "visitor"},
		{"session null", `{"cohort":"c","visitor":"v","session":null,"features":{}}`, "session"},
		{"cohort number", `{"cohort":1,"visitor":"v","session":"s","features":{}}`, "cohort"},
		{"features", `{"cohort":"c","visitor":"v","session":"s"}`, "features"},
		{"features null", `{"cohort":"c","visitor":"v","session":"s","features":null}`, "features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingJSONParameter)
			assert.Equal(t, "Missing '"+tt.key+"' parameter", err.Error())
		})
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	for _, body := range []string{``, `[]`, `{"cohort":`, `{"cohort":"c","visitor":"v","session":"s","features":[]}`} {
		_, err := ParseResponse([]byte(body))
		require.Error(t, err, body)
		assert.Equal(t, CodeUnknown, CodeOf(err), body)
	}
}

func TestRecommendedItemString(t *testing.T) {
	item := &RecommendedItem{Data: map[string]any{"title": "Dune", "item": "1", "price": json.Number("9.5")}}
	assert.Equal(t, "item = 1, price = 9.5, title = Dune", item.String())
	_, ok := item.Get("missing")
	assert.False(t, ok)
}
