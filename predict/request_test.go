package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartItemString(t *testing.T) {
	tests := []struct {
		item CartItem
		want string
	}{
		{NewCartItem("item_1", 19.9, 2), "i:item_1,p:19.9,q:2"},
		{NewCartItem("item_2", 5, 1), "i:item_2,p:5.0,q:1"},
		{NewCartItem("item_3", 0.1, 10), "i:item_3,p:0.1,q:10"},
		{NewCartItem("item_4", 1234.5, 0), "i:item_4,p:1234.5,q:0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.item.String())
	}
	assert.Equal(t, "i:a,p:1.0,q:1|i:b,p:2.5,q:3", joinItems([]CartItem{
		NewCartItem("a", 1, 1), NewCartItem("b", 2.5, 3),
	}))
}

func TestRecommendationRequest_Defaults(t *testing.T) {
	r := NewRecommendationRequest("PERSONAL")
	assert.Equal(t, "PERSONAL", r.Logic())
	assert.Equal(t, 5, r.Limit())
	assert.Nil(t, r.Baseline())
	assert.Empty(t, r.Filters())
	assert.Equal(t, "f:PERSONAL,l:5,o:0", r.feature())
}

func TestRecommendationRequest_Baseline(t *testing.T) {
	r := NewRecommendationRequest("RELATED")
	ids := []string{"1", "2"}
	r.SetBaseline(ids)
	ids[0] = "changed"
	assert.Equal(t, []string{"1", "2"}, r.Baseline())

	r.SetBaseline(nil)
	assert.Nil(t, r.Baseline())
	assert.Empty(t, r.validate())
}

func TestRecommendationRequest_Filters(t *testing.T) {
	r := NewRecommendationRequest("HOME")
	r.IncludeItemsWhereIs("category", "Books")
	r.IncludeItemsWhereIn("brand", []string{"Acme", "Hooli"})
	r.IncludeItemsWhereHas("tags", "sale")
	r.IncludeItemsWhereOverlaps("tags", []string{"new", "eco"})
	r.ExcludeItemsWhereIs("available", "false")
	r.ExcludeItemsWhereIn("brand", []string{"Globex"})
	r.ExcludeItemsWhereHas("tags", "limited")
	r.ExcludeItemsWhereOverlaps("tags", []string{"gift"})

	filters := r.Filters()
	require.Len(t, filters, 8)
	rules := make([]Rule, 0, len(filters))
	for _, f := range filters {
		rules = append(rules, f.Rule)
	}
	assert.Equal(t, []Rule{RuleIs, RuleIn, RuleHas, RuleOverlaps, RuleIs, RuleIn, RuleHas, RuleOverlaps}, rules)
	assert.True(t, filters[3].Include)
	assert.False(t, filters[4].Include)
	assert.Equal(t, filterJSON{Field: "tags", Rule: RuleOverlaps, Values: "new|eco", Include: "true"}, filters[3].wire())
	assert.Equal(t, filterJSON{Field: "available", Rule: RuleIs, Values: "false", Include: "false"}, filters[4].wire())
}

func TestRecommendationRequest_ValidateOrder(t *testing.T) {
	r := NewRecommendationRequest("")
	r.SetBaseline([]string{"1", ""})
	r.ExcludeItemsWhereIn("", []string{"a", ""})

	assert.Equal(t, []ErrorParameter{
		emptyStringError("recommend", "logic"),
		emptyStringError("recommend", "baseline"),
		emptyStringError("exclude", "catalogField"),
		emptyStringError("exclude", ""),
	}, r.validate())
}
