package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a decoded recommender response.
type Response struct {
	Cohort  string
	Visitor string
	Session string
	Results []*RecommendationResult
}

type featureJSON struct {
	TopicLabel *string `json:"topicLabel"`
	Items      []struct {
		ID json.RawMessage `json:"id"`
	} `json:"items"`
}

// ParseResponse decodes a response body. Products are rebuilt from the
// columnar schema and products maps, one result per feature in document
// order. A missing schema or products map yields items without data.
func ParseResponse(body []byte) (*Response, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, newError(CodeUnknown, ErrUnknown.Message, fmt.Errorf("decode response: %w", err))
	}

	resp := &Response{}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"cohort", &resp.Cohort},
		{"visitor", &resp.Visitor},
		{"session", &resp.Session},
	} {
		v, err := stringField(top, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	rawFeatures, ok := top["features"]
	if !ok || isNull(rawFeatures) {
		return nil, missingParameter("features")
	}

	var schema []string
	if raw, ok := top["schema"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, newError(CodeUnknown, ErrUnknown.Message, fmt.Errorf("decode schema: %w", err))
		}
	}

	products := map[string][]any{}
	if raw, ok := top["products"]; ok && !isNull(raw) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&products); err != nil {
			return nil, newError(CodeUnknown, ErrUnknown.Message, fmt.Errorf("decode products: %w", err))
		}
	}

	keys, values, err := orderedObject(rawFeatures)
	if err != nil {
		return nil, newError(CodeUnknown, ErrUnknown.Message, fmt.Errorf("decode features: %w", err))
	}

	for i, key := range keys {
		var fj featureJSON
		if err := json.Unmarshal(values[i], &fj); err != nil {
			return nil, newError(CodeUnknown, ErrUnknown.Message, fmt.Errorf("decode feature %s: %w", key, err))
		}
		result := &RecommendationResult{Cohort: resp.Cohort, FeatureID: key}
		if fj.TopicLabel != nil {
			result.Topic = *fj.TopicLabel
		}
		for _, idx := range fj.Items {
			row := products[itemKey(idx.ID)]
			item := &RecommendedItem{Data: make(map[string]any, len(schema)), result: result}
			for c, column := range schema {
				if c < len(row) {
					item.Data[column] = row[c]
				}
			}
			result.addProduct(item)
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

func missingParameter(key string) *Error {
	return newError(CodeMissingJSONParameter, "Missing '"+key+"' parameter", nil)
}

func stringField(top map[string]json.RawMessage, key string) (string, error) {
	raw, ok := top[key]
	if !ok {
		return "", missingParameter(key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", missingParameter(key)
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// itemKey turns an item index, string or number, into a products key.
func itemKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// orderedObject splits a JSON object into its keys and raw values,
// keeping document order.
func orderedObject(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var (
		keys   []string
		values []json.RawMessage
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	return keys, values, nil
}
