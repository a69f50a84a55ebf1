package predict

import (
	"fmt"
	"sort"
	"strings"
)

// RecommendationResult is the result set of one feature of a response.
type RecommendationResult struct {
	Cohort    string
	FeatureID string
	Topic     string
	Products  []*RecommendedItem
}

func (r *RecommendationResult) addProduct(item *RecommendedItem) {
	r.Products = append(r.Products, item)
}

// RecommendedItem is a catalog record. Data keys are the catalog columns.
type RecommendedItem struct {
	Data   map[string]any
	result *RecommendationResult
}

// Result returns the result the item was recommended in.
func (i *RecommendedItem) Result() *RecommendationResult {
	return i.result
}

// Get returns the value of a catalog column as a string.
func (i *RecommendedItem) Get(field string) (string, bool) {
	v, ok := i.Data[field]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

func (i *RecommendedItem) String() string {
	keys := make([]string, 0, len(i.Data))
	for k := range i.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = %v", k, i.Data[k]))
	}
	return strings.Join(parts, ", ")
}
