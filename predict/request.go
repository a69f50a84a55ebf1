package predict

import (
	"strconv"
	"strings"
)

// Rule is the comparison a filter applies to a catalog field.
type Rule string

const (
	// RuleIs matches a scalar field exactly.
	RuleIs Rule = "IS"
	// RuleIn matches when the field value is one of the values.
	RuleIn Rule = "IN"
	// RuleHas matches when the field, read as a "|" separated list, contains the value.
	RuleHas Rule = "HAS"
	// RuleOverlaps matches when the field, read as a "|" separated list, shares a value.
	RuleOverlaps Rule = "OVERLAPS"
)

// Filter narrows the items of a recommendation.
type Filter struct {
	CatalogField string
	Rule         Rule
	Values       []string
	Include      bool
}

func (f Filter) command() string {
	if f.Include {
		return "include"
	}
	return "exclude"
}

func (f Filter) validate() []ErrorParameter {
	var errs []ErrorParameter
	for _, v := range f.Values {
		if v == "" {
			errs = append(errs, emptyStringError(f.command(), f.CatalogField))
		}
	}
	return errs
}

type filterJSON struct {
	Field   string `json:"f"`
	Rule    Rule   `json:"r"`
	Values  string `json:"v"`
	Include string `json:"n"`
}

func (f Filter) wire() filterJSON {
	include := "false"
	if f.Include {
		include = "true"
	}
	return filterJSON{
		Field:   f.CatalogField,
		Rule:    f.Rule,
		Values:  strings.Join(f.Values, "|"),
		Include: include,
	}
}

const defaultLimit = 5

// RecommendationRequest asks for one recommendation logic. Requests are
// not reusable: do not change one after the transaction carrying it is sent.
type RecommendationRequest struct {
	logic       string
	limit       int
	baseline    []string
	hasBaseline bool
	filters     []Filter
}

// NewRecommendationRequest creates a request for logic, e.g. "RELATED" or
// "PERSONAL". The logic also keys the result.
func NewRecommendationRequest(logic string) *RecommendationRequest {
	return &RecommendationRequest{logic: logic, limit: defaultLimit}
}

func (r *RecommendationRequest) Logic() string { return r.logic }

// Limit returns the number of items to recommend. Default: 5.
func (r *RecommendationRequest) Limit() int { return r.limit }

func (r *RecommendationRequest) SetLimit(limit int) { r.limit = limit }

// Baseline returns the item IDs of the original recommendations, or nil.
func (r *RecommendationRequest) Baseline() []string {
	if !r.hasBaseline {
		return nil
	}
	return append([]string{}, r.baseline...)
}

// SetBaseline sets the item IDs of the original recommendations, used while
// an A/B test compares them against these results. nil clears it.
func (r *RecommendationRequest) SetBaseline(ids []string) {
	r.hasBaseline = ids != nil
	r.baseline = append([]string(nil), ids...)
}

// Filters returns a copy of the accumulated filters in call order.
func (r *RecommendationRequest) Filters() []Filter {
	return append([]Filter(nil), r.filters...)
}

func (r *RecommendationRequest) addFilter(include bool, rule Rule, field string, values ...string) {
	r.filters = append(r.filters, Filter{
		CatalogField: field,
		Rule:         rule,
		Values:       append([]string(nil), values...),
		Include:      include,
	})
}

// IncludeItemsWhereIs keeps items whose field equals value.
func (r *RecommendationRequest) IncludeItemsWhereIs(catalogField, value string) {
	r.addFilter(true, RuleIs, catalogField, value)
}

// IncludeItemsWhereIn keeps items whose field is one of values.
func (r *RecommendationRequest) IncludeItemsWhereIn(catalogField string, values []string) {
	r.addFilter(true, RuleIn, catalogField, values...)
}

// IncludeItemsWhereHas keeps items whose "|" separated field contains value.
func (r *RecommendationRequest) IncludeItemsWhereHas(catalogField, value string) {
	r.addFilter(true, RuleHas, catalogField, value)
}

// IncludeItemsWhereOverlaps keeps items whose "|" separated field shares a value with values.
func (r *RecommendationRequest) IncludeItemsWhereOverlaps(catalogField string, values []string) {
	r.addFilter(true, RuleOverlaps, catalogField, values...)
}

// ExcludeItemsWhereIs drops items whose field equals value.
func (r *RecommendationRequest) ExcludeItemsWhereIs(catalogField, value string) {
	r.addFilter(false, RuleIs, catalogField, value)
}

// ExcludeItemsWhereIn drops items whose field is one of values.
func (r *RecommendationRequest) ExcludeItemsWhereIn(catalogField string, values []string) {
	r.addFilter(false, RuleIn, catalogField, values...)
}

// ExcludeItemsWhereHas drops items whose "|" separated field contains value.
func (r *RecommendationRequest) ExcludeItemsWhereHas(catalogField, value string) {
	r.addFilter(false, RuleHas, catalogField, value)
}

// ExcludeItemsWhereOverlaps drops items whose "|" separated field shares a value with values.
func (r *RecommendationRequest) ExcludeItemsWhereOverlaps(catalogField string, values []string) {
	r.addFilter(false, RuleOverlaps, catalogField, values...)
}

func (r *RecommendationRequest) validate() []ErrorParameter {
	var errs []ErrorParameter
	if r.logic == "" {
		errs = append(errs, emptyStringError("recommend", "logic"))
	}
	if r.hasBaseline {
		for _, id := range r.baseline {
			if id == "" {
				errs = append(errs, emptyStringError("recommend", "baseline"))
			}
		}
	}
	for _, f := range r.filters {
		if f.CatalogField == "" {
			errs = append(errs, emptyStringError(f.command(), "catalogField"))
		}
		errs = append(errs, f.validate()...)
	}
	return errs
}

// feature is the "f" token for this request. Offset is always 0.
func (r *RecommendationRequest) feature() string {
	return "f:" + r.logic + ",l:" + strconv.Itoa(r.limit) + ",o:0"
}
