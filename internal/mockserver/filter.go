package mockserver

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Filter is one entry of the "ex" parameter.
type Filter struct {
	Field   string `json:"f"`
	Rule    string `json:"r"`
	Values  string `json:"v"`
	Include string `json:"n"`
}

// ParseFilters decodes the "ex" parameter. An empty string means no filters.
func ParseFilters(raw string) ([]Filter, error) {
	if raw == "" {
		return nil, nil
	}
	var filters []Filter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	for _, f := range filters {
		switch f.Rule {
		case "IS", "IN", "HAS", "OVERLAPS":
		default:
			return nil, fmt.Errorf("unknown filter rule %q", f.Rule)
		}
	}
	return filters, nil
}

func (f Filter) values() []string {
	if f.Values == "" {
		return nil
	}
	return strings.Split(f.Values, "|")
}

// matches reports whether the rule holds for p, ignoring include/exclude.
func (f Filter) matches(p Product) bool {
	field, ok := p.Field(f.Field)
	if !ok {
		return false
	}
	switch f.Rule {
	case "IS":
		return field == f.Values
	case "IN":
		for _, v := range f.values() {
			if field == v {
				return true
			}
		}
		return false
	case "HAS":
		for _, part := range strings.Split(field, "|") {
			if part == f.Values {
				return true
			}
		}
		return false
	case "OVERLAPS":
		parts := make(map[string]struct{})
		for _, part := range strings.Split(field, "|") {
			parts[part] = struct{}{}
		}
		for _, v := range f.values() {
			if _, ok := parts[v]; ok {
				return true
			}
		}
		return false
	}
	return false
}

// Allow reports whether p passes every filter.
func Allow(filters []Filter, p Product) bool {
	for _, f := range filters {
		m := f.matches(p)
		if f.Include == "false" {
			m = !m
		}
		if !m {
			return false
		}
	}
	return true
}
