package mockserver

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/actuallystonmai/predict-client/internal/logging"
)

const featureConcurrency = 4

// FeatureRequest is one "f" token: f:<logic>,l:<limit>,o:<offset>.
type FeatureRequest struct {
	Logic  string
	Limit  int
	Offset int
}

// Request is the part of a transaction the service reads.
type Request struct {
	Features   []FeatureRequest
	Filters    []Filter
	View       string
	Category   string
	Cart       []string
	Purchased  []string
	SearchTerm string
}

type FeatureResult struct {
	TopicLabel *string   `json:"topicLabel,omitempty"`
	Items      []ItemRef `json:"items"`
}

type ItemRef struct {
	ID string `json:"id"`
}

// Response is the JSON body returned to clients.
type Response struct {
	Cohort   string                   `json:"cohort"`
	Visitor  string                   `json:"visitor"`
	Session  string                   `json:"session"`
	Schema   []string                 `json:"schema"`
	Products map[string][]string      `json:"products"`
	Features map[string]FeatureResult `json:"features"`
}

type Service struct {
	catalog *Catalog
	ranker  *Ranker
	cohort  string
	log     *logging.Logger
}

func NewService(catalog *Catalog, ranker *Ranker, cohort string, log *logging.Logger) *Service {
	return &Service{catalog: catalog, ranker: ranker, cohort: cohort, log: log}
}

// ParseFeatures decodes the "f" parameter.
func ParseFeatures(raw string) ([]FeatureRequest, error) {
	if raw == "" {
		return nil, nil
	}
	var out []FeatureRequest
	for _, token := range strings.Split(raw, "|") {
		fr := FeatureRequest{Limit: 5}
		for _, part := range strings.Split(token, ",") {
			k, v, ok := strings.Cut(part, ":")
			if !ok {
				return nil, fmt.Errorf("malformed feature token %q", token)
			}
			switch k {
			case "f":
				fr.Logic = v
			case "l", "o":
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("feature %q: %s: %w", token, k, err)
				}
				if k == "l" {
					fr.Limit = n
				} else {
					fr.Offset = n
				}
			}
		}
		out = append(out, fr)
	}
	return out, nil
}

// ParseItems extracts the item ids of a cart or purchase value
// ("i:<id>,p:<price>,q:<qty>|...") or of a view value ("i:<id>,t:...").
func ParseItems(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for _, line := range strings.Split(raw, "|") {
		for _, part := range strings.Split(line, ",") {
			if id, ok := strings.CutPrefix(part, "i:"); ok {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

// Recommend computes every requested feature. Features are scored
// concurrently; the first model failure fails the whole response.
func (s *Service) Recommend(ctx context.Context, req Request) (map[string]FeatureResult, []Product, error) {
	history := s.history(req)
	seen := make(map[string]bool, len(history))
	for _, p := range history {
		seen[p.ID] = true
	}

	type outcome struct {
		scored []Scored
		topic  *string
		err    error
	}
	outcomes := make([]outcome, len(req.Features))

	var wg sync.WaitGroup
	sem := make(chan struct{}, featureConcurrency)
	for i, fr := range req.Features {
		wg.Add(1)
		go func(idx int, fr FeatureRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				outcomes[idx] = outcome{err: err}
				return
			}
			candidates, topic := s.candidates(fr.Logic, req, seen)
			scored, err := s.ranker.Score(ScoreInput{
				History:    history,
				Candidates: candidates,
				Limit:      fr.Offset + fr.Limit,
			})
			if err == nil && fr.Offset > 0 {
				if fr.Offset >= len(scored) {
					scored = nil
				} else {
					scored = scored[fr.Offset:]
				}
			}
			outcomes[idx] = outcome{scored: scored, topic: topic, err: err}
		}(i, fr)
	}
	wg.Wait()

	features := make(map[string]FeatureResult, len(req.Features))
	index := make(map[string]string)
	var products []Product
	for i, fr := range req.Features {
		o := outcomes[i]
		if o.err != nil {
			s.log.Warn().Err(o.err).Str("feature", fr.Logic).Msg("feature failed")
			return nil, nil, fmt.Errorf("feature %s: %w", fr.Logic, o.err)
		}
		result := FeatureResult{TopicLabel: o.topic, Items: []ItemRef{}}
		for _, sc := range o.scored {
			key, ok := index[sc.Product.ID]
			if !ok {
				key = strconv.Itoa(len(products))
				index[sc.Product.ID] = key
				products = append(products, sc.Product)
			}
			result.Items = append(result.Items, ItemRef{ID: key})
		}
		features[fr.Logic] = result
	}
	return features, products, nil
}

// history collects the catalog products the transaction mentions.
func (s *Service) history(req Request) []Product {
	var ids []string
	if req.View != "" {
		ids = append(ids, req.View)
	}
	ids = append(ids, req.Cart...)
	ids = append(ids, req.Purchased...)

	var out []Product
	for _, id := range ids {
		if p, ok := s.catalog.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) candidates(logic string, req Request, seen map[string]bool) ([]Product, *string) {
	var (
		match func(Product) bool
		topic *string
	)
	switch {
	case logic == "RELATED" || logic == "ALSO_BOUGHT":
		viewed, ok := s.catalog.Get(req.View)
		if !ok {
			return nil, nil
		}
		match = func(p Product) bool { return p.Category == viewed.Category }
	case logic == "CATEGORY":
		if req.Category == "" {
			return nil, nil
		}
		category := req.Category
		topic = &category
		match = func(p Product) bool { return strings.HasPrefix(p.Category, category) }
	case logic == "SEARCH":
		term := strings.ToLower(req.SearchTerm)
		if term == "" {
			return nil, nil
		}
		match = func(p Product) bool { return strings.Contains(strings.ToLower(p.Title), term) }
	case logic == "CART":
		categories := make(map[string]bool)
		for _, id := range req.Cart {
			if p, ok := s.catalog.Get(id); ok {
				categories[p.Category] = true
			}
		}
		match = func(p Product) bool { return categories[p.Category] }
	case strings.HasPrefix(logic, "HOME"):
		label := "Top picks"
		topic = &label
		match = func(Product) bool { return true }
	default:
		match = func(Product) bool { return true }
	}

	var out []Product
	for _, p := range s.catalog.All() {
		if seen[p.ID] || !p.Available || !match(p) || !Allow(req.Filters, p) {
			continue
		}
		out = append(out, p)
	}
	return out, topic
}

// Encode turns the scored features into the columnar response body.
func (s *Service) Encode(session, visitor string, features map[string]FeatureResult, products []Product) Response {
	rows := make(map[string][]string, len(products))
	for i, p := range products {
		rows[strconv.Itoa(i)] = p.row()
	}
	return Response{
		Cohort:   s.cohort,
		Visitor:  visitor,
		Session:  session,
		Schema:   append([]string(nil), schema...),
		Products: rows,
		Features: features,
	}
}

// FeatureNames lists the logic names of a response in sorted order.
func FeatureNames(features map[string]FeatureResult) []string {
	names := make([]string, 0, len(features))
	for k := range features {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
