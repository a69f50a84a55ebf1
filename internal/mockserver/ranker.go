package mockserver

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Ranker scores candidate products against what the visitor has looked at.
type Ranker struct {
	latency     time.Duration
	failureRate float64
	now         func() time.Time
}

func NewRanker(latency time.Duration, failureRate float64) *Ranker {
	return &Ranker{latency: latency, failureRate: failureRate, now: time.Now}
}

type ModelInferenceError struct {
	Msg string
}

func (e *ModelInferenceError) Error() string {
	return e.Msg
}

func IsModelInferenceError(err error) bool {
	var target *ModelInferenceError
	return errors.As(err, &target)
}

type ScoreInput struct {
	History    []Product
	Candidates []Product
	Limit      int
}

type Scored struct {
	Product Product
	Score   float64
}

func (r *Ranker) Score(input ScoreInput) ([]Scored, error) {
	if r.latency > 0 {
		time.Sleep(r.latency)
	}
	if r.failureRate > 0 && rand.Float64() < r.failureRate {
		return nil, &ModelInferenceError{Msg: "model inference failed"}
	}

	prefs := categoryPreferenceWeights(input.History)
	now := r.now()

	scored := make([]Scored, 0, len(input.Candidates))
	for _, p := range input.Candidates {
		scored = append(scored, Scored{
			Product: p,
			Score:   math.Round(finalScore(p, prefs, now)*1000) / 1000,
		})
	}

	// Ties keep catalog order so responses are reproducible.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if input.Limit >= 0 && len(scored) > input.Limit {
		scored = scored[:input.Limit]
	}
	return scored, nil
}

func categoryPreferenceWeights(history []Product) map[string]float64 {
	counts := make(map[string]int)
	for _, p := range history {
		counts[p.Category]++
	}

	prefs := make(map[string]float64, len(counts))
	total := float64(len(history))
	if total == 0 {
		return prefs
	}
	for category, n := range counts {
		prefs[category] = float64(n) / total
	}
	return prefs
}

func recencyFactor(createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24.0
	if days < 0 {
		days = 0
	}
	return 1.0 / (1.0 + days/365.0)
}

func finalScore(p Product, prefs map[string]float64, now time.Time) float64 {
	popularity := p.Popularity * 0.4

	pref, ok := prefs[p.Category]
	if !ok {
		pref = 0.1
	}
	boost := pref * 0.35

	recency := recencyFactor(p.CreatedAt, now) * 0.15

	return popularity + boost + recency
}
