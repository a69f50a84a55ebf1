package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/actuallystonmai/predict-client/internal/logging"
)

const cookieName = "cdv"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClientError is one entry of the "error" parameter clients attach.
type ClientError struct {
	Kind    string `json:"t"`
	Command string `json:"c"`
	Message string `json:"m"`
}

type Handler struct {
	service   *Service
	merchants map[string]bool
	log       *logging.Logger

	mu      sync.Mutex
	queries []url.Values
}

// NewHandler serves recommendations for the given merchants, or for any
// merchant if none are given.
func NewHandler(svc *Service, merchants []string, log *logging.Logger) *Handler {
	h := &Handler{
		service:   svc,
		merchants: make(map[string]bool, len(merchants)),
		log:       log,
	}
	for _, m := range merchants {
		h.merchants[m] = true
	}
	return h
}

// Queries returns the query of every request served so far.
func (h *Handler) Queries() []url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]url.Values(nil), h.queries...)
}

// GET /merchants/{merchantID}
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	if len(h.merchants) > 0 && !h.merchants[merchantID] {
		writeError(w, http.StatusNotFound, "merchant_not_found", "Unknown merchant "+merchantID)
		return
	}

	q := r.URL.Query()
	h.mu.Lock()
	h.queries = append(h.queries, q)
	h.mu.Unlock()

	if raw := q.Get("error"); raw != "" {
		var reported []ClientError
		if err := json.Unmarshal([]byte(raw), &reported); err != nil {
			h.log.Warn().Err(err).Msg("undecodable client error parameter")
		}
		for _, e := range reported {
			h.log.Info().Str("merchant", merchantID).Str("kind", e.Kind).Str("command", e.Command).Msg(e.Message)
		}
	}

	features, err := ParseFeatures(q.Get("f"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	filters, err := ParseFilters(q.Get("ex"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	views := ParseItems(q.Get("v"))
	req := Request{
		Features:   features,
		Filters:    filters,
		Category:   q.Get("vc"),
		Cart:       ParseItems(q.Get("ca")),
		Purchased:  ParseItems(q.Get("co")),
		SearchTerm: q.Get("q"),
	}
	if len(views) > 0 {
		req.View = views[0]
	}

	recs, products, err := h.service.Recommend(r.Context(), req)
	if err != nil {
		if IsModelInferenceError(err) {
			writeError(w, http.StatusServiceUnavailable, "model_unavailable",
				"Recommendation model is temporarily unavailable")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout",
				"Request timed out, please try again")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	cdv := q.Get("vi")
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		cdv = c.Value
	}
	if cdv == "" {
		cdv = uuid.NewString()
	}
	session := q.Get("s")
	if session == "" {
		session = uuid.NewString()
	}

	http.SetCookie(w, &http.Cookie{
		Name:    cookieName,
		Value:   cdv,
		Path:    "/",
		Expires: time.Now().AddDate(1, 0, 0),
	})

	h.log.Debug().
		Str("merchant", merchantID).
		Strs("features", FeatureNames(recs)).
		Int("products", len(products)).
		Msg("served recommendations")

	writeJSON(w, http.StatusOK, h.service.Encode(session, cdv, recs, products))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
