package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/mailchimp-insights/internal/analytics"
)

// GetThresholds handles GET /api/thresholds
func (h *Handlers) GetThresholds(w http.ResponseWriter, r *http.Request) {
	current, version := h.thresholds.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"thresholds": current.Map(),
		"version":    version,
	})
}

// SetThreshold handles PUT /api/thresholds/{key}
//
// Body: {"value": 7.5}. Percentage thresholds are whole numbers (7.5 means
// 7.5%); lowActivityCampaigns is a plain count.
func (h *Handlers) SetThreshold(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body struct {
		Value *float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == nil {
		respondError(w, http.StatusBadRequest, "request body must be {\"value\": <number>}")
		return
	}

	if err := h.thresholds.Set(r.Context(), key, *body.Value); err != nil {
		if errors.Is(err, analytics.ErrUnknownThresholdKey) {
			respondError(w, http.StatusNotFound, "unknown threshold key: "+key)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, version := h.thresholds.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"thresholds": current.Map(),
		"version":    version,
	})
}

// ResetThresholds handles POST /api/thresholds/reset
func (h *Handlers) ResetThresholds(w http.ResponseWriter, r *http.Request) {
	if err := h.thresholds.Reset(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reset thresholds")
		return
	}

	current, version := h.thresholds.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"thresholds": current.Map(),
		"version":    version,
	})
}
