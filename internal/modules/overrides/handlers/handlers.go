// Package handlers provides HTTP handlers for manual classification overrides.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/assetclass/internal/modules/overrides"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OverrideStore is the override persistence surface the handlers use.
type OverrideStore interface {
	Set(override *overrides.Override) error
	Remove(ticker string) error
	LookupActive(ticker string, now time.Time) (*overrides.Override, error)
	List() ([]overrides.Override, error)
}

// Handler handles override HTTP requests
type Handler struct {
	store OverrideStore
	log   zerolog.Logger
}

// NewHandler creates a new override handler
func NewHandler(store OverrideStore, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "overrides").Logger(),
	}
}

// SetOverrideRequest is the body of PUT /api/overrides/{ticker}.
type SetOverrideRequest struct {
	AssetClass     string  `json:"asset_class"`
	Reason         *string `json:"reason,omitempty"`
	CreatedBy      *string `json:"created_by,omitempty"`
	EffectiveFrom  int64   `json:"effective_from,omitempty"`
	EffectiveUntil *int64  `json:"effective_until,omitempty"`
}

// HandleSetOverride handles PUT /api/overrides/{ticker}
// Setting an override for a ticker that already has one replaces it.
func (h *Handler) HandleSetOverride(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	var req SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	override := &overrides.Override{
		Ticker:         ticker,
		AssetClass:     req.AssetClass,
		Reason:         req.Reason,
		CreatedBy:      req.CreatedBy,
		EffectiveFrom:  req.EffectiveFrom,
		EffectiveUntil: req.EffectiveUntil,
	}

	if err := h.store.Set(override); err != nil {
		h.log.Warn().Err(err).Str("ticker", ticker).Msg("Override rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(override))
}

// HandleGetOverride handles GET /api/overrides/{ticker}
// Returns the override currently in effect for the ticker.
func (h *Handler) HandleGetOverride(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	override, err := h.store.LookupActive(ticker, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to fetch override")
		http.Error(w, "Failed to fetch override", http.StatusInternalServerError)
		return
	}
	if override == nil {
		http.Error(w, "No active override", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(override))
}

// HandleRemoveOverride handles DELETE /api/overrides/{ticker}
// Removing a missing override succeeds; the end state is the same.
func (h *Handler) HandleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	if err := h.store.Remove(ticker); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to remove override")
		http.Error(w, "Failed to remove override", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"ticker":  ticker,
			"removed": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleListOverrides handles GET /api/overrides
func (h *Handler) HandleListOverrides(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list overrides")
		http.Error(w, "Failed to list overrides", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []overrides.Override{}
	}

	response := map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"count":     len(list),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) envelope(override *overrides.Override) map[string]interface{} {
	return map[string]interface{}{
		"data": override,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
