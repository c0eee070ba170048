// Package handlers provides HTTP handlers for classification rule management.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/assetclass/internal/modules/rules"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RuleStore is the rule persistence surface the handlers use.
type RuleStore interface {
	Create(rule *rules.Rule) error
	Update(rule *rules.Rule) error
	Deactivate(id string) error
	GetByID(id string) (*rules.Rule, error)
	List() ([]rules.Rule, error)
	ListActive() ([]rules.Rule, error)
}

// Handler handles rule management HTTP requests
type Handler struct {
	store RuleStore
	log   zerolog.Logger
}

// NewHandler creates a new rule handler
func NewHandler(store RuleStore, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "rules").Logger(),
	}
}

// HandleCreateRule handles POST /api/rules
func (h *Handler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.Create(&rule); err != nil {
		h.log.Warn().Err(err).Str("asset_class", rule.AssetClass).Msg("Rule creation rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, h.envelope(&rule))
}

// HandleListRules handles GET /api/rules
// Pass ?active=true to restrict to active rules in evaluation order.
func (h *Handler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	var (
		list []rules.Rule
		err  error
	)
	if r.URL.Query().Get("active") == "true" {
		list, err = h.store.ListActive()
	} else {
		list, err = h.store.List()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list rules")
		http.Error(w, "Failed to list rules", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []rules.Rule{}
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

// HandleGetRule handles GET /api/rules/{id}
func (h *Handler) HandleGetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rule, err := h.store.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("rule_id", id).Msg("Failed to fetch rule")
		http.Error(w, "Failed to fetch rule", http.StatusInternalServerError)
		return
	}
	if rule == nil {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(rule))
}

// HandleUpdateRule handles PUT /api/rules/{id}
func (h *Handler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("rule_id", id).Msg("Failed to fetch rule")
		http.Error(w, "Failed to fetch rule", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	rule.ID = id
	rule.CreatedAt = existing.CreatedAt

	if err := h.store.Update(&rule); err != nil {
		h.log.Warn().Err(err).Str("rule_id", id).Msg("Rule update rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(&rule))
}

// HandleDeactivateRule handles DELETE /api/rules/{id}
// Rules are deactivated, never removed, so past classifications keep
// referencing a real rule ID.
func (h *Handler) HandleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("rule_id", id).Msg("Failed to fetch rule")
		http.Error(w, "Failed to fetch rule", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	if err := h.store.Deactivate(id); err != nil {
		h.log.Error().Err(err).Str("rule_id", id).Msg("Failed to deactivate rule")
		http.Error(w, "Failed to deactivate rule", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"id":     id,
			"active": false,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) envelope(rule *rules.Rule) map[string]interface{} {
	return map[string]interface{}{
		"data": rule,
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
