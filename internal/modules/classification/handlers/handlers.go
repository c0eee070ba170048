// Package handlers provides HTTP handlers for asset classification operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/assetclass/internal/domain"
	"github.com/aristath/assetclass/internal/modules/classification"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ClassificationService is the classification module surface the handlers use.
type ClassificationService interface {
	Classify(ctx context.Context, ticker string, characteristics domain.Characteristics) (*classification.Result, error)
	GetClassification(ctx context.Context, ticker string) (*classification.Result, error)
	ClassifyBatch(ctx context.Context, tickers []string, hint domain.Characteristics) (*classification.BatchOutcome, error)
}

// HistorySource reads past classifications for a ticker.
type HistorySource interface {
	History(ticker string, limit int) ([]*classification.Result, error)
}

// Handler handles classification HTTP requests
type Handler struct {
	service ClassificationService
	history HistorySource
	log     zerolog.Logger
}

// NewHandler creates a new classification handler
func NewHandler(service ClassificationService, history HistorySource, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		history: history,
		log:     log.With().Str("handler", "classification").Logger(),
	}
}

// ClassifyRequest is the body of POST /api/classification/classify.
type ClassifyRequest struct {
	Ticker          string                 `json:"ticker"`
	Characteristics domain.Characteristics `json:"characteristics,omitempty"`
}

// BatchClassifyRequest is the body of POST /api/classification/classify-batch.
// Characteristics is one hint shared by every ticker in the batch, same shape
// as the single-classify body.
type BatchClassifyRequest struct {
	Tickers         []string               `json:"tickers"`
	Characteristics domain.Characteristics `json:"characteristics,omitempty"`
}

// HandleClassify handles POST /api/classification/classify
// Forces a fresh classification regardless of any cached record.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Classify(r.Context(), req.Ticker, req.Characteristics)
	if err != nil {
		h.writeError(w, err, req.Ticker)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleClassifyBatch handles POST /api/classification/classify-batch
// Partial failure is reported per ticker, not as a request failure.
func (h *Handler) HandleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.service.ClassifyBatch(r.Context(), req.Tickers, req.Characteristics)
	if err != nil {
		h.writeError(w, err, "")
		return
	}

	response := map[string]interface{}{
		"data": outcome,
		"metadata": map[string]interface{}{
			"requested": len(req.Tickers),
			"succeeded": len(outcome.Results),
			"failed":    len(outcome.Errors),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetClassification handles GET /api/classification/{ticker}
// Serves the stored record while fresh, reclassifying otherwise.
func (h *Handler) HandleGetClassification(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	result, err := h.service.GetClassification(r.Context(), ticker)
	if err != nil {
		h.writeError(w, err, ticker)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleGetHistory handles GET /api/classification/{ticker}/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := h.history.History(ticker, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to fetch classification history")
		http.Error(w, "Failed to fetch classification history", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*classification.Result{}
	}

	response := map[string]interface{}{
		"data": results,
		"metadata": map[string]interface{}{
			"count":     len(results),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// writeError maps service errors onto the response taxonomy: caller mistakes
// are 400s with the message, anything else is an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, ticker string) {
	if errors.Is(err, classification.ErrInvalidInput) {
		h.log.Warn().Err(err).Str("ticker", ticker).Msg("Classification request rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.log.Error().Err(err).Str("ticker", ticker).Msg("Classification failed")
	http.Error(w, "Classification failed", http.StatusInternalServerError)
}

func envelope(result *classification.Result) map[string]interface{} {
	return map[string]interface{}{
		"data": result,
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
