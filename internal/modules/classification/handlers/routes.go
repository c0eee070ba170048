package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all classification routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/classification", func(r chi.Router) {
		r.Post("/classify", h.HandleClassify)
		r.Post("/classify-batch", h.HandleClassifyBatch)
		r.Get("/{ticker}", h.HandleGetClassification)
		r.Get("/{ticker}/history", h.HandleGetHistory)
	})
}
