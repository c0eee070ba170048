package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rule management routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rules", func(r chi.Router) {
		r.Post("/", h.HandleCreateRule)
		r.Get("/", h.HandleListRules)
		r.Get("/{id}", h.HandleGetRule)
		r.Put("/{id}", h.HandleUpdateRule)
		r.Delete("/{id}", h.HandleDeactivateRule)
	})
}
