package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all override routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overrides", func(r chi.Router) {
		r.Get("/", h.HandleListOverrides)
		r.Get("/{ticker}", h.HandleGetOverride)
		r.Put("/{ticker}", h.HandleSetOverride)
		r.Delete("/{ticker}", h.HandleRemoveOverride)
	})
}
