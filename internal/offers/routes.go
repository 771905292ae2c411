package offers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the internal offer management endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/offers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/send", h.Send)
		r.Post("/{id}/duplicate", h.Duplicate)
		r.Post("/{id}/recalculate", h.Recalculate)
	})
}

// MountPublicRoutes registers the unauthenticated token surface, rate
// limited per client IP.
func (h *Handler) MountPublicRoutes(r chi.Router, limit int, window time.Duration) {
	r.Route("/public/offers/{token}", func(r chi.Router) {
		if limit > 0 {
			r.Use(httprate.LimitByIP(limit, window))
		}
		r.Get("/", h.PublicShow)
		r.Post("/accept", h.PublicAccept)
		r.Post("/reject", h.PublicReject)
		r.Post("/request-revision", h.PublicRequestRevision)
	})
}
