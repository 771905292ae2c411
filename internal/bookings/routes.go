package bookings

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/offers/{id}/materialize", h.Materialize)
	r.Get("/jobs/{id}/periods", h.ListPeriods)
	r.Post("/jobs/{id}/invoice", h.MarkInvoiced)
}
