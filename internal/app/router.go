package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/backline-app/backline/internal/bookings"
	"github.com/backline-app/backline/internal/observability"
	"github.com/backline-app/backline/internal/offers"
	"github.com/backline-app/backline/jobs"
)

// RouterParams aggregates the handlers mounted on the HTTP surface.
type RouterParams struct {
	Config         *Config
	Metrics        *observability.Metrics
	OfferHandler   *offers.Handler
	BookingHandler *bookings.Handler
	JobHandler     *jobs.Handler
}

// NewRouter assembles the chi router: middleware stack, API routes, the
// token-gated public surface and the operational endpoints.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if p.OfferHandler != nil {
			p.OfferHandler.MountRoutes(r)
		}
		if p.BookingHandler != nil {
			p.BookingHandler.MountRoutes(r)
		}
		if p.JobHandler != nil {
			r.Route("/jobs-admin", p.JobHandler.MountRoutes)
		}
	})

	if p.OfferHandler != nil && p.Config != nil {
		p.OfferHandler.MountPublicRoutes(r, p.Config.PublicRateLimit, p.Config.PublicRateWindow)
	}

	return r
}
