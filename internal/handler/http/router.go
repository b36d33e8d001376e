package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// RouterOptions tunes the storefront API middleware.
type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered. The
// rate limiter's background cleanup stops when ctx is done.
func NewRouter(
	ctx context.Context,
	storefrontService *service.StorefrontService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	h := NewStorefrontHandler(storefrontService, logger)

	r.Route("/api/v1/storefront", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		if opts.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(ctx, opts.RateLimitRPS, opts.RateLimitBurst, logger))
		}

		r.Post("/views", h.OpenView)
		r.Route("/views/{viewId}", func(r chi.Router) {
			r.Get("/", h.GetView)
			r.Delete("/", h.CloseView)
			r.Put("/selection", h.SetSelection)
			r.Put("/preview", h.SetPreview)
			r.Delete("/preview", h.ClearPreview)
			r.Put("/image", h.SelectImage)
		})

		r.Get("/products/{slug}/availability", h.Availability)
		r.Delete("/products/{slug}/selection", h.ForgetSelection)
	})

	return r
}
