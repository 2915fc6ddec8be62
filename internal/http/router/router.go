package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "github.com/rogerio-castellano/enterprise-bi/docs"
	"github.com/rogerio-castellano/enterprise-bi/internal/http/handlers"
	mw "github.com/rogerio-castellano/enterprise-bi/internal/http/middleware"
	rl "github.com/rogerio-castellano/enterprise-bi/internal/http/rate_limiter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Options struct {
	AllowedOrigin string
	// RateLimiter is applied to the API routes. Nil disables rate limiting.
	RateLimiter *rl.RateLimiter
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(mw.AccessLog)
	r.Use(mw.CORS(opts.AllowedOrigin))

	r.Get("/", handlers.RootHandler)
	r.Get("/readyz", handlers.ReadyHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1/metrics", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		r.Get("/departments", handlers.GetDepartmentMetricsHandler)
		r.Get("/timeseries", handlers.GetTimeSeriesMetricsHandler)
	})

	return r
}
