package server

import (
	"net/http"

	"github.com/filipexyz/compass/internal/handler"
	"github.com/filipexyz/compass/internal/middleware"
	"github.com/filipexyz/compass/internal/monitor"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))

	// Health and metrics stay outside the rate limit.
	healthHandler := handler.NewHealthHandler(s.deps.Store, s.cachePinger(), s.natsChecker())
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}

	configHandler := handler.NewConfigHandler(s.deps.Store, s.changeNotifier())
	dataHandler := handler.NewDataHandler(s.deps.Pages)
	parseHandler := handler.NewParseHandler(monitor.NewParser(nil))
	eventsHandler := handler.NewEventsHandler(s.eventReader())

	r.Route("/monitor", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.rateLimiter))

		// Configs
		r.Get("/config/list", configHandler.List)
		r.Get("/config/key/{configKey}", configHandler.GetByKey)
		r.Get("/config/{configId}", configHandler.Get)
		r.Post("/config", configHandler.Create)
		r.Put("/config", configHandler.Update)
		r.Delete("/config/{configIds}", configHandler.Delete)

		// Page data
		r.Post("/data/{configKey}", dataHandler.Render)
		r.Post("/data/{configKey}/selectOptions", dataHandler.SelectOptions)

		// Stateless preview
		r.Post("/parse", parseHandler.Parse)

		// Change history and live feed
		r.Get("/events", eventsHandler.List)
		if s.deps.Hub != nil {
			r.Get("/watch", handler.NewWatchHandler(s.deps.Hub, s.cfg.CORSOrigins).Watch)
		}
	})

	return r
}
