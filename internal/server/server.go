package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/filipexyz/compass/internal/config"
	"github.com/filipexyz/compass/internal/datasource"
	"github.com/filipexyz/compass/internal/handler"
	"github.com/filipexyz/compass/internal/metrics"
	"github.com/filipexyz/compass/internal/middleware"
	"github.com/filipexyz/compass/internal/nats"
	"github.com/filipexyz/compass/internal/store"
	"github.com/filipexyz/compass/internal/websocket"
)

// Deps are the backends the server routes to. Cache, NATS, Hub and Metrics
// are optional.
type Deps struct {
	Store   store.Store
	Pages   *datasource.Service
	Changes *Changes
	Cache   datasource.Cache
	NATS    *nats.Client
	Hub     *websocket.Hub
	Metrics *metrics.Collector
}

// Server is the HTTP server.
type Server struct {
	cfg         *config.Config
	deps        Deps
	rateLimiter *middleware.RateLimiter
	server      *http.Server
}

// New creates a new Server.
func New(cfg *config.Config, deps Deps) *Server {
	rlCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimit > 0 {
		rlCfg.RatePerSecond = cfg.RateLimit
	}
	if cfg.RateBurst > 0 {
		rlCfg.Burst = cfg.RateBurst
	}

	s := &Server{
		cfg:         cfg,
		deps:        deps,
		rateLimiter: middleware.NewRateLimiter(rlCfg),
	}

	s.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Serve starts the HTTP server on the given listener.
func (s *Server) Serve(l net.Listener) error {
	return s.server.Serve(l)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.server.Shutdown(ctx)
}

// The helpers below keep typed nil pointers out of the handler interfaces.

func (s *Server) changeNotifier() handler.ChangeNotifier {
	if s.deps.Changes == nil {
		return nil
	}
	return s.deps.Changes
}

func (s *Server) cachePinger() handler.Pinger {
	if p, ok := s.deps.Cache.(handler.Pinger); ok {
		return p
	}
	return nil
}

func (s *Server) natsChecker() handler.ConnectionChecker {
	if s.deps.NATS == nil {
		return nil
	}
	return s.deps.NATS
}

func (s *Server) eventReader() handler.EventQuerier {
	if s.deps.NATS == nil || s.deps.NATS.Stream() == nil {
		return nil
	}
	return nats.NewEventReader(s.deps.NATS.Stream())
}
