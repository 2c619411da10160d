package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/filipexyz/compass/internal/config"
	"github.com/filipexyz/compass/internal/datasource"
	"github.com/filipexyz/compass/internal/metrics"
	"github.com/filipexyz/compass/internal/nats"
	"github.com/filipexyz/compass/internal/server"
	"github.com/filipexyz/compass/internal/store"
	"github.com/filipexyz/compass/internal/websocket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "dev"

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	closeLog := setupLogging(cfg)
	defer closeLog()

	instanceID := "compassd-" + uuid.NewString()[:8]
	slog.Info("starting compassd", "version", version, "instance", instanceID)

	m := metrics.New()

	// Config store: Postgres when configured, memory otherwise
	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to database")
	} else {
		st = store.NewMemoryStore()
		slog.Warn("DATABASE_URL not set, configs are kept in memory")
	}

	// Data cache: Redis when configured, in-process otherwise
	var cache datasource.Cache
	if cfg.RedisURL != "" {
		rc, err := datasource.NewRedisCache(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		cache = rc
		slog.Info("connected to Redis")
	} else {
		mc := datasource.NewMemoryCache(cfg.DataCacheTTL)
		defer mc.Close()
		cache = mc
	}

	provider := datasource.NewProvider(datasource.ProviderConfig{
		Timeout:       cfg.UpstreamTimeout,
		RatePerSecond: cfg.UpstreamRate,
		Burst:         cfg.UpstreamBurst,
	})

	// Query database for database fields (optional)
	var querier datasource.Querier
	if cfg.QueryDatabaseURL != "" {
		qdb, err := pgxpool.New(ctx, cfg.QueryDatabaseURL)
		if err != nil {
			slog.Error("failed to connect to query database", "error", err)
			os.Exit(1)
		}
		defer qdb.Close()

		pq := datasource.NewPostgresQuerier(qdb)
		if err := pq.Ping(ctx); err != nil {
			slog.Error("failed to ping query database", "error", err)
			os.Exit(1)
		}
		querier = pq
		slog.Info("connected to query database")
	}
	sources := datasource.Sources{provider, datasource.NewDatabase(querier, cfg.QueryTimeout)}

	pages := datasource.NewService(st, sources,
		datasource.WithCache(cache, cfg.DataCacheTTL),
		datasource.WithRecorder(m),
	)

	// NATS (optional): embedded server or external URL
	var nc *nats.Client
	var publisher server.EventPublisher
	if cfg.NatsEnabled() {
		url := cfg.NatsURL
		if cfg.NatsEmbedded {
			embedded, err := nats.StartEmbedded(nats.EmbeddedConfig{StoreDir: cfg.NatsStoreDir})
			if err != nil {
				slog.Error("failed to start embedded NATS", "error", err)
				os.Exit(1)
			}
			defer embedded.Shutdown()
			url = embedded.ClientURL()
		}

		nc, err = nats.Connect(url)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		slog.Info("connected to NATS")

		if err := nc.EnsureStreams(ctx); err != nil {
			slog.Error("failed to setup JetStream streams", "error", err)
			os.Exit(1)
		}
		publisher = nats.NewPublisher(nc.JetStream(), instanceID)
	}

	// Live change feed for dashboards
	hub := websocket.NewHub()
	go hub.Run(ctx)

	changes := server.NewChanges(pages, publisher, m, hub)

	if nc != nil {
		sub := nats.NewSubscriber(nc.Stream(), instanceID, changes.Remote)
		if err := sub.Start(ctx); err != nil {
			slog.Error("failed to start config subscriber", "error", err)
			os.Exit(1)
		}
		defer sub.Stop()
	}

	// Config files (optional, hot reloaded)
	if cfg.ConfigDir != "" {
		loader, err := store.NewLoader(ctx, cfg.ConfigDir, st, changes.ConfigChanged)
		if err != nil {
			slog.Error("failed to load config directory", "dir", cfg.ConfigDir, "error", err)
			os.Exit(1)
		}
		defer loader.Close()
		slog.Info("config directory loaded", "dir", cfg.ConfigDir, "configs", len(loader.Keys()))
	}

	// Create and start HTTP server
	srv := server.New(cfg, server.Deps{
		Store:   st,
		Pages:   pages,
		Changes: changes,
		Cache:   cache,
		NATS:    nc,
		Hub:     hub,
		Metrics: m,
	})

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		slog.Error("failed to listen", "port", cfg.Port, "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "port", cfg.Port)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Wait for shutdown signal or a server failure
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
	}

	// Deferred closers run in reverse: loader, subscriber, NATS, cache, database.
	slog.Info("shutdown complete")
}

// setupLogging installs the default logger and returns a closer for the log file.
func setupLogging(cfg *config.Config) func() {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	closer := func() {}
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = func() { lj.Close() }
	}

	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closer
}
