package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	mcpapi "github.com/fortuna/vesta/internal/api/mcp"
	"github.com/fortuna/vesta/internal/api/websocket"
	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/cache"
	"github.com/fortuna/vesta/internal/config"
	"github.com/fortuna/vesta/internal/ingest/bbref"
	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/metrics"
	"github.com/fortuna/vesta/internal/publisher"
	"github.com/fortuna/vesta/internal/service"
	"github.com/fortuna/vesta/internal/store"
	"github.com/fortuna/vesta/internal/store/repository"
	"github.com/fortuna/vesta/internal/table"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	metrics  *metrics.Manager
	client   *bbref.Client
	queries  *service.PlayerStatsService
	recorder *audit.Fanout
	mcp      *mcpapi.Server

	redis       *cache.RedisCache
	db          *store.Database
	invocations *repository.InvocationRepository
	ws          *websocket.Server

	closers []func()
}

// newApp loads configuration and wires the scraper, the optional Redis and
// Postgres sinks and the MCP server.
func newApp(ctx context.Context, withWebsocket bool) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewManager(),
	}
	a.recorder = audit.NewFanout(logger).
		Add("metrics", audit.MetricsRecorder(a.metrics)).
		Add("log", audit.LogRecorder(logger))

	var locators bbref.LocatorCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.redis = cache.NewRedisCache(client, cfg.LookupCacheTTL)
		if cfg.LookupCacheTTL > 0 {
			locators = a.redis
		}
		a.recorder.Add("stream", publisher.NewRedisStreamPublisher(client))
		logger.Info("connected to Redis")
	}

	if cfg.AtlasDSN != "" {
		db, err := store.NewDatabase(ctx, cfg.AtlasDSN, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := db.RunMigrations(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		a.db = db
		a.invocations = repository.NewInvocationRepository(db)
		a.recorder.Add("atlas", a.invocations)
		logger.Info("connected to Atlas database")
	}

	if withWebsocket && cfg.EnableWebsocket {
		a.ws = websocket.NewServer(logger)
		a.recorder.Add("websocket", a.ws)
	}

	a.client = bbref.NewClient(bbref.ClientConfig{
		BaseURL:            cfg.BaseURL,
		RequestTimeout:     cfg.RequestTimeout,
		MinRequestInterval: cfg.MinRequestInterval,
		RenderTimeout:      cfg.RenderTimeout,
		Headless:           cfg.Headless,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerTimeout:     cfg.BreakerTimeout,
	}, bbref.WithLogger(logger), bbref.WithMetrics(a.metrics))
	a.closers = append(a.closers, a.client.Close)

	lookup := bbref.NewLookup(a.client, locators, a.metrics, logger)
	source := bbref.NewSource(a.client, lookup, table.Normalizer{}, logger)
	a.queries = service.NewPlayerStatsService(source, logger)
	a.mcp = mcpapi.NewServer(a.queries, a.recorder, serviceVersion, logger)

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
