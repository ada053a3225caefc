package app

import (
	"context"
	"fmt"

	"gateway-server/internal/audit"
	"gateway-server/internal/auth"
	"gateway-server/internal/config"
	apphttp "gateway-server/internal/http"
	"gateway-server/internal/identity"
	"gateway-server/internal/infra/postgres"
	"gateway-server/internal/routes"
	"gateway-server/pkg/metrics"

	"go.uber.org/zap"
)

// InitializeService wires up all dependencies and returns a configured Service
func InitializeService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Service, error) {
	table, err := routes.Load(cfg.Routes.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	m := metrics.New()

	identityClient, err := identity.NewClient(identity.Config{
		BaseURL:             cfg.Identity.BaseURL,
		Timeout:             cfg.Identity.Timeout,
		MaxIdleConnsPerHost: cfg.Identity.MaxIdleConnsPerHost,
	}, identity.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}

	var recorder audit.Recorder = audit.NewLogRecorder(log)
	var pgRecorder *audit.PostgresRecorder
	if cfg.Audit.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:      cfg.Audit.DatabaseURL,
			MaxConns: cfg.Audit.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to audit database: %w", err)
		}
		pgRecorder, err = audit.NewPostgresRecorder(ctx, pool, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to initialize audit log: %w", err)
		}
		recorder = pgRecorder
		log.Info("audit decisions persisted to postgres")
	}

	filter := auth.NewFilter(
		auth.NewResolver(identityClient),
		auth.WithRecorder(recorder),
		auth.WithMetrics(m),
		auth.WithLogger(log),
	)

	server := apphttp.NewServer(&apphttp.ServerDependencies{
		Config:  cfg,
		Routes:  table,
		Filter:  filter,
		Metrics: m,
		Logger:  log,
	})

	var watcher *routes.Watcher
	if cfg.Routes.Watch {
		watcher = routes.NewWatcher(cfg.Routes.File, table, log, m)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())

	return &Service{
		config:    cfg,
		logger:    log,
		server:    server,
		watcher:   watcher,
		auditLog:  pgRecorder,
		watchCtx:  watchCtx,
		stopWatch: stopWatch,
	}, nil
}
