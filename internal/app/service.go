package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gateway-server/internal/audit"
	"gateway-server/internal/config"
	apphttp "gateway-server/internal/http"
	"gateway-server/internal/routes"

	"go.uber.org/zap"
)

// Service represents the running gateway
type Service struct {
	config   *config.Config
	logger   *zap.Logger
	server   *apphttp.Server
	watcher  *routes.Watcher
	auditLog *audit.PostgresRecorder

	watchCtx  context.Context
	stopWatch context.CancelFunc
}

// Start starts background tasks, then serves until the server is shut down.
func (s *Service) Start() error {
	if s.watcher != nil {
		if err := s.watcher.Start(s.watchCtx); err != nil {
			return fmt.Errorf("failed to watch routes: %w", err)
		}
	}

	addr := apphttp.Address(s.config.Server.Port)
	s.logger.Info("starting gateway", zap.String("addr", addr))
	if err := s.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then flushes pending audit writes.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stopWatch()

	err := s.server.Shutdown(ctx)

	if s.auditLog != nil {
		s.auditLog.Close()
	}
	return err
}
