package common

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/config"
)

// ShutdownHook is a function executed after a termination signal is received
// but before the HTTP servers begin their graceful shutdown. If a hook returns
// an error it will be logged; shutdown continues regardless.
type ShutdownHook func(ctx context.Context) error

// RunServerWithShutdown starts the servers and blocks until SIGINT or
// SIGTERM. See RunUntil for the shutdown order.
//
// Typical usage in main:
//
//	server := common.NewServerWithTimeouts(&http.Server{Addr: ":8080", Handler: mux}, cfg.Timeouts)
//	common.RunServerWithShutdown(log, cfg.Timeouts, []*http.Server{server}, closeRedis)
func RunServerWithShutdown(log *zap.Logger, t config.Timeouts, servers []*http.Server, hooks ...ShutdownHook) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunUntil(ctx, log, t, servers, hooks...)
}

// RunUntil serves until ctx is done or a server fails to listen. It then
// runs the hooks in order, each with t.Hook as its own deadline inside the
// overall t.Shutdown budget, and finally shuts every server down.
func RunUntil(ctx context.Context, log *zap.Logger, t config.Timeouts, servers []*http.Server, hooks ...ShutdownHook) error {
	if log == nil {
		log = zap.NewNop()
	}
	failed := make(chan error, len(servers))
	for _, server := range servers {
		go func(s *http.Server) {
			log.Info("starting server", zap.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				failed <- err
			}
		}(server)
	}

	var listenErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case listenErr = <-failed:
		log.Error("listen failed", zap.Error(listenErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(shutdownCtx, t.Hook)
		if err := h(hCtx); err != nil {
			log.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
		if errors.Is(hCtx.Err(), context.DeadlineExceeded) {
			log.Warn("shutdown hook timed out", zap.Int("hook", i))
		}
		hCancel()
	}

	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed", zap.String("addr", s.Addr), zap.Error(err))
		}
	}
	log.Info("shutdown complete")
	return listenErr
}

// NewServerWithTimeouts attaches timeout settings to an existing *http.Server or creates a new one if nil.
func NewServerWithTimeouts(base *http.Server, t config.Timeouts) *http.Server {
	if base == nil {
		base = &http.Server{}
	}
	base.ReadHeaderTimeout = t.ReadHeader
	base.ReadTimeout = t.Read
	base.WriteTimeout = t.Write
	base.IdleTimeout = t.Idle
	return base
}
