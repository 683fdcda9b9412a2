package server

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"GanttGen/internal/domain/repository"
	"GanttGen/internal/service/ratelimit"
	"GanttGen/pkg/cache"
	"GanttGen/pkg/config"
	xhttp "GanttGen/pkg/http"
	applogger "GanttGen/pkg/logger"
)

// sweepInterval is how often idle rate limit buckets are dropped.
const sweepInterval = time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	sessions   cache.Service
	events     repository.EventPublisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	sessions cache.Service,
	events repository.EventPublisher,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: httpServer,
		limiter:    limiter,
		sessions:   sessions,
		events:     events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve starts the HTTP server and blocks until ctx is done, then shuts
// everything down.
func (a *App) Serve(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.limiter != nil && a.cfg.RateLimit.Enabled {
		go a.sweep(ctx)
	}

	a.logger.Info("ganttgen started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("llm_model", a.cfg.LLM.Model),
		applogger.String("llm_transport", a.cfg.LLM.Transport),
		applogger.String("session_backend", a.cfg.Session.Backend),
		applogger.Bool("events", a.cfg.Events.Enabled))

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweep(ctx context.Context) {
	// buckets idle this long are full again anyway
	idle := 2 * time.Minute
	if a.cfg.RateLimit.RefillPerSec > 0 {
		if full := time.Duration(a.cfg.RateLimit.Capacity / a.cfg.RateLimit.RefillPerSec * float64(time.Second)); full > idle {
			idle = full
		}
	}

	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(idle); n > 0 {
				a.logger.Debug("rate limit buckets swept", applogger.Int("removed", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	// The collector publishes through events, so it is flushed first.
	a.logger.RemoveCollector()
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Warn("session cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return firstErr
}
