package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TrendPredictor/internal/service/ratelimit"
	xhttp "TrendPredictor/pkg/http"
	pkgkafka "TrendPredictor/pkg/kafka"
	applogger "TrendPredictor/pkg/logger"
)

// App encapsulates the serving process lifecycle: HTTP API, optional model
// events consumer and the resources both depend on.
type App struct {
	l               *applogger.Logger
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	handler         pkgkafka.MessageHandler
	limiter         *ratelimit.Limiter
	shutdownTimeout time.Duration
	closers         []io.Closer
}

// New creates an App. consumer, handler and limiter may be nil.
func New(
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	handler pkgkafka.MessageHandler,
	limiter *ratelimit.Limiter,
	shutdownTimeout time.Duration,
) *App {
	return &App{
		l:               l,
		httpServer:      httpServer,
		consumer:        consumer,
		handler:         handler,
		limiter:         limiter,
		shutdownTimeout: shutdownTimeout,
	}
}

// AddCloser registers a resource released after the servers stop.
func (a *App) AddCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Run starts the application and blocks until interrupted or the HTTP
// server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with an explicit stop signal.
func (a *App) RunContext(ctx context.Context) error {
	if a.consumer != nil && a.handler != nil {
		a.consumer.RegisterHandler(a.handler)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
		} else {
			a.l.Info("kafka consumer started", applogger.String("topic", a.handler.Topic()))
		}
	}

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	errc := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errc:
		if ok && err != nil {
			a.l.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}
	return errors.Join(runErr, a.shutdown())
}

func (a *App) pruneLimiter(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Prune(10 * time.Minute); n > 0 {
				a.l.Debug("rate limiter pruned", applogger.Int("clients", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.l.Warn("close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
