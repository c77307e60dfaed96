package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tariffa/internal/adapters/http/api"
	"github.com/okian/tariffa/internal/adapters/http/site"
	"github.com/okian/tariffa/internal/adapters/http/swagger"
	app "github.com/okian/tariffa/internal/app"
	"github.com/okian/tariffa/internal/config"
	"github.com/okian/tariffa/pkg/logger"
	"github.com/okian/tariffa/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 75 * time.Second // covers ?wait on reconciliation reports
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tariffa: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> dotenv/env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogFormat); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	rates, closeRates, err := app.OpenRateStore(ctx, cfg, log.Named("rates"))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRates(); err != nil {
			log.Warn(ctx, "closing rate store", logger.Error(err))
		}
	}()

	svc := app.New(append(app.OptionsFromConfig(cfg), app.WithLogger(log), app.WithRateStore(rates))...)
	if err := svc.Start(serviceContext(ctx)); err != nil {
		return err
	}

	go metrics.RunSystemCollector(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	// workers outlive the signal context; Stop drains queued items within shutdownCtx
	svc.Stop(shutdownCtx)

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// serviceContext keeps ctx values but not its cancellation, so a signal stops
// intake while the workers keep pricing what is already queued.
func serviceContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// newMux registers the landing page, API docs and business routes.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxBatchItems).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics. GetStats refreshes the
// queue and worker gauges as a side effect.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	length, _ := stats["queueLength"].(int)
	size, _ := stats["queueSize"].(int)
	if size > 0 {
		metrics.UpdateQueueUtilization(float64(length) / float64(size))
	}
}
