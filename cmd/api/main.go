package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solar-logger/internal/api"
	"solar-logger/internal/config"
	"solar-logger/internal/ledger"
	"solar-logger/internal/logging"
	"solar-logger/internal/metrics"
	"solar-logger/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfgPath := flag.String("config", config.PathFromEnv(), "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := logging.New(os.Stdout, logging.Options{Level: level, Env: cfg.Env, Dev: cfg.IsDev()})
	slog.SetDefault(logger)

	logger.Info("starting",
		"env", cfg.Env,
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Driver,
		"path", cfg.Store.Path,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	stations, err := cfg.ModelStations()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Init(registry)

	provider, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer provider.Close()

	book := ledger.NewBook(ledger.New(stations), provider, logger)
	if err := book.Load(ctx); err != nil {
		return err
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(book, api.Options{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       registry,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
