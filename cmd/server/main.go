package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/AngelCh415/recho/internal/attribution"
	"github.com/AngelCh415/recho/internal/cache"
	"github.com/AngelCh415/recho/internal/clients"
	"github.com/AngelCh415/recho/internal/config"
	"github.com/AngelCh415/recho/internal/export"
	"github.com/AngelCh415/recho/internal/httpx"
	"github.com/AngelCh415/recho/internal/ingest"
	"github.com/AngelCh415/recho/internal/report"
	"github.com/AngelCh415/recho/internal/store"
	"github.com/AngelCh415/recho/internal/telemetry"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := clients.LoadFile(cfg.ClientsFile)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tel := telemetry.New(promReg)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)

	var ds ingest.Datastore = store.NewMemoryStore()
	if cfg.DatastoreURL != "" {
		ds = ingest.NewRESTDatastore(cl, cfg.DatastoreURL, cfg.DatastoreKey)
		logger.Info("using rest datastore", slog.String("url", cfg.DatastoreURL))
	}

	svc := report.NewService(ingest.NewProvider(ds, reg, logger, tel), reg, attribution.New(cfg.InfluenceFactor), logger).
		WithMetrics(tel).
		WithBaselinePoints(cfg.BaselinePoints).
		WithSpikeThreshold(cfg.SpikeThreshold)

	var cachePing httpx.Pinger
	if cfg.RedisURL != "" {
		rc, derr := cache.Dial(ctx, cfg.RedisURL, cfg.CacheTTL)
		if derr != nil {
			// sin cache seguimos sirviendo
			logger.Warn("redis unavailable, report cache disabled", slog.String("err", derr.Error()))
		} else {
			svc.WithCache(rc)
			cachePing = rc
			defer func() { err = multierr.Append(err, rc.Close()) }()
		}
	}

	r := httpx.NewRouter(httpx.Deps{
		Log:         logger,
		Reports:     svc,
		Clients:     reg,
		Datastore:   ds,
		Cache:       cachePing,
		Exporter:    export.New(cl, cfg.SinkURL, cfg.SinkSecret),
		Gatherer:    promReg,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return multierr.Append(srv.Shutdown(shutdownCtx), <-errCh)
}
