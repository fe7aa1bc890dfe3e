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

	"github.com/AngelCh415/wa-optimizer/internal/config"
	"github.com/AngelCh415/wa-optimizer/internal/httpx"
	"github.com/AngelCh415/wa-optimizer/internal/ingest"
	"github.com/AngelCh415/wa-optimizer/internal/narrative"
	"github.com/AngelCh415/wa-optimizer/internal/optimize"
	"github.com/AngelCh415/wa-optimizer/internal/utils"
)

func main() {
	cfg := config.FromEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if cfg, err = config.FromFile(path); err != nil {
			slog.Error("config", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := utils.NewMetrics(reg)

	narrator, err := narrative.New(ctx, cfg)
	if err != nil {
		logger.Warn("narrative provider unavailable, continuing without commentary",
			slog.String("provider", cfg.Narrative.Provider), slog.String("err", err.Error()))
	}

	cl := ingest.NewHTTPClient(cfg.RequestTimeout)
	svc := optimize.NewService(cl, narrator, m, logger, cfg)

	r := httpx.NewRouter(httpx.Deps{
		Log:         logger,
		Optimizer:   svc,
		Metrics:     m,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("port", cfg.Port), slog.String("narrative", cfg.Narrative.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("err", err.Error()))
	}
}
