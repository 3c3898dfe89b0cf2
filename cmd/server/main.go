package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ibreez3/learnsphere-ai/config"
	"github.com/ibreez3/learnsphere-ai/service"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	if _, err := config.LoadEnvFiles(".env", "../.env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := service.NewLogger(os.Stdout, cfg.Server.LogLevel, "learnsphere-api")
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(reg)

	client := service.NewClient(cfg, log).WithObserver(metrics)
	if !client.Config().HasCredential() {
		log.Warn().Str("env", cfg.Assistant.APIKeyEnv).Msg("API key not set, chat requests will return 503")
	}
	mgr := service.NewManager(client).
		WithMetrics(metrics).
		WithLogger(log).
		WithTranscripts(cfg.Server.TranscriptDir)

	router := newRouter(&api{
		cfg:     cfg,
		mgr:     mgr,
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		log:     log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("model", cfg.Assistant.Model).
			Str("transport", cfg.Assistant.Transport).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited cleanly")
}
