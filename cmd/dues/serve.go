package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/api"
	"github.com/xraph/dues/internal/config"
	"github.com/xraph/dues/internal/logger"
	"github.com/xraph/dues/observability"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.WithComponent("serve")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	engine, err := newEngine(ctx, cfg, dues.WithPlugin(metrics))
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			log.Error().Err(err).Msg("engine stop failed")
		}
	}()

	// In-flight requests keep running through the shutdown grace period.
	reqBase, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()

	apiHandler := api.New(engine,
		api.WithBasePath(cfg.BasePath),
		api.WithLogger(logger.Slog("api")),
		api.WithBaseContext(reqBase),
	).Handler()
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &fasthttp.Server{
		Name: "dues",
		Handler: func(rc *fasthttp.RequestCtx) {
			if string(rc.Path()) == "/metrics" {
				metricsHandler(rc)
				return
			}
			apiHandler(rc)
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("base_path", cfg.BasePath).
			Str("store", cfg.Store).
			Msg("dues API listening")
		errc <- srv.ListenAndServe(cfg.HTTPAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.ShutdownWithContext(shutdownCtx)
}
