package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tilsley/repobrowse/apps/browser/internal/handler"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/config"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/telemetry"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/validation"
	"github.com/tilsley/repobrowse/pkg/logging"
	"github.com/tilsley/repobrowse/schemas"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the browse API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	log := logging.New(serviceName)

	cfg, err := config.Load(configPath, nil)
	if err != nil {
		log.Error("config load failed", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	tel, err := telemetry.New(ctx, telemetry.Options{
		Enabled:     cfg.OTel.Enabled,
		ServiceName: serviceName,
		Endpoint:    cfg.OTel.Endpoint,
	})
	if err != nil {
		log.Error("telemetry init failed", "error", err)
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// --- Service ---

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("wiring failed", "error", err)
		return err
	}
	defer a.cleanup()

	if a.purger != nil {
		go runPurger(ctx, a.purger, cfg.Cache.TTL, log)
	}

	// --- HTTP ---

	validator, err := validation.New(schemas.OpenAPISpec)
	if err != nil {
		log.Error("openapi validation middleware init failed", "error", err)
		return err
	}

	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestIDMiddleware(), otelgin.Middleware(serviceName), validator)
	handler.RegisterRoutes(router, a.svc, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting repobrowse", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
