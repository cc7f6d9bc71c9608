package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"repocast/internal/config"
	"repocast/internal/httpapi"
	"repocast/internal/mcpserver"
	"repocast/internal/observability"
	"repocast/internal/wiring"
)

func main() {
	logger := observability.InitLogger()
	logger.Info("repocast server starting")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	if err := cfg.LoadSecrets(ctx, logger); err != nil {
		logger.Warn("failed to load secrets, falling back to env vars", "error", err)
	}

	workDir := filepath.Join(os.TempDir(), "repocast-builds")
	app, err := wiring.Build(ctx, cfg, workDir)
	if err != nil {
		logger.Error("failed to wire application", "error", err)
		os.Exit(1)
	}

	restServer := &httpapi.Server{
		Ingester:           app.Ingester,
		DiagramPipeline:    app.DiagramPipeline,
		PodcastBuilder:     app.PodcastBuilder,
		VoiceManager:       app.VoiceManager,
		ModelContextWindow: cfg.ModelContextWindow,
		Logger:             logger,
	}

	mcpSrv := mcpserver.New(
		mcpserver.Config{Port: cfg.Port + 1, MaxTasks: 5},
		app.Ingester,
		app.PodcastBuilder,
		app.DiagramPipeline,
		cfg.ModelContextWindow,
		logger,
	)

	errCh := make(chan error, 2)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("starting REST+SSE server", "addr", addr)
		errCh <- http.ListenAndServe(addr, restServer.Routes())
	}()

	go func() {
		errCh <- mcpSrv.Start()
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}
}
