// Command waypointd serves the waypoint HTTP API: trip and expense
// storage, natural language parsing, itinerary generation, and signed
// endpoint resolution for browser-side voice recognition.
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

	"golang.org/x/sync/errgroup"

	"github.com/waypointhq/waypoint-core/ai"
	"github.com/waypointhq/waypoint-core/ai/qwen"
	"github.com/waypointhq/waypoint-core/config"
	"github.com/waypointhq/waypoint-core/server"
	"github.com/waypointhq/waypoint-core/voice/speechtotext/iflytek"
)

var (
	configPath = flag.String("config", "", "path to the configuration file")
	addr       = flag.String("addr", "", "listen address, overrides the configuration")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "waypointd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	opts := []server.Option{}

	if cfg.AI.APIKey != "" || os.Getenv("DASHSCOPE_API_KEY") != "" {
		clientOpts := []qwen.Option{qwen.WithAPIKey(cfg.AI.APIKey)}
		if cfg.AI.Model != "" {
			clientOpts = append(clientOpts, qwen.WithModel(cfg.AI.Model))
		}
		opts = append(opts, server.WithPlanner(ai.NewPlanner(qwen.NewClient(clientOpts...))))
	} else {
		slog.Warn("No model API key configured, parsing endpoints disabled")
	}

	if cfg.Voice.IFlytek.AppID != "" {
		opts = append(opts, server.WithRecognitionCredentials(iflytek.Credentials{
			AppID:     cfg.Voice.IFlytek.AppID,
			APIKey:    cfg.Voice.IFlytek.APIKey,
			APISecret: cfg.Voice.IFlytek.APISecret,
		}))
	} else {
		slog.Warn("No recognition credentials configured, voice token endpoint disabled")
	}

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           server.New(opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("Serving waypoint API", "addr", listenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
