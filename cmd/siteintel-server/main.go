package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/siteintel/api"
	"github.com/use-agent/siteintel/capture"
	"github.com/use-agent/siteintel/competitive"
	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/narrative"
	"github.com/use-agent/siteintel/pipeline"
	"github.com/use-agent/siteintel/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("siteintel starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
	)

	// ── 3. Capture layer: disk-backed store, browser-first provider ─
	store, err := capture.NewDiskStore(cfg.Capture.CacheDir)
	if err != nil {
		slog.Error("failed to initialise capture store", "error", err)
		os.Exit(1)
	}

	browser := capture.NewBrowserStrategy(cfg.Browser, cfg.Capture.NavigationTimeout)
	defer browser.Close()

	provider := capture.NewProvider(
		[]capture.Strategy{browser, capture.NewHTTPStrategy()},
		cfg.Capture.RequestTimeout,
		cfg.Capture.SideFetchTimeout,
	)

	// ── 4. Analyzers and enrichments ────────────────────────────────
	detector := competitive.NewDetector(competitive.NewTrafficClient(cfg.Traffic))

	var narrator pipeline.Narrator
	if cfg.Narrative.APIKey != "" {
		narrator = narrative.NewClient(cfg.Narrative, nil)
	} else {
		slog.Info("narrative stage disabled: GROQ_API_KEY not set")
	}

	results, err := pipeline.NewResultStore(cfg.Capture.ResultsDir)
	if err != nil {
		slog.Error("failed to initialise result store", "error", err)
		os.Exit(1)
	}

	var notifier pipeline.Notifier
	if n := webhook.New(cfg.Webhook); n != nil {
		notifier = n
	}

	p := pipeline.New(store, provider, detector, narrator, results, notifier)

	// ── 5. Setup router and HTTP server ─────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(p, results, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer — kills the headless Chrome.
	slog.Info("siteintel stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
