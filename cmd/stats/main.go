// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command stats starts the Dorkinians stats API server.
//
// The server answers natural-language questions about club statistics
// from the Neo4j fixture graph:
//   - Entity and stat extraction from free-form questions
//   - Fuzzy alias resolution against the stored player/opposition names
//   - Parameterized Cypher synthesis (no string-concatenated queries)
//   - One JSON envelope for every outcome, misses and faults included
//
// Usage:
//
//	go run ./cmd/stats
//	go run ./cmd/stats -port 9090
//	go run ./cmd/stats -config deploy/stats.env
//	NEO4J_URI=neo4j://db:7687 NEO4J_PASSWORD=secret go run ./cmd/stats
//
// Example requests:
//
//	# Liveness / readiness
//	curl http://localhost:8080/v1/stats/health
//	curl http://localhost:8080/v1/stats/ready
//
//	# Ask a question
//	curl -X POST http://localhost:8080/v1/stats/ask \
//	  -H "Content-Type: application/json" \
//	  -d '{"question": "Who has scored the most goals?"}'
//
//	# Ask with caller context and a pipeline trace
//	curl -X POST http://localhost:8080/v1/stats/ask \
//	  -H "Content-Type: application/json" \
//	  -d '{"question": "How many games have I played with Luke Bangs?",
//	       "context": {"player": "Dan Becker"}, "include_trace": true}'
//
//	# List the metrics the service understands
//	curl http://localhost:8080/v1/stats/vocabulary/metrics | jq
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/resolve"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/store"
)

func main() {
	port := flag.Int("port", 0, "Port to listen on (overrides STATS_PORT)")
	configFile := flag.String("config", "", "Optional KEY=VALUE env file loaded before the environment is read")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *configFile != "" {
		if err := loadEnvFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "config file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadServiceConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation, so trace context flows from incoming
	// headers through every stage down to the store spans.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	shutdownTracing := setupTracing(cfg.TraceStdout, logger)

	// Open never dials: readiness gates on the store, startup does not.
	graph, err := store.Open(cfg.Store, logger)
	if err != nil {
		logger.Error("store configuration rejected", "error", err)
		os.Exit(1)
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := graph.Ping(pingCtx); err != nil {
		logger.Warn("store not reachable at startup, /ready will report it",
			"uri", cfg.Store.URI, "error", err)
	}
	cancelPing()

	vocab, err := config.GetVocabulary(context.Background())
	if err != nil {
		logger.Error("vocabulary failed to load", "error", err)
		os.Exit(1)
	}

	directory := resolve.NewStoreDirectory(graph, logger)
	// Warm the name directory in the background; the first lookup loads
	// it anyway if this loses the race or the store is still down.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := directory.Load(ctx); err != nil {
			logger.Warn("name directory warmup failed", "error", err)
		}
	}()

	svc, err := stats.NewService(vocab, graph, directory, logger)
	if err != nil {
		logger.Error("service construction failed", "error", err)
		os.Exit(1)
	}
	handlers := stats.NewHandlers(svc, graph, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("dorkinians-stats"))
	router.Use(stats.RequestIDMiddleware())
	if cfg.RateLimitRPS > 0 {
		router.Use(stats.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	router.Use(requestTimeout(cfg.RequestTimeout))
	if *debug {
		router.Use(gin.Logger())
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	stats.RegisterRoutes(v1, handlers)

	printBanner(cfg.Port)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down stats server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := graph.Close(ctx); err != nil {
			logger.Warn("store close failed", "error", err)
		}
		shutdownTracing(ctx)
		os.Exit(0)
	}()

	addr := cfg.Address()
	logger.Info("starting stats server", "address", addr, "store", cfg.Store.URI)
	if err := router.Run(addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// loadEnvFile pushes a KEY=VALUE file into the process environment so
// envconfig picks it up. Already-set variables win over the file.
func loadEnvFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("%s: line %q is not KEY=VALUE", path, line)
		}
		key = strings.TrimSpace(key)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger builds the process logger: readable text on a terminal,
// JSON when piped or containerised.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// setupTracing installs the stdout span exporter when enabled and returns
// the provider shutdown.
func setupTracing(stdout bool, logger *slog.Logger) func(context.Context) {
	if !stdout {
		return func(context.Context) {}
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		logger.Warn("stdout trace exporter unavailable", "error", err)
		return func(context.Context) {}
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return func(ctx context.Context) {
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("trace provider shutdown failed", "error", err)
		}
	}
}

// requestTimeout bounds one request end to end, store round trip included.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                    DORKINIANS STATS SERVER                        ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Natural-language club stats over the fixture graph.              ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/stats/health               │  ║
║  │                                                             │  ║
║  │ # Ask a question                                            │  ║
║  │ curl -X POST http://localhost:%d/v1/stats/ask \        │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"question": "Who has scored the most goals?"}'       │  ║
║  │                                                             │  ║
║  │ # List answerable metrics                                   │  ║
║  │ curl http://localhost:%d/v1/stats/vocabulary/metrics   │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /v1/stats/ask - answer a question                      ║
║  ├── GET  /v1/stats/vocabulary/metrics - metric listing          ║
║  ├── GET  /v1/stats/health, /v1/stats/ready - probes             ║
║  └── GET  /metrics - Prometheus metrics                          ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port, port)
}
