// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/query"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	queryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stats",
		Subsystem: "store",
		Name:      "query_duration_seconds",
		Help:      "Store round-trip latency",
		Buckets:   prometheus.DefBuckets,
	})

	queryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stats",
		Subsystem: "store",
		Name:      "query_errors_total",
		Help:      "Store queries that returned an error",
	})
)

var storeTracer = otel.Tracer("dorkinians.stats.store")

// =============================================================================
// Graph
// =============================================================================

// Graph is the Neo4j-backed Executor. Sessions are per call; the driver's
// pool underneath makes that cheap and keeps the type safe for concurrent
// use.
type Graph struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	logger   *slog.Logger
}

// Open builds a Graph from the store configuration. It does not touch the
// network: connectivity is checked by Ping so a slow or absent store delays
// readiness, not startup.
//
// Inputs:
//   - cfg: Connection settings (URI, credentials, database, query timeout).
//   - logger: Structured logger; nil falls back to slog.Default().
//
// Outputs:
//   - *Graph: The executor, ready for Run/Ping.
//   - error: Driver construction failure (malformed URI, bad auth scheme).
func Open(cfg config.StoreConfig, logger *slog.Logger) (*Graph, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("opening store driver for %q: %w", cfg.URI, err)
	}
	return &Graph{
		driver:   driver,
		database: cfg.Database,
		timeout:  cfg.QueryTimeout,
		logger:   logger,
	}, nil
}

// Namespace returns the bound database name.
func (g *Graph) Namespace() string {
	return g.database
}

// Ping verifies store connectivity within the query timeout.
func (g *Graph) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("store connectivity: %w", err)
	}
	return nil
}

// Run executes one read statement in its own session.
//
// # Description
//
//	Opens a session against the configured database, runs the statement in
//	a read transaction with the parameters bound server-side, and collects
//	every record into Rows keyed by RETURN alias. The per-call timeout
//	caps retries the driver performs internally.
//
// Inputs:
//   - ctx: Cancellation and tracing context.
//   - stmt: The synthesized statement; Text holds $name placeholders only.
//
// Outputs:
//   - Rows: One map per record. Empty (not nil error) when nothing matched.
//   - error: Wrapped driver or transaction failure.
//
// Thread Safety: Safe for concurrent use.
func (g *Graph) Run(ctx context.Context, stmt query.Statement) (Rows, error) {
	ctx, span := storeTracer.Start(ctx, "store.run")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			g.logger.Warn("store session close failed", "error", err)
		}
	}()

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, stmt.Text, stmt.Params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make(Rows, 0, len(records))
		for _, record := range records {
			rows = append(rows, record.AsMap())
		}
		return rows, nil
	})
	queryLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		queryErrorsTotal.Inc()
		return nil, fmt.Errorf("store query failed: %w", err)
	}

	rows := out.(Rows)
	span.SetAttributes(attribute.Int("store.rows", len(rows)))
	g.logger.Debug("store query completed",
		"rows", len(rows),
		"elapsed", time.Since(start),
	)
	return rows, nil
}

// Close releases the driver's connection pool.
func (g *Graph) Close(ctx context.Context) error {
	if err := g.driver.Close(ctx); err != nil {
		return fmt.Errorf("closing store driver: %w", err)
	}
	return nil
}
