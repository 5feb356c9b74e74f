// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// =============================================================================
// Service Configuration
// =============================================================================

// ServiceConfig holds everything the stats service needs at runtime. Values
// come from the environment; defaults suit local development against a
// dockerised store.
type ServiceConfig struct {
	// Host is the listen address.
	Host string `envconfig:"STATS_HOST" default:"0.0.0.0"`

	// Port is the HTTP listen port.
	Port int `envconfig:"STATS_PORT" default:"8080"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"STATS_LOG_LEVEL" default:"info"`

	// RequestTimeout bounds one ask request end to end, store call included.
	RequestTimeout time.Duration `envconfig:"STATS_REQUEST_TIMEOUT" default:"15s"`

	// RateLimitRPS is the sustained per-client request rate. Zero disables
	// rate limiting.
	RateLimitRPS float64 `envconfig:"STATS_RATE_LIMIT_RPS" default:"5"`

	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `envconfig:"STATS_RATE_LIMIT_BURST" default:"10"`

	// TraceStdout enables the stdout span exporter. Off by default; spans
	// still propagate to any configured collector through the global SDK.
	TraceStdout bool `envconfig:"STATS_TRACE_STDOUT" default:"false"`

	// Store is the graph store connection.
	Store StoreConfig
}

// StoreConfig holds the Neo4j connection settings. Database doubles as the
// namespace label reported on every answered question.
type StoreConfig struct {
	URI      string `envconfig:"NEO4J_URI" default:"neo4j://localhost:7687"`
	Username string `envconfig:"NEO4J_USERNAME" default:"neo4j"`
	Password string `envconfig:"NEO4J_PASSWORD" default:""`
	Database string `envconfig:"NEO4J_DATABASE" default:"dorkinians"`

	// QueryTimeout bounds a single store round trip.
	QueryTimeout time.Duration `envconfig:"NEO4J_QUERY_TIMEOUT" default:"10s"`
}

// LoadServiceConfig reads configuration from the environment and validates it.
func LoadServiceConfig() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration, aggregating every fault into one error.
func (c *ServiceConfig) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, "request_timeout must be positive")
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, "rate_limit_rps must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, "rate_limit_burst must be at least 1 when rate limiting is enabled")
	}

	if c.Store.URI == "" {
		errs = append(errs, "store uri must not be empty")
	}
	if c.Store.Database == "" {
		errs = append(errs, "store database must not be empty")
	}
	if c.Store.QueryTimeout <= 0 {
		errs = append(errs, "store query_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Address returns the host:port listen address.
func (c *ServiceConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
