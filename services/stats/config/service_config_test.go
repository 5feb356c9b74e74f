// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"strings"
	"testing"
	"time"
)

func makeTestServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		LogLevel:       "info",
		RequestTimeout: 15 * time.Second,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		Store: StoreConfig{
			URI:          "neo4j://localhost:7687",
			Username:     "neo4j",
			Database:     "dorkinians",
			QueryTimeout: 10 * time.Second,
		},
	}
}

func TestLoadServiceConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STATS_PORT", "9191")
	t.Setenv("STATS_LOG_LEVEL", "debug")
	t.Setenv("NEO4J_DATABASE", "dorkinians_test")
	t.Setenv("NEO4J_QUERY_TIMEOUT", "2s")

	cfg, err := LoadServiceConfig()
	if err != nil {
		t.Fatalf("LoadServiceConfig failed: %v", err)
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Store.Database != "dorkinians_test" {
		t.Errorf("Store.Database = %q, want dorkinians_test", cfg.Store.Database)
	}
	if cfg.Store.QueryTimeout != 2*time.Second {
		t.Errorf("Store.QueryTimeout = %v, want 2s", cfg.Store.QueryTimeout)
	}
	// Defaults still apply to everything left unset.
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default 0.0.0.0", cfg.Host)
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		if err := makeTestServiceConfig().Validate(); err != nil {
			t.Fatalf("valid config rejected: %v", err)
		}
	})

	cases := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantSub string
	}{
		{"port too low", func(c *ServiceConfig) { c.Port = 0 }, "port"},
		{"port too high", func(c *ServiceConfig) { c.Port = 70000 }, "port"},
		{"bad log level", func(c *ServiceConfig) { c.LogLevel = "verbose" }, "log level"},
		{"zero timeout", func(c *ServiceConfig) { c.RequestTimeout = 0 }, "request_timeout"},
		{"negative rps", func(c *ServiceConfig) { c.RateLimitRPS = -1 }, "rate_limit_rps"},
		{"zero burst with limiting on", func(c *ServiceConfig) { c.RateLimitBurst = 0 }, "rate_limit_burst"},
		{"empty store uri", func(c *ServiceConfig) { c.Store.URI = "" }, "store uri"},
		{"empty database", func(c *ServiceConfig) { c.Store.Database = "" }, "database"},
		{"zero query timeout", func(c *ServiceConfig) { c.Store.QueryTimeout = 0 }, "query_timeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := makeTestServiceConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantSub)
			}
		})
	}

	t.Run("faults aggregate into one error", func(t *testing.T) {
		cfg := makeTestServiceConfig()
		cfg.Port = 0
		cfg.LogLevel = "shouty"
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "port") || !strings.Contains(err.Error(), "log level") {
			t.Errorf("aggregated error missing a fault: %q", err.Error())
		}
	})
}

func TestServiceConfig_Address(t *testing.T) {
	cfg := makeTestServiceConfig()
	if got := cfg.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %q, want 127.0.0.1:8080", got)
	}
}
