// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T, exec *fakeExecutor) *gin.Engine {
	t.Helper()
	svc := newTestService(t, exec)
	handlers := NewHandlers(svc, exec, svc.logger)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	v1 := r.Group("/v1")
	RegisterRoutes(v1, handlers)
	return r
}

func postAsk(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("POST", "/v1/stats/ask", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAsk_Success(t *testing.T) {
	exec := newFakeExecutor()
	exec.rows = store.Rows{{"value": int64(17)}}
	router := setupTestRouter(t, exec)

	w := postAsk(t, router, `{"question": "How many goals has Dan Becker scored?"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, OutcomeSpecific, env.Type)
	assert.Equal(t, "How many goals has Dan Becker scored?", env.Question)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleAsk_StoreFaultIsStill200(t *testing.T) {
	exec := newFakeExecutor()
	exec.err = errors.New("neo4j gone")
	router := setupTestRouter(t, exec)

	w := postAsk(t, router, `{"question": "How many goals has Dan Becker scored?"}`)

	// The envelope is the protocol: a store fault is an outcome, not a
	// transport error.
	require.Equal(t, http.StatusOK, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, OutcomeStoreError, env.Type)
}

func TestHandleAsk_MissingQuestion(t *testing.T) {
	router := setupTestRouter(t, newFakeExecutor())

	w := postAsk(t, router, `{"question": "  "}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_QUESTION", resp.Code)
}

func TestHandleAsk_MalformedJSON(t *testing.T) {
	router := setupTestRouter(t, newFakeExecutor())

	w := postAsk(t, router, `{"question": `)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestHandleAsk_TraceInResponse(t *testing.T) {
	exec := newFakeExecutor()
	exec.rows = store.Rows{{"value": int64(17)}}
	router := setupTestRouter(t, exec)

	w := postAsk(t, router,
		`{"question": "How many goals has Dan Becker scored?", "include_trace": true}`)

	require.Equal(t, http.StatusOK, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotEmpty(t, env.Trace)
	assert.Equal(t, "extract", env.Trace[0].Stage)
}

func TestHandleVocabularyMetrics(t *testing.T) {
	router := setupTestRouter(t, newFakeExecutor())

	req, _ := http.NewRequest("GET", "/v1/stats/vocabulary/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Metrics []MetricSummary `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Metrics)

	keys := make(map[string]MetricSummary, len(resp.Metrics))
	for _, m := range resp.Metrics {
		keys[m.Key] = m
	}
	goals, ok := keys["goals"]
	require.True(t, ok)
	assert.Equal(t, "G", goals.Label)
	assert.Contains(t, goals.Aliases, "scored")
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(t, newFakeExecutor())

	req, _ := http.NewRequest("GET", "/v1/stats/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dorkinians-stats")
}

// pingableExecutor is a fakeExecutor that also implements store.Pinger.
type pingableExecutor struct {
	fakeExecutor
	pingErr error
}

func (p *pingableExecutor) Ping(context.Context) error { return p.pingErr }

func TestHandleReady(t *testing.T) {
	t.Run("executor without ping is always ready", func(t *testing.T) {
		router := setupTestRouter(t, newFakeExecutor())

		req, _ := http.NewRequest("GET", "/v1/stats/ready", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"fake"`)
	})

	t.Run("store outage turns ready off", func(t *testing.T) {
		exec := &pingableExecutor{
			fakeExecutor: *newFakeExecutor(),
			pingErr:      errors.New("dial tcp: refused"),
		}
		svc := newTestService(t, &exec.fakeExecutor)
		handlers := NewHandlers(svc, exec, svc.logger)

		r := gin.New()
		v1 := r.Group("/v1")
		RegisterRoutes(v1, handlers)

		req, _ := http.NewRequest("GET", "/v1/stats/ready", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "STORE_UNAVAILABLE", resp.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(1, 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	get := func() int {
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusOK, get())

	// Burst of two is spent; the bucket refills at 1 rps, far slower
	// than this loop.
	code := get()
	require.Equal(t, http.StatusTooManyRequests, code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	t.Run("honors caller id", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("X-Request-ID", "caller-chose-this")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "caller-chose-this", w.Body.String())
		assert.Equal(t, "caller-chose-this", w.Header().Get("X-Request-ID"))
	})

	t.Run("mints one when absent", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		id := w.Body.String()
		assert.NotEmpty(t, id)
		assert.Len(t, strings.Split(id, "-"), 5)
	})
}
