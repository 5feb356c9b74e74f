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
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/store"
)

// ErrorResponse is the JSON body for every non-200 response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers holds the HTTP handlers for the stats API.
type Handlers struct {
	svc    *Service
	exec   store.Executor
	logger *slog.Logger
}

// NewHandlers creates the handlers over one service and its executor.
func NewHandlers(svc *Service, exec store.Executor, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, exec: exec, logger: logger}
}

// getOrCreateRequestID returns the request ID set by RequestIDMiddleware,
// minting one when the middleware is absent (tests hit handlers directly).
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Set(requestIDKey, id)
	return id
}

// HandleAsk handles POST /v1/stats/ask.
//
// Description:
//
//	Answers one natural-language stats question. Every resolvable
//	question returns 200 with an Envelope; resolution misses and store
//	faults are outcomes inside the envelope, not HTTP errors. Only
//	malformed JSON or an invalid question (empty, or longer than the
//	extractor accepts) returns 400.
//
// Request Body:
//
//	question: The question text (required)
//	context: Caller defaults - player ("I"), team, season, location, competition_type (optional)
//	include_trace: Attach per-stage pipeline trace to the envelope (optional)
//
// Response:
//
//	200 OK: Envelope
//	400 Bad Request: Malformed JSON or invalid question
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleAsk(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleAsk")

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "request body must be JSON with a question field",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "question is required",
			Code:  "MISSING_QUESTION",
		})
		return
	}

	env, err := h.svc.Answer(c.Request.Context(), req)
	if err != nil {
		logger.Warn("question rejected", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_QUESTION",
		})
		return
	}

	c.JSON(http.StatusOK, env)
}

// MetricSummary is one vocabulary metric in the listing response.
type MetricSummary struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Statement string   `json:"statement"`
	Unit      string   `json:"unit"`
	Aliases   []string `json:"aliases"`
}

// HandleVocabularyMetrics handles GET /v1/stats/vocabulary/metrics.
//
// Description:
//
//	Lists every metric the service can answer about, with its display
//	forms and the pseudonyms that resolve to it. Frontends use this to
//	build stat pickers and suggestion lists without hardcoding the
//	vocabulary.
//
// Response:
//
//	200 OK: {"metrics": [MetricSummary]}
//
// Thread Safety: This method is safe for concurrent use. Read-only access
// to the immutable vocabulary.
func (h *Handlers) HandleVocabularyMetrics(c *gin.Context) {
	metrics := make([]MetricSummary, 0, len(h.svc.vocab.Metrics))
	for _, m := range h.svc.vocab.Metrics {
		metrics = append(metrics, MetricSummary{
			Key:       string(m.Key),
			Label:     m.Label,
			Statement: m.Statement,
			Unit:      m.Unit,
			Aliases:   append([]string(nil), m.Aliases...),
		})
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// HandleHealth handles GET /v1/stats/health.
//
// Description:
//
//	Liveness probe. Returns 200 whenever the process is up; it says
//	nothing about the store. Use /ready for that.
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dorkinians-stats",
	})
}

// HandleReady handles GET /v1/stats/ready.
//
// Description:
//
//	Readiness probe. Pings the store when the executor supports it and
//	returns 503 until the store answers. Executors without a Ping (test
//	fakes) are always ready.
//
// Response:
//
//	200 OK: {"status": "ready", "store": <namespace>}
//	503 Service Unavailable: Store unreachable
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleReady(c *gin.Context) {
	if pinger, ok := h.exec.(store.Pinger); ok {
		if err := pinger.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("readiness check failed", "store", h.exec.Namespace(), "error", err)
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: "stats store unreachable",
				Code:  "STORE_UNAVAILABLE",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"store":  h.exec.Namespace(),
	})
}
