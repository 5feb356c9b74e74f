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
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// requestIDKey is the gin context key carrying the request ID.
const requestIDKey = "request_id"

// RequestIDMiddleware attaches a request ID to every request: the caller's
// X-Request-ID when present, a fresh UUID otherwise. The ID is echoed back
// in the response header so clients can correlate logs.
//
// Thread Safety: This middleware is safe for concurrent use.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// clientLimiters hands out one token bucket per client IP.
//
// The map is never evicted: the service fronts a single club's website,
// so the client population is small and stable.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *clientLimiters) get(clientIP string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[clientIP]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[clientIP] = lim
	}
	return lim
}

// RateLimitMiddleware rejects clients that exceed rps sustained requests
// per second (with the given burst) using a per-IP token bucket.
//
// Behavior:
//
//   - Returns 429 with a Retry-After header when the bucket is empty
//   - Buckets fill independently per client IP
//   - Rejections get their own OTel span so throttled clients show up
//     in traces, inheriting trace context extracted by otelgin
//
// Thread Safety: This middleware is safe for concurrent use.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiters := newClientLimiters(rps, burst)
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			_, span := otel.Tracer("dorkinians.stats.http").Start(
				c.Request.Context(), "rate_limit.reject",
				oteltrace.WithAttributes(
					attribute.String("path", c.Request.URL.Path),
					attribute.Int("http.status_code", http.StatusTooManyRequests),
				),
			)
			span.SetStatus(codes.Error, "rate limited")
			span.End()

			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "too many requests, slow down",
				Code:  "RATE_LIMITED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
