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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all stats routes with the router.
//
// Description:
//
//	Registers all /v1/stats/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/stats/ask - Answer a natural-language stats question
//	GET  /v1/stats/vocabulary/metrics - List answerable metrics and their pseudonyms
//	GET  /v1/stats/health - Liveness probe
//	GET  /v1/stats/ready - Readiness probe (pings the store)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	stats := rg.Group("/stats")
	{
		stats.POST("/ask", handlers.HandleAsk)
		stats.GET("/vocabulary/metrics", handlers.HandleVocabularyMetrics)
		stats.GET("/health", handlers.HandleHealth)
		stats.GET("/ready", handlers.HandleReady)
	}
}
