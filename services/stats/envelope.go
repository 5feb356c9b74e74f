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
	"time"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/query"
)

// =============================================================================
// Outcome Taxonomy
// =============================================================================

// OutcomeType is the closed set of answer shapes. Every answered question
// gets exactly one; store faults are an outcome too, not an HTTP error.
type OutcomeType string

const (
	// OutcomeSpecific is one value for one subject.
	OutcomeSpecific OutcomeType = "specific"

	// OutcomeRanking is an ordered list of subjects.
	OutcomeRanking OutcomeType = "ranking"

	// OutcomePairwise is the shared-fixture count of two players.
	OutcomePairwise OutcomeType = "pairwise"

	// OutcomeTeammates lists who a player shared fixtures with.
	OutcomeTeammates OutcomeType = "teammates"

	// OutcomeOpposition groups a player's fixtures by opponent.
	OutcomeOpposition OutcomeType = "opposition"

	// OutcomeHonours answers award questions.
	OutcomeHonours OutcomeType = "honours"

	// OutcomeNoContext is the fallback listing when nothing resolved.
	OutcomeNoContext OutcomeType = "no_context"

	// OutcomePlayerNotFound means a mentioned player matched nobody.
	OutcomePlayerNotFound OutcomeType = "player_not_found"

	// OutcomeUnsupportedMetric means the metric has no statement shape.
	OutcomeUnsupportedMetric OutcomeType = "unsupported_metric"

	// OutcomeStoreError means the store call failed.
	OutcomeStoreError OutcomeType = "store_error"
)

// =============================================================================
// Envelope
// =============================================================================

// Envelope is the uniform answer payload. Data carries the display rows;
// FullData carries the over-fetched ranking rows so a client can expand
// the list without another round trip.
type Envelope struct {
	Type     OutcomeType  `json:"type"`
	Question string       `json:"question"`
	Data     any          `json:"data,omitempty"`
	FullData any          `json:"full_data,omitempty"`
	Metric   string       `json:"metric,omitempty"`
	Message  string       `json:"message,omitempty"`
	Trace    []TraceEntry `json:"trace,omitempty"`
}

// TraceEntry is one pipeline stage in the per-request trace.
type TraceEntry struct {
	// Stage names the pipeline step ("extract", "classify", "execute").
	Stage string `json:"stage"`

	// Detail is a human-readable note about what the stage decided.
	Detail string `json:"detail"`

	// Statement is the rendered store statement, for execute stages.
	Statement string `json:"statement,omitempty"`

	// Elapsed is the stage duration.
	Elapsed string `json:"elapsed"`
}

// =============================================================================
// Trace Collection
// =============================================================================

// traceLog accumulates stages for one request. Each request gets its own
// collector, so concurrent asks never interleave trace lines.
type traceLog struct {
	enabled bool
	last    time.Time
	entries []TraceEntry
}

func newTraceLog(enabled bool) *traceLog {
	return &traceLog{enabled: enabled, last: time.Now()}
}

// add records a stage with the elapsed time since the previous one.
func (t *traceLog) add(stage, detail string) {
	t.record(stage, detail, "")
}

// addStatement records an execute stage with the statement rendered for
// display. The rendered form is never sent to the store.
func (t *traceLog) addStatement(stage, detail string, stmt query.Statement) {
	t.record(stage, detail, stmt.Render())
}

func (t *traceLog) record(stage, detail, statement string) {
	if !t.enabled {
		return
	}
	now := time.Now()
	t.entries = append(t.entries, TraceEntry{
		Stage:     stage,
		Detail:    detail,
		Statement: statement,
		Elapsed:   now.Sub(t.last).String(),
	})
	t.last = now
}

// list returns the collected entries, nil when tracing was off.
func (t *traceLog) list() []TraceEntry {
	return t.entries
}
