// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store executes synthesized statements against the club graph and
// normalizes what comes back. The graph is read-only from this service:
// ingestion happens elsewhere, this package only queries.
package store

import (
	"context"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/query"
)

// =============================================================================
// Executor
// =============================================================================

// Rows is a tabular query result. Keys are the statement's RETURN aliases.
type Rows []map[string]any

// First returns the first row, if any.
func (r Rows) First() (map[string]any, bool) {
	if len(r) == 0 {
		return nil, false
	}
	return r[0], true
}

// Executor runs one statement against the store.
type Executor interface {
	// Run executes the statement and returns its rows. Parameters travel
	// separately from text all the way to the store.
	Run(ctx context.Context, stmt query.Statement) (Rows, error)

	// Namespace identifies the database the executor is bound to.
	Namespace() string
}

// Pinger reports store connectivity. The readiness endpoint and the
// startup check use it; the answer path does not.
type Pinger interface {
	Ping(ctx context.Context) error
}
