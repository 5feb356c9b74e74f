// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

// =============================================================================
// Limit Policy
// =============================================================================

const (
	// DefaultDisplayLimit rows are shown for an unqualified ranking.
	DefaultDisplayLimit = 5

	// DefaultFetchLimit rows are fetched so the caller can expand the list
	// without a second round trip.
	DefaultFetchLimit = 10
)

// LimitPolicy is the resolved fetch/display row counts for a ranking.
type LimitPolicy struct {
	// Display is how many rows the caller should show.
	Display int

	// Fetch is how many rows the statement requests. Fetch >= Display.
	Fetch int
}

// ResolveLimit applies the ranking row-count policy.
//
//   - An explicit "top N" fetches exactly N.
//   - A superlative ("most", "highest") implies a competitive list, so it
//     forces the plural default even when the phrasing is singular.
//   - Singular phrasing without a superlative collapses to one row.
//   - Otherwise: show DefaultDisplayLimit, fetch DefaultFetchLimit.
func ResolveLimit(explicit int, singular, superlative bool) LimitPolicy {
	switch {
	case explicit > 0:
		return LimitPolicy{Display: explicit, Fetch: explicit}
	case superlative:
		return LimitPolicy{Display: DefaultDisplayLimit, Fetch: DefaultFetchLimit}
	case singular:
		return LimitPolicy{Display: 1, Fetch: 1}
	default:
		return LimitPolicy{Display: DefaultDisplayLimit, Fetch: DefaultFetchLimit}
	}
}
