// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve maps extracted free text onto canonical names: metric
// pseudonyms onto metric keys, and player/opposition/league mentions onto
// the names the graph actually stores. Matching is exact first, then
// edit-distance similarity with a fixed acceptance threshold; below the
// threshold a term resolves to nothing, which is an outcome, not an error.
package resolve

// SimilarityThreshold is the minimum similarity an inexact candidate needs.
const SimilarityThreshold = 0.7

// editDistance calculates the Levenshtein distance between two strings
// using two rolling rows.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Similarity scores two strings on [0, 1] against the longer one:
// (len(longer) − editDistance) / len(longer). Two empty strings score 1.
// Comparison is byte-wise; callers lowercase before scoring.
func Similarity(a, b string) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}
	return float64(longer-editDistance(a, b)) / float64(longer)
}
