// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package intent decides what shape of answer a question wants. The kinds
// form a closed set evaluated as a priority ladder: the first rule whose
// conditions hold wins, and every downstream switch over Kind is
// exhaustive.
package intent

import "fmt"

// =============================================================================
// Kind
// =============================================================================

// Kind is the question's decided shape.
type Kind string

const (
	// KindPairwise counts fixtures two players shared.
	KindPairwise Kind = "pairwise"

	// KindTeammates lists who a player has shared fixtures with.
	KindTeammates Kind = "teammates"

	// KindOppositionSummary groups a player's fixtures by opponent.
	KindOppositionSummary Kind = "opposition_summary"

	// KindHonours answers award questions (player of the month, team of
	// the week).
	KindHonours Kind = "honours"

	// KindRanking orders players (or squads) by a metric.
	KindRanking Kind = "ranking"

	// KindPlayerMetric aggregates one metric for one subject.
	KindPlayerMetric Kind = "player_metric"

	// KindNoContext is the fallback when nothing resolvable was asked.
	KindNoContext Kind = "no_context"
)

// allKinds is the closed set; ParseKind validates against it.
var allKinds = map[Kind]bool{
	KindPairwise:          true,
	KindTeammates:         true,
	KindOppositionSummary: true,
	KindHonours:           true,
	KindRanking:           true,
	KindPlayerMetric:      true,
	KindNoContext:         true,
}

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the closed set.
func (k Kind) IsValid() bool {
	return allKinds[k]
}

// ParseKind converts a wire string back into a Kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown intent kind %q", raw)
	}
	return k, nil
}
