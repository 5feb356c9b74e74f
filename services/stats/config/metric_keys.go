// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "fmt"

// =============================================================================
// Metric Key Enum
// =============================================================================

// MetricKey identifies a canonical club statistic. The set is closed: every
// key the vocabulary file may use appears below, and downstream switches over
// MetricKey are expected to be exhaustive.
type MetricKey string

const (
	MetricAppearances        MetricKey = "appearances"
	MetricGoals              MetricKey = "goals"
	MetricAssists            MetricKey = "assists"
	MetricGoalInvolvements   MetricKey = "goal_involvements"
	MetricManOfTheMatch      MetricKey = "man_of_the_match"
	MetricYellowCards        MetricKey = "yellow_cards"
	MetricRedCards           MetricKey = "red_cards"
	MetricOwnGoals           MetricKey = "own_goals"
	MetricPenaltiesScored    MetricKey = "penalties_scored"
	MetricPenaltiesMissed    MetricKey = "penalties_missed"
	MetricPenaltyConversion  MetricKey = "penalty_conversion"
	MetricCleanSheets        MetricKey = "clean_sheets"
	MetricMinutes            MetricKey = "minutes"
	MetricGoalsPerGame       MetricKey = "goals_per_game"
	MetricAssistsPerGame     MetricKey = "assists_per_game"
	MetricMinutesPerGame     MetricKey = "minutes_per_game"
	MetricFantasyPoints      MetricKey = "fantasy_points"
	MetricCaptainAppearances MetricKey = "captain_appearances"
	MetricPlayerOfTheMonth   MetricKey = "player_of_the_month"
	MetricTeamOfTheWeek      MetricKey = "team_of_the_week"
)

// allMetricKeys is the authoritative key set used for validation.
var allMetricKeys = map[MetricKey]bool{
	MetricAppearances:        true,
	MetricGoals:              true,
	MetricAssists:            true,
	MetricGoalInvolvements:   true,
	MetricManOfTheMatch:      true,
	MetricYellowCards:        true,
	MetricRedCards:           true,
	MetricOwnGoals:           true,
	MetricPenaltiesScored:    true,
	MetricPenaltiesMissed:    true,
	MetricPenaltyConversion:  true,
	MetricCleanSheets:        true,
	MetricMinutes:            true,
	MetricGoalsPerGame:       true,
	MetricAssistsPerGame:     true,
	MetricMinutesPerGame:     true,
	MetricFantasyPoints:      true,
	MetricCaptainAppearances: true,
	MetricPlayerOfTheMonth:   true,
	MetricTeamOfTheWeek:      true,
}

// String returns the wire form of the key.
func (k MetricKey) String() string {
	return string(k)
}

// IsValid reports whether k is a known canonical metric.
func (k MetricKey) IsValid() bool {
	return allMetricKeys[k]
}

// IsAward reports whether k is resolved from the club honours tables rather
// than per-match statistics.
func (k MetricKey) IsAward() bool {
	return k == MetricPlayerOfTheMonth || k == MetricTeamOfTheWeek
}

// PerAppearanceBase returns the counting metric a per-appearance ratio is
// derived from, or "" when k is not a per-appearance metric.
func (k MetricKey) PerAppearanceBase() MetricKey {
	switch k {
	case MetricGoalsPerGame:
		return MetricGoals
	case MetricAssistsPerGame:
		return MetricAssists
	case MetricMinutesPerGame:
		return MetricMinutes
	default:
		return ""
	}
}

// IsDerived reports whether k is computed from other metrics instead of being
// aggregated directly (conversion rates and per-appearance ratios).
func (k MetricKey) IsDerived() bool {
	return k == MetricPenaltyConversion || k.PerAppearanceBase() != ""
}

// perAppearanceForBase is the inverse of PerAppearanceBase.
var perAppearanceForBase = map[MetricKey]MetricKey{
	MetricGoals:   MetricGoalsPerGame,
	MetricAssists: MetricAssistsPerGame,
	MetricMinutes: MetricMinutesPerGame,
}

// PerAppearanceForm returns the per-appearance derivative of a counting
// metric, or "" when none exists. Used by the resolver's appearance guard:
// "goals per appearance" is only meaningful because goals has a derived form.
func PerAppearanceForm(base MetricKey) MetricKey {
	return perAppearanceForBase[base]
}

// ParseMetricKey converts a raw string into a MetricKey.
func ParseMetricKey(raw string) (MetricKey, error) {
	k := MetricKey(raw)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown metric key %q", raw)
	}
	return k, nil
}
