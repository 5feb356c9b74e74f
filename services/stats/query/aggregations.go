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

import (
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
)

// =============================================================================
// Aggregation Table
// =============================================================================

// Fixture graph shape used by every statement in this package:
//
//	(p:Player {name})-[s:PLAYED_IN {goals, assists, minutes, motm,
//	    yellowCards, redCards, ownGoals, penaltiesScored, penaltiesMissed,
//	    cleanSheet, fantasyPoints, captain}]->(f:Fixture {date, season,
//	    team, opposition, location, competition, competitionType, result,
//	    oppositionOwnGoals})
//	(p:Player)-[:WON]->(a:Award {type, season, month})
//
// The aggregation table maps each directly-countable metric to its
// expression over (s, f). Derived metrics (ratios, conversion rates) and
// award metrics are not in the table: they have dedicated statement shapes,
// and asking the table for them is an UnsupportedMetricError.
var aggregationExprs = map[config.MetricKey]string{
	config.MetricAppearances:        "count(f)",
	config.MetricGoals:              "sum(coalesce(s.goals, 0))",
	config.MetricAssists:            "sum(coalesce(s.assists, 0))",
	config.MetricGoalInvolvements:   "sum(coalesce(s.goals, 0) + coalesce(s.assists, 0))",
	config.MetricManOfTheMatch:      "sum(CASE WHEN s.motm THEN 1 ELSE 0 END)",
	config.MetricYellowCards:        "sum(coalesce(s.yellowCards, 0))",
	config.MetricRedCards:           "sum(coalesce(s.redCards, 0))",
	config.MetricOwnGoals:           "sum(coalesce(s.ownGoals, 0))",
	config.MetricPenaltiesScored:    "sum(coalesce(s.penaltiesScored, 0))",
	config.MetricPenaltiesMissed:    "sum(coalesce(s.penaltiesMissed, 0))",
	config.MetricCleanSheets:        "sum(CASE WHEN s.cleanSheet THEN 1 ELSE 0 END)",
	config.MetricMinutes:            "sum(coalesce(s.minutes, 0))",
	config.MetricFantasyPoints:      "sum(coalesce(s.fantasyPoints, 0))",
	config.MetricCaptainAppearances: "sum(CASE WHEN s.captain THEN 1 ELSE 0 END)",
}

// AggregationFor returns the aggregation expression for a directly
// countable metric.
func AggregationFor(metric config.MetricKey) (string, error) {
	expr, ok := aggregationExprs[metric]
	if !ok {
		return "", &UnsupportedMetricError{Metric: string(metric), Shape: "count"}
	}
	return expr, nil
}

// SupportsDirectAggregation reports whether the metric has a table entry.
func SupportsDirectAggregation(metric config.MetricKey) bool {
	_, ok := aggregationExprs[metric]
	return ok
}

// perAppearanceNumerators maps each derived per-appearance metric to the
// aggregation of its base total.
var perAppearanceNumerators = map[config.MetricKey]string{
	config.MetricGoalsPerGame:   "sum(coalesce(s.goals, 0))",
	config.MetricAssistsPerGame: "sum(coalesce(s.assists, 0))",
	config.MetricMinutesPerGame: "sum(coalesce(s.minutes, 0))",
}

// numeratorFor returns the base-total aggregation for a per-appearance
// metric.
func numeratorFor(metric config.MetricKey) (string, error) {
	expr, ok := perAppearanceNumerators[metric]
	if !ok {
		return "", &UnsupportedMetricError{Metric: string(metric), Shape: "per-appearance"}
	}
	return expr, nil
}

// awardTypeFor maps award metrics to the stored award type value.
func awardTypeFor(metric config.MetricKey) (string, error) {
	switch metric {
	case config.MetricPlayerOfTheMonth:
		return "player_of_the_month", nil
	case config.MetricTeamOfTheWeek:
		return "team_of_the_week", nil
	default:
		return "", &UnsupportedMetricError{Metric: string(metric), Shape: "award"}
	}
}
