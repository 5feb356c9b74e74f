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
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var statementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stats",
	Subsystem: "query",
	Name:      "statements_total",
	Help:      "Statements synthesized by shape",
}, []string{"shape"})

// =============================================================================
// Shared Fragments
// =============================================================================

const (
	matchPlayerFixtures = "MATCH (p:Player {name: $player})-[s:PLAYED_IN]->(f:Fixture)\n"
	matchAllFixtures    = "MATCH (p:Player)-[s:PLAYED_IN]->(f:Fixture)\n"

	conversionSums = "sum(coalesce(s.penaltiesScored, 0)) AS scored, " +
		"sum(coalesce(s.penaltiesMissed, 0)) AS missed"
	conversionRatio = "CASE WHEN scored + missed = 0 THEN NULL " +
		"ELSE toFloat(scored) / (scored + missed) END"
	perAppearanceRatio = "CASE WHEN appearances = 0 THEN 0.0 " +
		"ELSE toFloat(total) / appearances END"
)

var teamCodePattern = regexp.MustCompile(`^[1-8]s$`)

// validateTeam rejects non-canonical squad codes before they bind.
func validateTeam(team string) error {
	if team == "" || teamCodePattern.MatchString(team) {
		return nil
	}
	return fmt.Errorf("team %q is not a canonical squad code", team)
}

// orderClause renders the ranking order: value direction from the question,
// appearances always descending (bigger samples win ties).
func orderClause(ascending bool) string {
	if ascending {
		return "ORDER BY value ASC, appearances DESC\n"
	}
	return "ORDER BY value DESC, appearances DESC\n"
}

// =============================================================================
// Rank Options
// =============================================================================

// RankOptions tune a ranking statement.
type RankOptions struct {
	// Ascending orders the value ascending ("worst", "lowest").
	// Appearances stay descending either way.
	Ascending bool

	// FetchLimit is the row count to fetch (from ResolveLimit).
	FetchLimit int

	// MinAppearances, when positive, filters subjects with a strict
	// `appearances > $minAppearances` in the stage after the ratio, so the
	// threshold never biases the aggregation itself.
	MinAppearances int
}

func (o RankOptions) fetchLimit() int {
	if o.FetchLimit > 0 {
		return o.FetchLimit
	}
	return DefaultFetchLimit
}

// =============================================================================
// Player Metric
// =============================================================================

// PlayerMetric aggregates one metric for one player. Derived metrics get
// their ratio shapes; award metrics count the player's honours.
func PlayerMetric(player string, metric config.MetricKey, filters Filters) (Statement, error) {
	if err := validateTeam(filters.Team); err != nil {
		return Statement{}, err
	}
	params := map[string]any{"player": player}

	switch {
	case metric.IsAward():
		return playerAward(player, metric, filters)

	case metric == config.MetricPenaltyConversion:
		var b strings.Builder
		b.WriteString(matchPlayerFixtures)
		b.WriteString(filters.whereClause("f", params))
		b.WriteString("WITH " + conversionSums + "\n")
		b.WriteString("RETURN " + conversionRatio + " AS value\n")
		statementsTotal.WithLabelValues("player_conversion").Inc()
		return Statement{Text: b.String(), Params: params}, nil

	case metric.PerAppearanceBase() != "":
		numerator, err := numeratorFor(metric)
		if err != nil {
			return Statement{}, err
		}
		var b strings.Builder
		b.WriteString(matchPlayerFixtures)
		b.WriteString(filters.whereClause("f", params))
		b.WriteString("WITH " + numerator + " AS total, count(f) AS appearances\n")
		b.WriteString("RETURN " + perAppearanceRatio + " AS value, appearances\n")
		statementsTotal.WithLabelValues("player_per_appearance").Inc()
		return Statement{Text: b.String(), Params: params}, nil

	default:
		agg, err := AggregationFor(metric)
		if err != nil {
			return Statement{}, err
		}
		var b strings.Builder
		b.WriteString(matchPlayerFixtures)
		b.WriteString(filters.whereClause("f", params))
		b.WriteString("RETURN " + agg + " AS value\n")
		statementsTotal.WithLabelValues("player_metric").Inc()
		return Statement{Text: b.String(), Params: params}, nil
	}
}

// playerAward counts one player's honours of one award type.
func playerAward(player string, metric config.MetricKey, filters Filters) (Statement, error) {
	awardType, err := awardTypeFor(metric)
	if err != nil {
		return Statement{}, err
	}
	params := map[string]any{"player": player, "awardType": awardType}

	var b strings.Builder
	b.WriteString("MATCH (p:Player {name: $player})-[:WON]->(a:Award {type: $awardType})\n")
	if filters.Season != "" {
		b.WriteString("WHERE a.season = $season\n")
		params["season"] = filters.Season
	}
	b.WriteString("RETURN count(a) AS value\n")
	statementsTotal.WithLabelValues("player_award").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// =============================================================================
// Ranking
// =============================================================================

// Ranking groups fixtures per player, computes the metric and an
// appearances tie-break, orders, and limits. Derived metrics switch to
// their ratio shapes; award metrics rank honour counts.
func Ranking(metric config.MetricKey, filters Filters, opts RankOptions) (Statement, error) {
	if err := validateTeam(filters.Team); err != nil {
		return Statement{}, err
	}
	if metric.IsAward() {
		return HonoursCount(metric, filters, opts)
	}

	params := map[string]any{"limit": opts.fetchLimit()}

	switch {
	case metric == config.MetricPenaltyConversion:
		var b strings.Builder
		b.WriteString(matchAllFixtures)
		b.WriteString(filters.whereClause("f", params))
		b.WriteString("WITH p, " + conversionSums + ", count(f) AS appearances\n")
		b.WriteString("WITH p, " + conversionRatio + " AS value, appearances\n")
		// IS NOT NULL keeps 0% records: a player who missed every penalty
		// is a real answer, a player who never took one is not.
		b.WriteString("WHERE value IS NOT NULL\n")
		b.WriteString("RETURN p.name AS player, value, appearances\n")
		b.WriteString(orderClause(opts.Ascending))
		b.WriteString("LIMIT $limit\n")
		statementsTotal.WithLabelValues("ranking_conversion").Inc()
		return Statement{Text: b.String(), Params: params}, nil

	case metric.PerAppearanceBase() != "":
		numerator, err := numeratorFor(metric)
		if err != nil {
			return Statement{}, err
		}
		var b strings.Builder
		b.WriteString(matchAllFixtures)
		b.WriteString(filters.whereClause("f", params))
		b.WriteString("WITH p, " + numerator + " AS total, count(f) AS appearances\n")
		b.WriteString("WITH p, " + perAppearanceRatio + " AS value, appearances\n")
		if opts.MinAppearances > 0 {
			b.WriteString("WHERE appearances > $minAppearances\n")
			params["minAppearances"] = opts.MinAppearances
		}
		b.WriteString("RETURN p.name AS player, value, appearances\n")
		b.WriteString(orderClause(opts.Ascending))
		b.WriteString("LIMIT $limit\n")
		statementsTotal.WithLabelValues("ranking_per_appearance").Inc()
		return Statement{Text: b.String(), Params: params}, nil

	default:
		agg, err := AggregationFor(metric)
		if err != nil {
			return Statement{}, err
		}
		var b strings.Builder
		b.WriteString(matchAllFixtures)
		b.WriteString(filters.whereClause("f", params))
		b.WriteString("WITH p, " + agg + " AS value, count(f) AS appearances\n")
		b.WriteString("RETURN p.name AS player, value, appearances\n")
		b.WriteString(orderClause(opts.Ascending))
		b.WriteString("LIMIT $limit\n")
		statementsTotal.WithLabelValues("ranking").Inc()
		return Statement{Text: b.String(), Params: params}, nil
	}
}

// teamAggregations is the small metric table for team-subject statements:
// fixture counts and team score totals are the only metrics stored at
// fixture level.
var teamAggregations = map[config.MetricKey]string{
	config.MetricAppearances: "count(f)",
	config.MetricGoals:       "sum(coalesce(f.scoreFor, 0))",
}

// TeamRanking ranks squads instead of players.
func TeamRanking(metric config.MetricKey, filters Filters, opts RankOptions) (Statement, error) {
	agg, ok := teamAggregations[metric]
	if !ok {
		return Statement{}, &UnsupportedMetricError{Metric: string(metric), Shape: "team"}
	}
	params := map[string]any{"limit": opts.fetchLimit()}

	var b strings.Builder
	b.WriteString("MATCH (f:Fixture)\n")
	b.WriteString(filters.whereClause("f", params))
	b.WriteString("WITH f.team AS team, " + agg + " AS value, count(f) AS appearances\n")
	b.WriteString("RETURN team, value, appearances\n")
	b.WriteString(orderClause(opts.Ascending))
	b.WriteString("LIMIT $limit\n")
	statementsTotal.WithLabelValues("team_ranking").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// =============================================================================
// Relationships
// =============================================================================

// Pairwise counts the distinct fixtures two players shared.
func Pairwise(playerA, playerB string, filters Filters) (Statement, error) {
	if err := validateTeam(filters.Team); err != nil {
		return Statement{}, err
	}
	params := map[string]any{"playerA": playerA, "playerB": playerB}

	var b strings.Builder
	b.WriteString("MATCH (a:Player {name: $playerA})-[:PLAYED_IN]->(f:Fixture)" +
		"<-[:PLAYED_IN]-(b:Player {name: $playerB})\n")
	b.WriteString(filters.whereClause("f", params))
	b.WriteString("RETURN count(DISTINCT f) AS value\n")
	statementsTotal.WithLabelValues("pairwise").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// Teammates counts shared fixtures per teammate of one player.
func Teammates(player string, filters Filters, opts RankOptions) (Statement, error) {
	if err := validateTeam(filters.Team); err != nil {
		return Statement{}, err
	}
	params := map[string]any{"player": player, "limit": opts.fetchLimit()}

	var b strings.Builder
	b.WriteString("MATCH (p:Player {name: $player})-[:PLAYED_IN]->(f:Fixture)" +
		"<-[:PLAYED_IN]-(t:Player)\n")
	b.WriteString(filters.whereClause("f", params))
	b.WriteString("WITH t, count(DISTINCT f) AS value\n")
	b.WriteString("RETURN t.name AS teammate, value\n")
	b.WriteString("ORDER BY value DESC, teammate ASC\n")
	b.WriteString("LIMIT $limit\n")
	statementsTotal.WithLabelValues("teammates").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// OppositionSummary groups one player's fixtures by opposition.
func OppositionSummary(player string, filters Filters, opts RankOptions) (Statement, error) {
	if err := validateTeam(filters.Team); err != nil {
		return Statement{}, err
	}
	params := map[string]any{"player": player, "limit": opts.fetchLimit()}

	var b strings.Builder
	b.WriteString(matchPlayerFixtures)
	b.WriteString(filters.whereClause("f", params))
	b.WriteString("WITH f.opposition AS opposition, count(f) AS value\n")
	b.WriteString("RETURN opposition, value\n")
	b.WriteString("ORDER BY value DESC, opposition ASC\n")
	b.WriteString("LIMIT $limit\n")
	statementsTotal.WithLabelValues("opposition_summary").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// =============================================================================
// Honours
// =============================================================================

// HonoursCount ranks players by honours won of one award type.
func HonoursCount(metric config.MetricKey, filters Filters, opts RankOptions) (Statement, error) {
	awardType, err := awardTypeFor(metric)
	if err != nil {
		return Statement{}, err
	}
	params := map[string]any{"awardType": awardType, "limit": opts.fetchLimit()}

	var b strings.Builder
	b.WriteString("MATCH (p:Player)-[:WON]->(a:Award {type: $awardType})\n")
	if filters.Season != "" {
		b.WriteString("WHERE a.season = $season\n")
		params["season"] = filters.Season
	}
	b.WriteString("WITH p, count(a) AS value\n")
	b.WriteString("RETURN p.name AS player, value\n")
	b.WriteString("ORDER BY value DESC, player ASC\n")
	b.WriteString("LIMIT $limit\n")
	statementsTotal.WithLabelValues("honours_count").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// HonoursRecent lists the most recent honours of one award type.
func HonoursRecent(metric config.MetricKey, opts RankOptions) (Statement, error) {
	awardType, err := awardTypeFor(metric)
	if err != nil {
		return Statement{}, err
	}
	params := map[string]any{"awardType": awardType, "limit": opts.fetchLimit()}

	var b strings.Builder
	b.WriteString("MATCH (p:Player)-[:WON]->(a:Award {type: $awardType})\n")
	b.WriteString("RETURN p.name AS player, a.season AS season, a.month AS month\n")
	b.WriteString("ORDER BY a.season DESC, a.month DESC\n")
	b.WriteString("LIMIT $limit\n")
	statementsTotal.WithLabelValues("honours_recent").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// =============================================================================
// Team and Club Aggregates
// =============================================================================

// TeamAggregate counts one squad's fixtures under the given filters. The
// team code must already be canonical ("1s".."8s").
func TeamAggregate(team string, metric config.MetricKey, filters Filters) (Statement, error) {
	if team == "" {
		return Statement{}, fmt.Errorf("team aggregate requires a squad code")
	}
	if err := validateTeam(team); err != nil {
		return Statement{}, err
	}
	agg, ok := teamAggregations[metric]
	if !ok {
		return Statement{}, &UnsupportedMetricError{Metric: string(metric), Shape: "team"}
	}

	filters.Team = "" // bound explicitly below, not via the filter block
	params := map[string]any{"team": team}

	var b strings.Builder
	b.WriteString("MATCH (f:Fixture)\n")
	b.WriteString(filters.whereClause("f", params, "f.team = $team"))
	b.WriteString("RETURN " + agg + " AS value\n")
	statementsTotal.WithLabelValues("team_aggregate").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// OppositionOwnGoals sums own goals conceded by opponents in the club's
// favour. Fixture-level: the scorers are not club players.
func OppositionOwnGoals(filters Filters) (Statement, error) {
	if err := validateTeam(filters.Team); err != nil {
		return Statement{}, err
	}
	params := map[string]any{}

	var b strings.Builder
	b.WriteString("MATCH (f:Fixture)\n")
	b.WriteString(filters.whereClause("f", params))
	b.WriteString("RETURN sum(coalesce(f.oppositionOwnGoals, 0)) AS value\n")
	statementsTotal.WithLabelValues("opposition_own_goals").Inc()
	return Statement{Text: b.String(), Params: params}, nil
}

// NoContext is the bounded fallback listing when a question resolves
// nothing: the most-fielded players.
func NoContext(limit int) Statement {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	params := map[string]any{"limit": limit}

	var b strings.Builder
	b.WriteString(matchAllFixtures)
	b.WriteString("WITH p, count(f) AS appearances\n")
	b.WriteString("RETURN p.name AS player, appearances\n")
	b.WriteString("ORDER BY appearances DESC, player ASC\n")
	b.WriteString("LIMIT $limit\n")
	statementsTotal.WithLabelValues("no_context").Inc()
	return Statement{Text: b.String(), Params: params}
}
