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
	"time"
)

// =============================================================================
// Filters
// =============================================================================

// Filters holds the optional fixture predicates a question can bind. Every
// field is independently optional; zero values mean "no constraint". The
// clause order in the generated WHERE is fixed, so an identical question
// always produces identical statement text.
type Filters struct {
	// Team is the canonical squad code ("1s".."8s").
	Team string

	// Season is a canonical season ("2021/22").
	Season string

	// BeforeSeason keeps fixtures from seasons strictly before this one.
	// Canonical season strings order lexicographically.
	BeforeSeason string

	// SinceYear keeps fixtures on or after January 1st of this year.
	SinceYear int

	// FromYear/ToYear bound fixtures to calendar years inclusively.
	FromYear int
	ToYear   int

	// Month and MonthYear restrict to one calendar month.
	Month     time.Month
	MonthYear int

	// Location is "home" or "away".
	Location string

	// CompetitionType is "league", "cup", or "friendly".
	CompetitionType string

	// Competition is a full competition name ("AFA Senior Cup").
	Competition string

	// Result is "win", "draw", or "loss".
	Result string

	// Opposition is a canonical opposition club name.
	Opposition string
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// clauses appends the WHERE fragments and their parameters in the fixed
// composition order. fixture is the Cypher variable bound to the fixture
// node ("f" everywhere in this package).
func (f Filters) clauses(fixture string, params map[string]any) []string {
	var out []string

	add := func(clause, name string, value any) {
		out = append(out, clause)
		params[name] = value
	}

	if f.Team != "" {
		add(fixture+".team = $team", "team", f.Team)
	}
	if f.Season != "" {
		add(fixture+".season = $season", "season", f.Season)
	}
	if f.BeforeSeason != "" {
		add(fixture+".season < $beforeSeason", "beforeSeason", f.BeforeSeason)
	}
	if f.SinceYear > 0 {
		add(fixture+".date >= $sinceDate", "sinceDate", fmt.Sprintf("%04d-01-01", f.SinceYear))
	}
	if f.FromYear > 0 && f.ToYear > 0 {
		add(fixture+".date >= $fromDate", "fromDate", fmt.Sprintf("%04d-01-01", f.FromYear))
		add(fixture+".date <= $toDate", "toDate", fmt.Sprintf("%04d-12-31", f.ToYear))
	}
	if f.Month != 0 && f.MonthYear > 0 {
		add(fixture+".date STARTS WITH $monthPrefix", "monthPrefix",
			fmt.Sprintf("%04d-%02d", f.MonthYear, int(f.Month)))
	}
	if f.Location != "" {
		add(fixture+".location = $location", "location", f.Location)
	}
	if f.CompetitionType != "" {
		add(fixture+".competitionType = $competitionType", "competitionType", f.CompetitionType)
	}
	if f.Competition != "" {
		add(fixture+".competition = $competition", "competition", f.Competition)
	}
	if f.Result != "" {
		add(fixture+".result = $result", "result", f.Result)
	}
	if f.Opposition != "" {
		add(fixture+".opposition = $opposition", "opposition", f.Opposition)
	}

	return out
}

// whereClause renders "WHERE a AND b ..." or the empty string. Extra
// clauses prepend before the filter predicates.
func (f Filters) whereClause(fixture string, params map[string]any, extra ...string) string {
	clauses := append(append([]string{}, extra...), f.clauses(fixture, params)...)
	if len(clauses) == 0 {
		return ""
	}
	joined := clauses[0]
	for _, c := range clauses[1:] {
		joined += " AND " + c
	}
	return "WHERE " + joined + "\n"
}
