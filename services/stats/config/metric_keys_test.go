// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import "testing"

func TestMetricKey_Classification(t *testing.T) {
	t.Run("awards", func(t *testing.T) {
		if !MetricPlayerOfTheMonth.IsAward() {
			t.Error("player_of_the_month should be an award metric")
		}
		if !MetricTeamOfTheWeek.IsAward() {
			t.Error("team_of_the_week should be an award metric")
		}
		if MetricGoals.IsAward() {
			t.Error("goals is not an award metric")
		}
	})

	t.Run("per-appearance bases", func(t *testing.T) {
		cases := []struct {
			derived MetricKey
			base    MetricKey
		}{
			{MetricGoalsPerGame, MetricGoals},
			{MetricAssistsPerGame, MetricAssists},
			{MetricMinutesPerGame, MetricMinutes},
		}
		for _, tc := range cases {
			if got := tc.derived.PerAppearanceBase(); got != tc.base {
				t.Errorf("%s.PerAppearanceBase() = %q, want %q", tc.derived, got, tc.base)
			}
			if got := PerAppearanceForm(tc.base); got != tc.derived {
				t.Errorf("PerAppearanceForm(%s) = %q, want %q", tc.base, got, tc.derived)
			}
		}
		if got := MetricGoals.PerAppearanceBase(); got != "" {
			t.Errorf("goals.PerAppearanceBase() = %q, want empty", got)
		}
		if got := PerAppearanceForm(MetricYellowCards); got != "" {
			t.Errorf("PerAppearanceForm(yellow_cards) = %q, want empty", got)
		}
	})

	t.Run("derived set", func(t *testing.T) {
		derived := []MetricKey{MetricPenaltyConversion, MetricGoalsPerGame, MetricAssistsPerGame, MetricMinutesPerGame}
		for _, k := range derived {
			if !k.IsDerived() {
				t.Errorf("%s should be derived", k)
			}
		}
		plain := []MetricKey{MetricGoals, MetricAppearances, MetricManOfTheMatch, MetricPenaltiesScored}
		for _, k := range plain {
			if k.IsDerived() {
				t.Errorf("%s should not be derived", k)
			}
		}
	})
}

func TestParseMetricKey(t *testing.T) {
	if k, err := ParseMetricKey("goals"); err != nil || k != MetricGoals {
		t.Errorf("ParseMetricKey(goals) = %q, %v", k, err)
	}
	if _, err := ParseMetricKey("dribbles"); err == nil {
		t.Error("ParseMetricKey(dribbles) should fail")
	}
	if _, err := ParseMetricKey(""); err == nil {
		t.Error("ParseMetricKey(\"\") should fail")
	}
}
