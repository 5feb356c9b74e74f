// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestVocabulary_EmbeddedFile(t *testing.T) {
	t.Run("YAML parses successfully", func(t *testing.T) {
		var raw Vocabulary
		if err := yaml.Unmarshal(defaultVocabularyYAML, &raw); err != nil {
			t.Fatalf("failed to parse vocabulary.yaml: %v", err)
		}
		if len(raw.Metrics) == 0 {
			t.Fatal("vocabulary.yaml defines no metrics")
		}
		t.Logf("loaded %d metrics", len(raw.Metrics))
	})

	t.Run("embedded file passes full validation", func(t *testing.T) {
		v, err := LoadVocabulary(context.Background(), defaultVocabularyYAML)
		if err != nil {
			t.Fatalf("LoadVocabulary failed: %v", err)
		}
		if v == nil {
			t.Fatal("LoadVocabulary returned nil vocabulary")
		}
	})

	t.Run("core metrics are present", func(t *testing.T) {
		v, err := LoadVocabulary(context.Background(), defaultVocabularyYAML)
		if err != nil {
			t.Fatalf("LoadVocabulary failed: %v", err)
		}

		required := []MetricKey{
			MetricAppearances,
			MetricGoals,
			MetricAssists,
			MetricManOfTheMatch,
			MetricPenaltiesScored,
			MetricPenaltiesMissed,
			MetricPenaltyConversion,
			MetricGoalsPerGame,
		}
		for _, key := range required {
			if _, ok := v.MetricByKey(key); !ok {
				t.Errorf("missing required metric %q", key)
			}
		}
	})

	t.Run("every defined key is a known MetricKey", func(t *testing.T) {
		v, err := LoadVocabulary(context.Background(), defaultVocabularyYAML)
		if err != nil {
			t.Fatalf("LoadVocabulary failed: %v", err)
		}
		for _, m := range v.Metrics {
			if !m.Key.IsValid() {
				t.Errorf("metric %q is not a declared MetricKey constant", m.Key)
			}
		}
	})
}

func TestVocabulary_AliasOrdering(t *testing.T) {
	v, err := LoadVocabulary(context.Background(), defaultVocabularyYAML)
	if err != nil {
		t.Fatalf("LoadVocabulary failed: %v", err)
	}

	t.Run("aliases are sorted longest first", func(t *testing.T) {
		aliases := v.AliasesLongestFirst()
		for i := 1; i < len(aliases); i++ {
			if len(aliases[i].Alias) > len(aliases[i-1].Alias) {
				t.Fatalf("alias %q (len %d) sorted after shorter %q (len %d)",
					aliases[i].Alias, len(aliases[i].Alias),
					aliases[i-1].Alias, len(aliases[i-1].Alias))
			}
		}
	})

	t.Run("containing alias precedes contained alias", func(t *testing.T) {
		// When one pseudonym contains another, the longer one must sort
		// first so it wins the tie at match time.
		pairs := [][2]string{
			{"goals per game", "goals"},
			{"penalties scored", "penalties"},
			{"man of the match", "motm"},
			{"away from home", "home"},
		}
		aliases := v.AliasesLongestFirst()
		pos := make(map[string]int, len(aliases))
		for i, a := range aliases {
			pos[a.Alias] = i
		}
		for _, pair := range pairs {
			longer, shorter := pair[0], pair[1]
			li, lok := pos[longer]
			si, sok := pos[shorter]
			if !lok {
				// Location phrases live in their own table, not the
				// metric alias list.
				continue
			}
			if !sok {
				continue
			}
			if li >= si {
				t.Errorf("%q (index %d) should precede %q (index %d)", longer, li, shorter, si)
			}
		}
	})
}

func TestVocabulary_AliasResolution(t *testing.T) {
	v, err := LoadVocabulary(context.Background(), defaultVocabularyYAML)
	if err != nil {
		t.Fatalf("LoadVocabulary failed: %v", err)
	}

	cases := []struct {
		alias string
		want  MetricKey
	}{
		{"goals", MetricGoals},
		{"GOALS", MetricGoals},
		{"  Apps  ", MetricAppearances},
		{"motm", MetricManOfTheMatch},
		{"pen record", MetricPenaltyConversion},
		{"g+a", MetricGoalInvolvements},
		{"skipper", MetricCaptainAppearances},
		{"totw", MetricTeamOfTheWeek},
	}
	for _, tc := range cases {
		got, ok := v.MetricForAlias(tc.alias)
		if !ok {
			t.Errorf("MetricForAlias(%q): no match, want %q", tc.alias, tc.want)
			continue
		}
		if got != tc.want {
			t.Errorf("MetricForAlias(%q) = %q, want %q", tc.alias, got, tc.want)
		}
	}

	if _, ok := v.MetricForAlias("tackles"); ok {
		t.Error("MetricForAlias(\"tackles\") matched; the club does not track tackles")
	}
}

func TestLoadVocabulary_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name:    "empty data",
			yaml:    "",
			wantSub: "empty YAML",
		},
		{
			name: "unknown metric key",
			yaml: `
metrics:
  - key: dribbles
    label: D
    statement: dribbles
    unit: count
    aliases: [dribbles]
`,
			wantSub: "unknown key",
		},
		{
			name: "alias claimed twice",
			yaml: `
metrics:
  - key: goals
    label: G
    statement: goals scored
    unit: count
    aliases: [goals, finishes]
  - key: assists
    label: A
    statement: assists
    unit: count
    aliases: [assists, finishes]
`,
			wantSub: "claimed by both",
		},
		{
			name: "empty alias list",
			yaml: `
metrics:
  - key: goals
    label: G
    statement: goals scored
    unit: count
    aliases: []
`,
			wantSub: "must not be empty",
		},
		{
			name: "bad unit",
			yaml: `
metrics:
  - key: goals
    label: G
    statement: goals scored
    unit: furlongs
    aliases: [goals]
`,
			wantSub: "invalid unit",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadVocabulary(context.Background(), []byte(tc.yaml))
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantSub)
			}
		})
	}
}

func TestGetVocabulary_Caching(t *testing.T) {
	ResetVocabulary()
	t.Cleanup(ResetVocabulary)

	first, err := GetVocabulary(context.Background())
	if err != nil {
		t.Fatalf("first GetVocabulary failed: %v", err)
	}
	second, err := GetVocabulary(context.Background())
	if err != nil {
		t.Fatalf("second GetVocabulary failed: %v", err)
	}
	if first != second {
		t.Error("GetVocabulary returned different instances; expected cached singleton")
	}

	if _, err := GetVocabulary(nil); err == nil { //nolint:staticcheck // nil ctx rejection is the contract
		t.Error("GetVocabulary(nil) should fail")
	}
}

func TestVocabulary_DisplayForms(t *testing.T) {
	v, err := LoadVocabulary(context.Background(), defaultVocabularyYAML)
	if err != nil {
		t.Fatalf("LoadVocabulary failed: %v", err)
	}

	if got := v.DisplayLabel(MetricGoals); got != "G" {
		t.Errorf("DisplayLabel(goals) = %q, want G", got)
	}
	if got := v.DisplayStatement(MetricPenaltyConversion); got != "penalty conversion rate" {
		t.Errorf("DisplayStatement(penalty_conversion) = %q", got)
	}
	// Unknown keys fall back to the raw key so rendering never breaks.
	if got := v.DisplayLabel(MetricKey("mystery")); got != "mystery" {
		t.Errorf("DisplayLabel(mystery) = %q, want raw key fallback", got)
	}
}
