// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"testing"
)

// =============================================================================
// Test Helpers
// =============================================================================

func makeTestMatcher(t *testing.T, pairs []Pair) *Matcher {
	t.Helper()
	m, err := NewMatcher(pairs)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	return m
}

func tokensOf(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Token)
	}
	return out
}

// =============================================================================
// Compilation
// =============================================================================

func TestNewMatcher_Validation(t *testing.T) {
	t.Run("blank phrase is rejected", func(t *testing.T) {
		_, err := NewMatcher([]Pair{{Phrase: "  ", Token: "goals"}})
		if err == nil {
			t.Fatal("expected error for blank phrase")
		}
	})

	t.Run("invalid deliberate pattern is rejected", func(t *testing.T) {
		_, err := NewMatcher([]Pair{{Phrase: `top.*scorer[`, Token: "goals"}})
		if err == nil {
			t.Fatal("expected error for malformed pattern")
		}
	})

	t.Run("empty pair list compiles", func(t *testing.T) {
		m := makeTestMatcher(t, nil)
		if got := m.Scan("anything at all"); len(got) != 0 {
			t.Errorf("empty matcher produced matches: %v", got)
		}
	})
}

func TestIsDeliberatePattern(t *testing.T) {
	tests := []struct {
		phrase string
		want   bool
	}{
		{"goals", false},
		{"top scorer", false},
		{`top.*scorer`, true},
		{`\d+ goals`, true},
		{"g+a", false},
	}
	for _, tt := range tests {
		if got := IsDeliberatePattern(tt.phrase); got != tt.want {
			t.Errorf("IsDeliberatePattern(%q) = %v, want %v", tt.phrase, got, tt.want)
		}
	}
}

// =============================================================================
// Literal Matching
// =============================================================================

func TestMatcher_LongestPhraseWins(t *testing.T) {
	m := makeTestMatcher(t, []Pair{
		{Phrase: "goals", Token: "goals"},
		{Phrase: "goals per game", Token: "goals_per_game"},
	})

	matches := m.Scan("what are my goals per game this season")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(matches), matches)
	}
	if matches[0].Token != "goals_per_game" {
		t.Errorf("expected longest phrase to win, got token %q", matches[0].Token)
	}
	if matches[0].Text != "goals per game" {
		t.Errorf("match text = %q, want %q", matches[0].Text, "goals per game")
	}
}

func TestMatcher_SingleWordBoundary(t *testing.T) {
	m := makeTestMatcher(t, []Pair{
		{Phrase: "app", Token: "appearances"},
	})

	t.Run("no match inside a longer word", func(t *testing.T) {
		if got := m.Scan("the ball wrapped around the post"); len(got) != 0 {
			t.Errorf("matched inside a word: %v", got)
		}
	})

	t.Run("matches a standalone word", func(t *testing.T) {
		got := m.Scan("how many app for the 3s")
		if len(got) != 1 || got[0].Token != "appearances" {
			t.Fatalf("expected one appearances match, got %v", got)
		}
	})

	t.Run("matches at string edges", func(t *testing.T) {
		got := m.Scan("app")
		if len(got) != 1 {
			t.Fatalf("expected match at string edges, got %v", got)
		}
		if got[0].Start != 0 || got[0].End != 3 {
			t.Errorf("span = [%d,%d), want [0,3)", got[0].Start, got[0].End)
		}
	})
}

func TestMatcher_CaseInsensitivePreservesText(t *testing.T) {
	m := makeTestMatcher(t, []Pair{
		{Phrase: "clean sheets", Token: "clean_sheets"},
	})

	matches := m.Scan("How many Clean Sheets does Tom have?")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %v", matches)
	}
	got := matches[0]
	if got.Text != "Clean Sheets" {
		t.Errorf("Text = %q, want original casing %q", got.Text, "Clean Sheets")
	}
	if got.Start != 9 || got.End != 21 {
		t.Errorf("span = [%d,%d), want [9,21)", got.Start, got.End)
	}
}

func TestMatcher_ClaimedSpanSuppresssesOverlaps(t *testing.T) {
	m := makeTestMatcher(t, []Pair{
		{Phrase: "penalties scored", Token: "penalties_scored"},
		{Phrase: "penalties", Token: "penalties_scored"},
		{Phrase: "scored", Token: "goals"},
	})

	matches := m.Scan("penalties scored at home")
	if len(matches) != 1 {
		t.Fatalf("expected the long phrase to suppress both shorter ones, got %v", tokensOf(matches))
	}
	if matches[0].Phrase != "penalties scored" {
		t.Errorf("winning phrase = %q, want %q", matches[0].Phrase, "penalties scored")
	}
}

func TestMatcher_MultipleDisjointMatches(t *testing.T) {
	m := makeTestMatcher(t, []Pair{
		{Phrase: "goals", Token: "goals"},
		{Phrase: "assists", Token: "assists"},
	})

	matches := m.Scan("goals and assists and more goals")
	want := []string{"goals", "assists", "goals"}
	got := tokensOf(matches)
	if len(got) != len(want) {
		t.Fatalf("match tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// Ordered by start offset.
	for i := 1; i < len(matches); i++ {
		if matches[i].Start < matches[i-1].End {
			t.Errorf("matches out of order or overlapping: %v", matches)
		}
	}
}

// =============================================================================
// Deliberate Patterns
// =============================================================================

func TestMatcher_DeliberatePattern(t *testing.T) {
	m := makeTestMatcher(t, []Pair{
		{Phrase: `top.*scorer`, Token: "goals"},
		{Phrase: "top", Token: "highest"},
	})

	t.Run("pattern spans intervening words", func(t *testing.T) {
		matches := m.Scan("who is the top goal scorer")
		if len(matches) != 1 {
			t.Fatalf("expected 1 match, got %v", tokensOf(matches))
		}
		if matches[0].Token != "goals" {
			t.Errorf("token = %q, want goals", matches[0].Token)
		}
		if matches[0].Text != "top goal scorer" {
			t.Errorf("text = %q, want %q", matches[0].Text, "top goal scorer")
		}
	})

	t.Run("pattern claim suppresses literal inside it", func(t *testing.T) {
		matches := m.Scan("top scorer this year")
		if len(matches) != 1 || matches[0].Token != "goals" {
			t.Fatalf("pattern should have claimed the span: %v", tokensOf(matches))
		}
	})

	t.Run("literal still fires when pattern absent", func(t *testing.T) {
		matches := m.Scan("top assisters this year")
		if len(matches) != 1 || matches[0].Token != "highest" {
			t.Fatalf("expected bare literal match, got %v", tokensOf(matches))
		}
	})
}

// =============================================================================
// Span Tracking
// =============================================================================

func TestSpanSet_Overlaps(t *testing.T) {
	var s spanSet
	s.add(5, 10)
	s.add(20, 25)

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"inside first", 6, 9, true},
		{"exact first", 5, 10, true},
		{"straddles start", 3, 6, true},
		{"straddles end", 9, 12, true},
		{"adjacent before", 0, 5, false},
		{"adjacent after", 10, 20, false},
		{"between spans", 11, 19, false},
		{"covers everything", 0, 30, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("overlaps(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestAsciiLower(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Goals Per Game", "goals per game"},
		{"already lower", "already lower"},
		{"MiXeD 123 CaSe!", "mixed 123 case!"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := asciiLower(tt.in); got != tt.want {
			t.Errorf("asciiLower(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	// Byte length is preserved so offsets stay valid.
	in := "Übung Goals"
	if got := asciiLower(in); len(got) != len(in) {
		t.Errorf("asciiLower changed byte length: %d != %d", len(asciiLower(in)), len(in))
	}
}
