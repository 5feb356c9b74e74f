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
	"context"
	"testing"
	"time"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
)

// =============================================================================
// Test Helpers
// =============================================================================

func makeFrameScanner(t *testing.T) (*frameScanner, *Matcher) {
	t.Helper()
	vocab := config.MustVocabulary(context.Background())
	relative, err := NewMatcher(tablePairs(vocab.TimeFrameTable()))
	if err != nil {
		t.Fatalf("compiling relative matcher: %v", err)
	}
	return newFrameScanner(), relative
}

func scanFrames(t *testing.T, question string) []TimeFrame {
	t.Helper()
	s, relative := makeFrameScanner(t)
	return s.scan(question, relative)
}

func requireOneFrame(t *testing.T, question string) TimeFrame {
	t.Helper()
	frames := scanFrames(t, question)
	if len(frames) != 1 {
		t.Fatalf("frames for %q = %+v, want exactly one", question, frames)
	}
	return frames[0]
}

// =============================================================================
// Individual Shapes
// =============================================================================

func TestFrameScanner_BeforeSeason(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"How many goals before 2021/22?", "2021/22"},
		{"Appearances before the 2018/19 season", "2018/19"},
		{"Goals before 2020", "2020/21"},
		{"Apps before 98/99", "1998/99"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			frame := requireOneFrame(t, tt.question)
			if frame.Kind != FrameBefore {
				t.Fatalf("kind = %q, want before", frame.Kind)
			}
			if frame.Season != tt.want {
				t.Errorf("season = %q, want %q", frame.Season, tt.want)
			}
		})
	}
}

func TestFrameScanner_BeforeConsumesTheSeason(t *testing.T) {
	frames := scanFrames(t, "What was my record before 2021/22?")
	if len(frames) != 1 {
		t.Fatalf("expected one frame, got %+v", frames)
	}
	if frames[0].Kind != FrameBefore {
		t.Errorf("kind = %q, want before", frames[0].Kind)
	}
	// The bare-season shape must not re-report "2021/22" inside the
	// consumed span.
	for _, f := range frames {
		if f.Kind == FrameSeason {
			t.Errorf("season frame double-reported inside before span: %+v", f)
		}
	}
}

func TestFrameScanner_SinceYear(t *testing.T) {
	frame := requireOneFrame(t, "How many assists since 2019?")
	if frame.Kind != FrameSince {
		t.Fatalf("kind = %q, want since", frame.Kind)
	}
	if frame.Year != 2019 {
		t.Errorf("year = %d, want 2019", frame.Year)
	}
}

func TestFrameScanner_BetweenYears(t *testing.T) {
	t.Run("ordered bounds", func(t *testing.T) {
		frame := requireOneFrame(t, "Goals between 2018 and 2021")
		if frame.Kind != FrameBetween || frame.FromYear != 2018 || frame.ToYear != 2021 {
			t.Errorf("frame = %+v, want between 2018..2021", frame)
		}
	})

	t.Run("reversed bounds are normalized", func(t *testing.T) {
		frame := requireOneFrame(t, "Goals between 2021 and 2018")
		if frame.FromYear != 2018 || frame.ToYear != 2021 {
			t.Errorf("bounds = %d..%d, want 2018..2021", frame.FromYear, frame.ToYear)
		}
	})
}

func TestFrameScanner_Weekend(t *testing.T) {
	tests := []struct {
		question    string
		wantOrdinal int
		wantYear    int
	}{
		{"Who scored on the first weekend of 2024?", 1, 2024},
		{"Results from the 3rd weekend of 2023", 3, 2023},
		{"Did we win last weekend?", -1, 0},
		{"fifth weekend of the season", 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			frame := requireOneFrame(t, tt.question)
			if frame.Kind != FrameWeekend {
				t.Fatalf("kind = %q, want weekend", frame.Kind)
			}
			if frame.Ordinal != tt.wantOrdinal {
				t.Errorf("ordinal = %d, want %d", frame.Ordinal, tt.wantOrdinal)
			}
			if frame.Year != tt.wantYear {
				t.Errorf("year = %d, want %d", frame.Year, tt.wantYear)
			}
		})
	}
}

func TestFrameScanner_ExplicitSeason(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"Top scorer in 2018/19?", "2018/19"},
		{"Top scorer in 18/19?", "2018/19"},
		{"Top scorer in 98/99?", "1998/99"},
		{"Top scorer in 2018-19?", "2018/19"},
		{"Top scorer in 2018/2019?", "2018/19"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			frame := requireOneFrame(t, tt.question)
			if frame.Kind != FrameSeason {
				t.Fatalf("kind = %q, want season", frame.Kind)
			}
			if frame.Season != tt.want {
				t.Errorf("season = %q, want %q", frame.Season, tt.want)
			}
		})
	}

	t.Run("non-consecutive years are not a season", func(t *testing.T) {
		frames := scanFrames(t, "We won 20-18 against them")
		for _, f := range frames {
			if f.Kind == FrameSeason {
				t.Errorf("scoreline misread as a season: %+v", f)
			}
		}
	})
}

func TestFrameScanner_MonthYear(t *testing.T) {
	tests := []struct {
		question  string
		wantMonth time.Month
		wantYear  int
	}{
		{"How many goals in November 2023?", time.November, 2023},
		{"Clean sheets in june 2019", time.June, 2019},
		{"Appearances in Sept 2022", time.September, 2022},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			frame := requireOneFrame(t, tt.question)
			if frame.Kind != FrameMonth {
				t.Fatalf("kind = %q, want month", frame.Kind)
			}
			if frame.Month != tt.wantMonth || frame.Year != tt.wantYear {
				t.Errorf("frame = %v %d, want %v %d", frame.Month, frame.Year, tt.wantMonth, tt.wantYear)
			}
		})
	}

	t.Run("bare month without a year is not a frame", func(t *testing.T) {
		if frames := scanFrames(t, "Who scored in November?"); len(frames) != 0 {
			t.Errorf("bare month produced frames: %+v", frames)
		}
	})
}

func TestFrameScanner_RelativePhrases(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"How many goals this season?", "this_season"},
		{"Top scorer last season", "last_season"},
		{"Most appearances of all time", "all_time"},
		{"Who has the most goals ever?", "all_time"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			frame := requireOneFrame(t, tt.question)
			if frame.Kind != FrameRelative {
				t.Fatalf("kind = %q, want relative", frame.Kind)
			}
			if frame.Token != tt.want {
				t.Errorf("token = %q, want %q", frame.Token, tt.want)
			}
		})
	}
}

// =============================================================================
// Combinations
// =============================================================================

func TestFrameScanner_MultipleFramesSortedByPosition(t *testing.T) {
	frames := scanFrames(t, "Compare this season with 2018/19 and everything since 2015")
	if len(frames) != 3 {
		t.Fatalf("frames = %+v, want 3", frames)
	}
	wantKinds := []TimeFrameKind{FrameRelative, FrameSeason, FrameSince}
	for i, want := range wantKinds {
		if frames[i].Kind != want {
			t.Errorf("frame[%d].Kind = %q, want %q", i, frames[i].Kind, want)
		}
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Start < frames[i-1].Start {
			t.Errorf("frames not sorted by position: %+v", frames)
		}
	}
}

// =============================================================================
// Normalization Helpers
// =============================================================================

func TestNormalizeSeason(t *testing.T) {
	tests := []struct {
		first, second string
		want          string
		wantOK        bool
	}{
		{"2021", "22", "2021/22", true},
		{"21", "22", "2021/22", true},
		{"98", "99", "1998/99", true},
		{"2018", "2019", "2018/19", true},
		{"2020", "", "2020/21", true},
		{"2018", "24", "", false},
		{"abcd", "22", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeSeason(tt.first, tt.second)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("normalizeSeason(%q, %q) = (%q, %v), want (%q, %v)",
				tt.first, tt.second, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExpandYear(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2021", 2021, true},
		{"1998", 1998, true},
		{"18", 2018, true},
		{"49", 2049, true},
		{"50", 1950, true},
		{"99", 1999, true},
		{"0", 2000, true},
		{"2150", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		got, ok := expandYear(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("expandYear(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
