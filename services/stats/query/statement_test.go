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
	"errors"
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// Render
// =============================================================================

func TestRender_InterpolatesForDisplay(t *testing.T) {
	s := Statement{
		Text: "MATCH (p:Player {name: $player}) WHERE a > $min AND b > $minAppearances RETURN p",
		Params: map[string]any{
			"player":         "Dan O'Shea",
			"min":            5,
			"minAppearances": 10,
		},
	}

	got := s.Render()

	if strings.Contains(got, "$") {
		t.Errorf("render left placeholders behind: %s", got)
	}
	// Longer names replace first, so $min never clobbers $minAppearances.
	want := `MATCH (p:Player {name: 'Dan O\'Shea'}) WHERE a > 5 AND b > 10 RETURN p`
	if got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestRender_NoParamsReturnsText(t *testing.T) {
	s := Statement{Text: "MATCH (f:Fixture) RETURN count(f)"}
	if got := s.Render(); got != s.Text {
		t.Errorf("render = %q, want text unchanged", got)
	}
}

func TestRenderValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"Horley Town", "'Horley Town'"},
		{true, "true"},
		{42, "42"},
		{int64(7), "7"},
		{0.75, "0.75"},
	}
	for _, tc := range cases {
		if got := renderValue(tc.in); got != tc.want {
			t.Errorf("renderValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestIsUnsupportedMetric(t *testing.T) {
	base := &UnsupportedMetricError{Metric: "points", Shape: "count"}

	if !IsUnsupportedMetric(base) {
		t.Error("direct error should match")
	}
	if !IsUnsupportedMetric(fmt.Errorf("building statement: %w", base)) {
		t.Error("wrapped error should match")
	}
	if IsUnsupportedMetric(errors.New("connection refused")) {
		t.Error("unrelated error should not match")
	}
	if IsUnsupportedMetric(nil) {
		t.Error("nil should not match")
	}
}
