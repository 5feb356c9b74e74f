// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"math"
	"testing"
)

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"goals", "goals", 0},
		{"goals", "goels", 1},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarity_Reflexive(t *testing.T) {
	for _, s := range []string{"", "x", "luke bangs", "penalty conversion"} {
		if got := Similarity(s, s); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestSimilarity_ScaledByLongerString(t *testing.T) {
	// One edit against the 11-char name: (11-1)/11.
	got := Similarity("horly town", "horley town")
	want := 10.0 / 11.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity = %v, want %v", got, want)
	}

	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings scored %v, want 0", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	if Similarity("becker", "beckre") != Similarity("beckre", "becker") {
		t.Error("similarity should not depend on argument order")
	}
}
