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

import "testing"

func TestResolveLimit(t *testing.T) {
	cases := []struct {
		name        string
		explicit    int
		singular    bool
		superlative bool
		want        LimitPolicy
	}{
		{
			name:     "explicit top N fetches exactly N",
			explicit: 3,
			want:     LimitPolicy{Display: 3, Fetch: 3},
		},
		{
			name:        "explicit N beats superlative",
			explicit:    7,
			superlative: true,
			want:        LimitPolicy{Display: 7, Fetch: 7},
		},
		{
			name:        "superlative forces a competitive list",
			singular:    true,
			superlative: true,
			want:        LimitPolicy{Display: DefaultDisplayLimit, Fetch: DefaultFetchLimit},
		},
		{
			name:     "plain singular collapses to one row",
			singular: true,
			want:     LimitPolicy{Display: 1, Fetch: 1},
		},
		{
			name: "default shows five and fetches ten",
			want: LimitPolicy{Display: DefaultDisplayLimit, Fetch: DefaultFetchLimit},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveLimit(tc.explicit, tc.singular, tc.superlative)
			if got != tc.want {
				t.Errorf("ResolveLimit(%d, %v, %v) = %+v, want %+v",
					tc.explicit, tc.singular, tc.superlative, got, tc.want)
			}
		})
	}
}
