// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type floatWrapper struct{ v float64 }

func (w floatWrapper) Float64() float64 { return w.v }

type intWrapper struct{ v int64 }

func (w intWrapper) Int64() int64 { return w.v }

type stampWrapper struct{}

func (stampWrapper) String() string { return "2023-11-04" }

// =============================================================================
// Number
// =============================================================================

func TestNumber_Totality(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"nil is zero", nil, 0},
		{"int", 7, 7},
		{"int64 driver integer", int64(42), 42},
		{"int32", int32(-3), -3},
		{"uint", uint(9), 9},
		{"float64", 2.5, 2.5},
		{"float32", float32(1.5), 1.5},
		{"numeric string", "3.5", 3.5},
		{"padded numeric string", "  10  ", 10},
		{"garbage string", "not a number", 0},
		{"empty string", "", 0},
		{"json number", json.Number("6.25"), 6.25},
		{"bad json number", json.Number("6.2.5"), 0},
		{"true", true, 1},
		{"false", false, 0},
		{"split integer pair", map[string]any{"low": 1, "high": 2}, 1 + 2*4294967296.0},
		{"pair missing high", map[string]any{"low": 5}, 0},
		{"unrelated map", map[string]any{"value": 5}, 0},
		{"float wrapper", floatWrapper{v: 0.75}, 0.75},
		{"int wrapper", intWrapper{v: 12}, 12},
		{"nan clamps", math.NaN(), 0},
		{"positive infinity clamps", math.Inf(1), 0},
		{"negative infinity clamps", math.Inf(-1), 0},
		{"opaque struct", struct{ X int }{X: 4}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Number(tc.in))
		})
	}
}

func TestNullableNumber(t *testing.T) {
	assert.Nil(t, NullableNumber(nil), "nil must survive coercion")

	got := NullableNumber(int64(5))
	require.NotNil(t, got)
	assert.Equal(t, 5.0, *got)

	zero := NullableNumber(0.0)
	require.NotNil(t, zero, "a real zero is not nil")
	assert.Equal(t, 0.0, *zero)
}

// =============================================================================
// Sanitize
// =============================================================================

func TestSanitize(t *testing.T) {
	rows := Rows{
		{
			"player":  "Dan Becker",
			"value":   int64(31),
			"ratio":   math.NaN(),
			"active":  true,
			"note":    nil,
			"awarded": stampWrapper{},
			"wrapped": floatWrapper{v: 1.25},
		},
	}

	clean := Sanitize(rows)
	require.Len(t, clean, 1)

	row := clean[0]
	assert.Equal(t, "Dan Becker", row["player"])
	assert.Equal(t, int64(31), row["value"])
	assert.Equal(t, 0.0, row["ratio"], "NaN must flatten before marshalling")
	assert.Equal(t, true, row["active"])
	assert.Nil(t, row["note"])
	assert.Equal(t, "2023-11-04", row["awarded"])
	assert.Equal(t, 1.25, row["wrapped"])

	// The copy must marshal without error.
	_, err := json.Marshal(clean)
	require.NoError(t, err)
}

func TestRowsFirst(t *testing.T) {
	var empty Rows
	if _, ok := empty.First(); ok {
		t.Fatal("empty rows should report no first row")
	}

	rows := Rows{{"value": 1}, {"value": 2}}
	first, ok := rows.First()
	require.True(t, ok)
	assert.Equal(t, 1, first["value"])
}
