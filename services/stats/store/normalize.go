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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// Result Normalization
// =============================================================================

// Number coerces any store value to a float64.
//
// # Description
//
//	Total over everything a result cell can carry: nil, Go numerics, the
//	driver's int64 integers, numeric strings, json.Number, split 32-bit
//	{low, high} integer maps, and wrapper types exposing Float64() or
//	Int64(). Unrecognized or non-finite input coerces to 0 rather than
//	erroring; answer arithmetic never branches on a bad cell.
//
// Inputs:
//   - v: Any result cell value.
//
// Outputs:
//   - float64: The coerced value, always finite.
//
// Thread Safety: Safe for concurrent use.
func Number(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case map[string]any:
		return numberFromPair(val)
	}

	if f, ok := v.(interface{ Float64() float64 }); ok {
		return finite(f.Float64())
	}
	if i, ok := v.(interface{ Int64() int64 }); ok {
		return float64(i.Int64())
	}
	return 0
}

// NullableNumber coerces like Number but preserves nil. Conversion rates
// need the distinction: nil means "no attempts", 0 means "all missed".
func NullableNumber(v any) *float64 {
	if v == nil {
		return nil
	}
	n := Number(v)
	return &n
}

// numberFromPair decodes the split 32-bit integer encoding JavaScript
// drivers emit: {low, high} valued low + high·2^32. Both halves must be
// present.
func numberFromPair(m map[string]any) float64 {
	low, okLow := m["low"]
	high, okHigh := m["high"]
	if !okLow || !okHigh {
		return 0
	}
	return Number(low) + Number(high)*(1<<32)
}

// finite clamps NaN and infinities to 0.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// =============================================================================
// Row Sanitization
// =============================================================================

// Sanitize copies rows down to JSON-safe scalars. Driver-specific types
// (temporal values, split integers) flatten to strings or numbers so the
// envelope marshals cleanly.
func Sanitize(rows Rows) Rows {
	out := make(Rows, 0, len(rows))
	for _, row := range rows {
		clean := make(map[string]any, len(row))
		for key, v := range row {
			clean[key] = sanitizeValue(v)
		}
		out = append(out, clean)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case bool:
		return val
	case int:
		return val
	case int64:
		return val
	case float64:
		return finite(val)
	}

	if f, ok := v.(interface{ Float64() float64 }); ok {
		return finite(f.Float64())
	}
	if i, ok := v.(interface{ Int64() int64 }); ok {
		return i.Int64()
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}
