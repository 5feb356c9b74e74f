// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query synthesizes parameterized Cypher statements from classified
// question intents. Every user-derived value (names, seasons, team codes,
// limits) binds as a named parameter; statement text is assembled only from
// fixed fragments, so no question content can reach the store as query
// syntax.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// Statement
// =============================================================================

// Statement is one executable store query: fixed text plus named parameters.
type Statement struct {
	// Text is the Cypher statement with $name placeholders.
	Text string `json:"text"`

	// Params binds every placeholder. Keys appear in Text as $key.
	Params map[string]any `json:"params"`
}

// Render interpolates parameters into the text for logs and trace display.
// The output is never executed; execution always uses Text + Params so the
// store sees placeholders, not spliced values.
func (s Statement) Render() string {
	if len(s.Params) == 0 {
		return s.Text
	}

	// Longest names first so $minAppearances is not clobbered by $min.
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	out := s.Text
	for _, name := range names {
		out = strings.ReplaceAll(out, "$"+name, renderValue(s.Params[name]))
	}
	return out
}

// renderValue formats one parameter for display.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(val, "'", `\'`) + "'"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// =============================================================================
// Errors
// =============================================================================

// UnsupportedMetricError reports a metric with no aggregation mapping for
// the requested shape. It is a typed outcome, not a fault: the handler maps
// it to an unsupported-metric envelope.
type UnsupportedMetricError struct {
	Metric string
	Shape  string
}

func (e *UnsupportedMetricError) Error() string {
	return fmt.Sprintf("metric %q has no %s aggregation", e.Metric, e.Shape)
}

// IsUnsupportedMetric reports whether err is an UnsupportedMetricError.
func IsUnsupportedMetric(err error) bool {
	var u *UnsupportedMetricError
	return errors.As(err, &u)
}
