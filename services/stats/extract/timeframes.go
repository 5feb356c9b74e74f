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
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// =============================================================================
// Time-Frame Scanner
// =============================================================================

// frameScanner recognizes the time-constraint shapes in question text.
//
// # Matching precedence
//
//	The shapes overlap textually ("before 2021/22" contains a bare
//	season), so scans run in a fixed order and each match claims its
//	span. A later shape never re-reports text a earlier shape consumed:
//
//	1. before-season     "before 2021/22", "before 2020"
//	2. since-year        "since 2019"
//	3. between-years     "between 2018 and 2021"
//	4. ordinal weekend   "first weekend of 2024", "last weekend"
//	5. explicit season   "2021/22", "18/19", "2018-19"
//	6. month + year      "November 2023"
//	7. relative phrases  "this season", "last season", "all time"
//
//	Two-digit season years pivot at 50: "18/19" is 2018/19, "98/99" is
//	1998/99.
type frameScanner struct {
	before   *regexp.Regexp
	since    *regexp.Regexp
	between  *regexp.Regexp
	weekend  *regexp.Regexp
	season   *regexp.Regexp
	monthYr  *regexp.Regexp
	ordinals map[string]int
	months   map[string]time.Month
}

func newFrameScanner() *frameScanner {
	const (
		fullYear   = `(?:19|20)\d{2}`
		seasonPart = `(?:(?:19|20)?\d{2})`
	)
	monthAlt := `january|february|march|april|may|june|july|august|september|sept|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec`

	return &frameScanner{
		before: regexp.MustCompile(
			`(?i)\bbefore\s+(?:the\s+)?(` + seasonPart + `)(?:\s*[/-]\s*(\d{2,4}))?(?:\s+season)?\b`),
		since: regexp.MustCompile(
			`(?i)\bsince\s+(?:the\s+)?(` + fullYear + `)\b`),
		between: regexp.MustCompile(
			`(?i)\bbetween\s+(` + fullYear + `)\s+and\s+(` + fullYear + `)\b`),
		weekend: regexp.MustCompile(
			`(?i)\b(?:the\s+)?([1-5](?:st|nd|rd|th)|first|second|third|fourth|fifth|last)\s+weekend(?:\s+of\s+(?:the\s+)?(` + fullYear + `))?\b`),
		season: regexp.MustCompile(
			`(?i)\b(` + seasonPart + `)\s*[/-]\s*(\d{2,4})\b`),
		monthYr: regexp.MustCompile(
			`(?i)\b(` + monthAlt + `)\s+(` + fullYear + `)\b`),
		ordinals: map[string]int{
			"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
		},
		months: map[string]time.Month{
			"january": time.January, "jan": time.January,
			"february": time.February, "feb": time.February,
			"march": time.March, "mar": time.March,
			"april": time.April, "apr": time.April,
			"may":  time.May,
			"june": time.June, "jun": time.June,
			"july": time.July, "jul": time.July,
			"august": time.August, "aug": time.August,
			"september": time.September, "sept": time.September, "sep": time.September,
			"october": time.October, "oct": time.October,
			"november": time.November, "nov": time.November,
			"december": time.December, "dec": time.December,
		},
	}
}

// scan finds every time frame in the question, in precedence order, and
// returns them sorted by position.
func (s *frameScanner) scan(question string, relative *Matcher) []TimeFrame {
	var frames []TimeFrame
	claimed := spanSet{}

	appendFrame := func(tf TimeFrame) {
		if claimed.overlaps(tf.Start, tf.End) {
			return
		}
		claimed.add(tf.Start, tf.End)
		frames = append(frames, tf)
	}

	for _, loc := range s.before.FindAllStringSubmatchIndex(question, -1) {
		first := question[loc[2]:loc[3]]
		second := ""
		if loc[4] >= 0 {
			second = question[loc[4]:loc[5]]
		}
		season, ok := normalizeSeason(first, second)
		if !ok {
			continue
		}
		appendFrame(TimeFrame{
			Kind:   FrameBefore,
			Season: season,
			Text:   question[loc[0]:loc[1]],
			Start:  loc[0],
			End:    loc[1],
		})
	}

	for _, loc := range s.since.FindAllStringSubmatchIndex(question, -1) {
		year, _ := strconv.Atoi(question[loc[2]:loc[3]])
		appendFrame(TimeFrame{
			Kind:  FrameSince,
			Year:  year,
			Text:  question[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}

	for _, loc := range s.between.FindAllStringSubmatchIndex(question, -1) {
		from, _ := strconv.Atoi(question[loc[2]:loc[3]])
		to, _ := strconv.Atoi(question[loc[4]:loc[5]])
		if to < from {
			from, to = to, from
		}
		appendFrame(TimeFrame{
			Kind:     FrameBetween,
			FromYear: from,
			ToYear:   to,
			Text:     question[loc[0]:loc[1]],
			Start:    loc[0],
			End:      loc[1],
		})
	}

	for _, loc := range s.weekend.FindAllStringSubmatchIndex(question, -1) {
		ordinal, ok := s.parseWeekendOrdinal(question[loc[2]:loc[3]])
		if !ok {
			continue
		}
		year := 0
		if loc[4] >= 0 {
			year, _ = strconv.Atoi(question[loc[4]:loc[5]])
		}
		appendFrame(TimeFrame{
			Kind:    FrameWeekend,
			Ordinal: ordinal,
			Year:    year,
			Text:    question[loc[0]:loc[1]],
			Start:   loc[0],
			End:     loc[1],
		})
	}

	for _, loc := range s.season.FindAllStringSubmatchIndex(question, -1) {
		season, ok := normalizeSeason(question[loc[2]:loc[3]], question[loc[4]:loc[5]])
		if !ok {
			continue
		}
		appendFrame(TimeFrame{
			Kind:   FrameSeason,
			Season: season,
			Text:   question[loc[0]:loc[1]],
			Start:  loc[0],
			End:    loc[1],
		})
	}

	for _, loc := range s.monthYr.FindAllStringSubmatchIndex(question, -1) {
		month, ok := s.months[asciiLower(question[loc[2]:loc[3]])]
		if !ok {
			continue
		}
		year, _ := strconv.Atoi(question[loc[4]:loc[5]])
		appendFrame(TimeFrame{
			Kind:  FrameMonth,
			Month: month,
			Year:  year,
			Text:  question[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}

	for _, m := range relative.Scan(question) {
		appendFrame(TimeFrame{
			Kind:  FrameRelative,
			Token: m.Token,
			Text:  m.Text,
			Start: m.Start,
			End:   m.End,
		})
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].Start < frames[j].Start })
	return frames
}

// parseWeekendOrdinal maps "1st".."5th", the spelled forms, and "last".
func (s *frameScanner) parseWeekendOrdinal(raw string) (int, bool) {
	lower := asciiLower(raw)
	if lower == "last" {
		return -1, true
	}
	if n, ok := s.ordinals[lower]; ok {
		return n, true
	}
	if len(lower) >= 3 {
		if n, err := strconv.Atoi(lower[:1]); err == nil && n >= 1 && n <= 5 {
			return n, true
		}
	}
	return 0, false
}

// =============================================================================
// Season Normalization
// =============================================================================

// normalizeSeason converts season spellings to the canonical "YYYY/YY"
// form. The first part may be two or four digits (two-digit years pivot
// at 50); the second part is optional ("before 2020" is the season
// starting that year).
func normalizeSeason(first, second string) (string, bool) {
	startYear, ok := expandYear(first)
	if !ok {
		return "", false
	}
	endYY := (startYear + 1) % 100
	if second != "" {
		n, err := strconv.Atoi(second)
		if err != nil {
			return "", false
		}
		endYY = n % 100
		// A season spans consecutive years; reject "2018/24".
		if endYY != (startYear+1)%100 {
			return "", false
		}
	}
	return fmt.Sprintf("%04d/%02d", startYear, endYY), true
}

// expandYear turns "18" into 2018 and "98" into 1998, passing four-digit
// years through.
func expandYear(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	switch {
	case n >= 1900 && n <= 2099:
		return n, true
	case n >= 0 && n < 50:
		return 2000 + n, true
	case n >= 50 && n < 100:
		return 1900 + n, true
	default:
		return 0, false
	}
}
