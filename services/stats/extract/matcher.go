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
	"strings"
)

// =============================================================================
// Phrase Matcher
// =============================================================================

// Pair binds one vocabulary phrase to the canonical token it produces.
type Pair struct {
	Phrase string
	Token  string
}

// Match is one phrase hit inside a question.
type Match struct {
	// Token is the canonical token the phrase maps to.
	Token string

	// Phrase is the vocabulary phrase that matched (folded form).
	Phrase string

	// Text is the verbatim substring of the original question.
	Text string

	// Start and End are byte offsets into the original question.
	Start int
	End   int
}

// phraseEntry is one compiled literal phrase.
type phraseEntry struct {
	phrase   string // folded
	token    string
	boundary bool // single-word phrases require word boundaries
}

// patternEntry is one compiled deliberate regex pattern.
type patternEntry struct {
	raw   string
	token string
	re    *regexp.Regexp
}

// Matcher matches one vocabulary category against questions. It is compiled
// once at startup: literal phrases are indexed by first byte and ordered
// longest-first, deliberate patterns are compiled regexps. Scanning a
// question is a single left-to-right pass with no per-entry compilation.
//
// # Matching semantics
//
//   - Single-word phrases match on word boundaries only, so "app" never
//     fires inside "wrapped".
//   - Multi-word phrases match as literal substrings.
//   - A phrase containing \d or .* is a deliberate pattern and is compiled
//     with a (?i) prefix; all other phrases are matched literally with any
//     metacharacters inert.
//   - The longest phrase at a position wins, and a claimed span suppresses
//     every shorter overlapping match in the same category.
//
// # Thread Safety
//
// Immutable after NewMatcher; safe for concurrent use.
type Matcher struct {
	literals map[byte][]phraseEntry
	patterns []patternEntry
}

// IsDeliberatePattern reports whether a vocabulary phrase opts into regex
// matching instead of literal matching.
func IsDeliberatePattern(phrase string) bool {
	return strings.Contains(phrase, `\d`) || strings.Contains(phrase, ".*")
}

// NewMatcher compiles one vocabulary category.
//
// # Inputs
//
//   - pairs: Phrase/token bindings. Phrases are folded to lower case; blank
//     phrases are rejected.
//
// # Outputs
//
//   - *Matcher: The compiled matcher.
//   - error: Non-nil when a deliberate pattern fails to compile or a phrase
//     is blank.
func NewMatcher(pairs []Pair) (*Matcher, error) {
	m := &Matcher{literals: make(map[byte][]phraseEntry)}

	for _, p := range pairs {
		phrase := asciiLower(strings.TrimSpace(p.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("NewMatcher: blank phrase for token %q", p.Token)
		}

		if IsDeliberatePattern(phrase) {
			re, err := regexp.Compile("(?i)" + phrase)
			if err != nil {
				return nil, fmt.Errorf("NewMatcher: compiling pattern %q: %w", phrase, err)
			}
			m.patterns = append(m.patterns, patternEntry{raw: phrase, token: p.Token, re: re})
			continue
		}

		entry := phraseEntry{
			phrase:   phrase,
			token:    p.Token,
			boundary: !strings.Contains(phrase, " "),
		}
		first := phrase[0]
		m.literals[first] = append(m.literals[first], entry)
	}

	// Longest first within each bucket so the longest phrase at a position
	// wins; lexicographic within equal lengths keeps scans deterministic.
	for first := range m.literals {
		bucket := m.literals[first]
		sort.Slice(bucket, func(i, j int) bool {
			if len(bucket[i].phrase) != len(bucket[j].phrase) {
				return len(bucket[i].phrase) > len(bucket[j].phrase)
			}
			return bucket[i].phrase < bucket[j].phrase
		})
		m.literals[first] = bucket
	}

	return m, nil
}

// Scan finds every non-overlapping match in the question, longest-first at
// each position, ordered by start offset. Text and offsets reference the
// original string even though matching is case-insensitive.
func (m *Matcher) Scan(question string) []Match {
	if question == "" {
		return nil
	}

	folded := asciiLower(question)
	var matches []Match
	var claimed spanSet

	// Deliberate patterns first: they may span more text than any literal
	// and their claims suppress shorter literal hits.
	for _, p := range m.patterns {
		for _, loc := range p.re.FindAllStringIndex(folded, -1) {
			start, end := loc[0], loc[1]
			if start == end || claimed.overlaps(start, end) {
				continue
			}
			claimed.add(start, end)
			matches = append(matches, Match{
				Token:  p.token,
				Phrase: p.raw,
				Text:   question[start:end],
				Start:  start,
				End:    end,
			})
		}
	}

	// Single pass for literals: at each position, the first (longest)
	// bucket entry that fits wins and the scan jumps past it.
	for i := 0; i < len(folded); {
		bucket, ok := m.literals[folded[i]]
		if !ok {
			i++
			continue
		}

		matched := false
		for _, entry := range bucket {
			end := i + len(entry.phrase)
			if end > len(folded) || folded[i:end] != entry.phrase {
				continue
			}
			if entry.boundary && !onWordBoundary(folded, i, end) {
				continue
			}
			if claimed.overlaps(i, end) {
				continue
			}
			claimed.add(i, end)
			matches = append(matches, Match{
				Token:  entry.token,
				Phrase: entry.phrase,
				Text:   question[i:end],
				Start:  i,
				End:    end,
			})
			i = end
			matched = true
			break
		}
		if !matched {
			i++
		}
	}

	sort.Slice(matches, func(a, b int) bool { return matches[a].Start < matches[b].Start })
	return matches
}

// =============================================================================
// Span Tracking
// =============================================================================

type span struct {
	start, end int
}

// spanSet tracks claimed byte ranges. Small questions keep this a plain
// slice; no interval tree needed.
type spanSet []span

func (s *spanSet) add(start, end int) {
	*s = append(*s, span{start: start, end: end})
}

func (s spanSet) overlaps(start, end int) bool {
	for _, sp := range s {
		if start < sp.end && end > sp.start {
			return true
		}
	}
	return false
}

// =============================================================================
// Character Helpers
// =============================================================================

// asciiLower folds A-Z to a-z byte-wise. Byte offsets into the folded string
// are identical to offsets into the original, which strings.ToLower cannot
// guarantee for every rune.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func onWordBoundary(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}
