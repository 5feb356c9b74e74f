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
	"strconv"
	"strings"
)

// =============================================================================
// Word Tokenization
// =============================================================================

// word is one whitespace/punctuation-delimited token with its byte span
// in the original question.
type word struct {
	text        string
	lower       string
	start       int
	end         int
	capitalized bool
}

// tokenizeWords splits the question into words, preserving byte offsets.
// A word is a maximal run of letters, digits, apostrophes, and hyphens;
// everything else is a separator.
func tokenizeWords(question string) []word {
	var words []word
	start := -1
	for i := 0; i < len(question); i++ {
		b := question[i]
		isWordChar := isWordByte(b) || b == '\'' || b == '-'
		if isWordChar {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, makeWord(question, start, i))
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, makeWord(question, start, len(question)))
	}
	return words
}

func makeWord(question string, start, end int) word {
	text := question[start:end]
	first := text[0]
	return word{
		text:        text,
		lower:       asciiLower(text),
		start:       start,
		end:         end,
		capitalized: first >= 'A' && first <= 'Z',
	}
}

// =============================================================================
// Self-Reference Scan
// =============================================================================

// scanSelfReference finds the first first-person pronoun and converts it
// to the sentinel player entity. Later pronouns in the same question are
// the same speaker, so only the first occurrence is reported.
func (e *Extractor) scanSelfReference(words []word) (Entity, bool) {
	for _, w := range words {
		if e.selfPronouns[w.lower] {
			return Entity{
				Value:    SelfSentinel,
				Category: CategorySelf,
				Text:     w.text,
				Start:    w.start,
				End:      w.end,
			}, true
		}
	}
	return Entity{}, false
}

// =============================================================================
// Team-Code Scan
// =============================================================================

// teamScanner recognizes the club's squad shorthands and normalizes them
// all to the canonical "Ns" form:
//
//   - digit+s: "2s", "5s" (always a team, no team word needed)
//   - digit ordinal + team word: "3rd team", "1st XI"
//   - spelled ordinal + team word: "first team", "fourth eleven"
//
// A bare ordinal with no team word stays unclaimed: "3rd" alone ranks a
// result, it does not name a squad.
type teamScanner struct {
	digitCode      *regexp.Regexp
	digitOrdinal   *regexp.Regexp
	spelledOrdinal *regexp.Regexp
	spelled        map[string]int
}

func newTeamScanner(cfg Config) *teamScanner {
	teamAlt := joinAlternation(cfg.TeamWords)
	spelledAlt := joinAlternation(spelledOrdinalWords(cfg.SpelledOrdinals))
	return &teamScanner{
		digitCode:      regexp.MustCompile(`(?i)\b([1-8])s\b`),
		digitOrdinal:   regexp.MustCompile(`(?i)\b([1-8])(?:st|nd|rd|th)\s+(?:` + teamAlt + `)\b`),
		spelledOrdinal: regexp.MustCompile(`(?i)\b(` + spelledAlt + `)\s+(?:` + teamAlt + `)\b`),
		spelled:        cfg.SpelledOrdinals,
	}
}

// joinAlternation builds a regex alternation from plain words.
func joinAlternation(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, regexp.QuoteMeta(item))
	}
	return strings.Join(quoted, "|")
}

func spelledOrdinalWords(m map[string]int) []string {
	words := make([]string, 0, len(m))
	for w := range m {
		words = append(words, w)
	}
	return words
}

// scan finds every team code in the question. The second return value
// holds the lowered words claimed by team matches, so the player scan can
// skip them.
func (s *teamScanner) scan(question string, words []word) ([]Entity, map[string]bool) {
	var entities []Entity
	claimed := spanSet{}
	claimedWords := make(map[string]bool)

	appendMatch := func(start, end int, value string) {
		if claimed.overlaps(start, end) {
			return
		}
		claimed.add(start, end)
		entities = append(entities, Entity{
			Value:    value,
			Category: CategoryTeam,
			Text:     question[start:end],
			Start:    start,
			End:      end,
		})
		for _, w := range words {
			if w.start >= start && w.end <= end {
				claimedWords[w.lower] = true
			}
		}
	}

	for _, loc := range s.digitOrdinal.FindAllStringSubmatchIndex(question, -1) {
		digit := question[loc[2]:loc[3]]
		appendMatch(loc[0], loc[1], digit+"s")
	}
	for _, loc := range s.spelledOrdinal.FindAllStringSubmatchIndex(question, -1) {
		ordinal := asciiLower(question[loc[2]:loc[3]])
		if n, ok := s.spelled[ordinal]; ok {
			appendMatch(loc[0], loc[1], fmt.Sprintf("%ds", n))
		}
	}
	for _, loc := range s.digitCode.FindAllStringSubmatchIndex(question, -1) {
		digit := question[loc[2]:loc[3]]
		appendMatch(loc[0], loc[1], digit+"s")
	}

	return entities, claimedWords
}

// =============================================================================
// Proper-Noun Runs
// =============================================================================

// nameRun is a candidate multi-word name: contiguous indexes into the
// word slice.
type nameRun struct {
	first int
	last  int
}

// isNameWord reports whether a word can participate in a proper-noun run.
func (e *Extractor) isNameWord(w word, teamTokens map[string]bool) bool {
	if !w.capitalized {
		return false
	}
	if e.stopWords[w.lower] || e.verbBoundaries[w.lower] || e.selfPronouns[w.lower] {
		return false
	}
	if teamTokens[w.lower] {
		return false
	}
	if isNumericWord(w.lower) {
		return false
	}
	return true
}

func isNumericWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// collectNameRuns finds capitalized-word runs and merges adjacent runs
// separated by exactly one intervening word, unless that word is a verb
// boundary. "Jack Walford van Dijk" survives the lowercase "van"; "Jack
// scored Billy" stays two runs because "scored" is a boundary.
func (e *Extractor) collectNameRuns(words []word, teamTokens map[string]bool) []nameRun {
	var runs []nameRun
	i := 0
	for i < len(words) {
		if !e.isNameWord(words[i], teamTokens) {
			i++
			continue
		}
		run := nameRun{first: i, last: i}
		j := i + 1
		for j < len(words) && e.isNameWord(words[j], teamTokens) {
			run.last = j
			j++
		}
		runs = append(runs, run)
		i = j
	}

	// Merge across a single non-boundary intervening word.
	merged := runs[:0]
	for _, run := range runs {
		if len(merged) > 0 {
			prev := &merged[len(merged)-1]
			gap := run.first - prev.last - 1
			if gap == 1 && !e.verbBoundaries[words[prev.last+1].lower] {
				prev.last = run.last
				continue
			}
		}
		merged = append(merged, run)
	}
	return merged
}

// classifyRuns assigns each proper-noun run to a category:
//
//   - preceded (within one word) by an opposition marker → opposition
//   - containing a league keyword → league
//   - otherwise a player when the gate is open, opposition when closed
//
// The question's leading word alone never names a player: questions start
// capitalized, so a single-word run at position zero is sentence case,
// not a name ("Goals per game for the 2s" must not yield player "Goals").
func (e *Extractor) classifyRuns(question string, words []word, runs []nameRun, playerGate bool) (players, others []Entity) {
	for _, run := range runs {
		if run.first == 0 && run.last == 0 {
			continue
		}

		category := CategoryPlayer
		last := run.last

		if idx := e.leagueKeywordAt(words, run); idx >= 0 {
			category = CategoryLeague
			// Widen to a trailing number: "Division 3" is one league name.
			if last+1 < len(words) && isNumericWord(words[last+1].lower) {
				last = last + 1
			}
		} else if e.precededByOppositionMarker(words, run) {
			category = CategoryOpposition
		} else if !playerGate {
			category = CategoryOpposition
		}

		start := words[run.first].start
		end := words[last].end

		players, others = appendClassified(players, others, Entity{
			Value:    joinWords(words, run.first, last),
			Category: category,
			Text:     question[start:end],
			Start:    start,
			End:      end,
		})
	}
	return players, others
}

func appendClassified(players, others []Entity, ent Entity) ([]Entity, []Entity) {
	if ent.Category == CategoryPlayer {
		return append(players, ent), others
	}
	return players, append(others, ent)
}

// leagueKeywordAt returns the index of the first league keyword inside
// the run, or -1.
func (e *Extractor) leagueKeywordAt(words []word, run nameRun) int {
	for i := run.first; i <= run.last; i++ {
		if e.leagueKeywords[words[i].lower] {
			return i
		}
	}
	return -1
}

// precededByOppositionMarker reports whether an opposition marker sits at
// most one word before the run ("against Horley", "a win vs Merstham").
func (e *Extractor) precededByOppositionMarker(words []word, run nameRun) bool {
	for back := 1; back <= 2; back++ {
		idx := run.first - back
		if idx < 0 {
			break
		}
		if e.oppositionMarkers[words[idx].lower] {
			return true
		}
	}
	return false
}

// joinWords reconstructs a run's display text from its words.
func joinWords(words []word, first, last int) string {
	parts := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		parts = append(parts, words[i].text)
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// Helpers
// =============================================================================

// CanonicalTeamCode normalizes free-form squad references ("2s", "2nd
// team", "second XI") to the canonical "Ns" form. Returns false when the
// input is not a recognizable squad reference. Request context fields use
// this; question text goes through the full team scan instead.
func (e *Extractor) CanonicalTeamCode(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	words := tokenizeWords(trimmed)
	entities, _ := e.teamScanner.scan(trimmed, words)
	if len(entities) > 0 {
		return entities[0].Value, true
	}
	// A bare digit or bare spelled ordinal is unambiguous in a context
	// field even though it would be ambiguous in question text.
	lower := asciiLower(trimmed)
	if n, ok := e.cfg.SpelledOrdinals[lower]; ok {
		return fmt.Sprintf("%ds", n), true
	}
	if n, err := strconv.Atoi(lower); err == nil && n >= 1 && n <= 8 {
		return fmt.Sprintf("%ds", n), true
	}
	return "", false
}
