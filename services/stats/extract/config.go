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
	"strings"
)

// =============================================================================
// Extractor Configuration
// =============================================================================

// Config tunes the extractor's linguistic machinery. The domain pseudonym
// tables live in the vocabulary file; the word lists here are properties of
// English questions, not of club statistics, so they ship as code defaults.
type Config struct {
	// MaxQuestionLength rejects questions longer than this many bytes.
	MaxQuestionLength int `json:"max_question_length"`

	// StopWords are question and function words that never start or form a
	// player name ("who", "the", "how").
	StopWords []string `json:"stop_words"`

	// VerbBoundaries split proper-noun runs: "Dave Felton got more than
	// Luke Bangs" is two names because "got" intervenes.
	VerbBoundaries []string `json:"verb_boundaries"`

	// SelfPronouns trigger the self-reference sentinel.
	SelfPronouns []string `json:"self_pronouns"`

	// OppositionMarkers flag the following proper-noun run as an opposition
	// club ("against Merton").
	OppositionMarkers []string `json:"opposition_markers"`

	// LeagueKeywords reclassify a proper-noun run as a league name.
	LeagueKeywords []string `json:"league_keywords"`

	// TeamWords complete an ordinal squad reference ("3rd team", "2nd XI").
	TeamWords []string `json:"team_words"`

	// SpelledOrdinals maps spelled squad ordinals to numbers.
	SpelledOrdinals map[string]int `json:"spelled_ordinals"`
}

// DefaultConfig returns the production extractor configuration.
func DefaultConfig() Config {
	return Config{
		MaxQuestionLength: 512,
		StopWords: []string{
			"a", "an", "and", "are", "at", "been", "but", "by", "did", "do",
			"does", "ever", "for", "from", "had", "has", "have", "he", "her",
			"his", "how", "i", "if", "in", "is", "it", "its", "many", "me",
			"much", "my", "of", "on", "or", "our", "she", "that", "the",
			"their", "them", "they", "this", "those", "to", "total", "up",
			"us", "was", "we", "were", "what", "when", "where", "which",
			"while", "whilst", "who", "whom", "will", "with", "you", "your",
		},
		VerbBoundaries: []string{
			"and", "against", "at", "beat", "beaten", "did", "does", "drew",
			"for", "got", "had", "has", "have", "in", "is", "lost", "on",
			"or", "played", "scored", "than", "the", "versus", "was", "were",
			"whilst", "while", "with", "won", "vs", "v",
		},
		SelfPronouns: []string{"i", "me", "my", "myself", "mine"},
		OppositionMarkers: []string{
			"against", "versus", "vs", "v",
		},
		LeagueKeywords: []string{
			"league", "division", "div", "premier", "prem", "senior",
			"intermediate", "minor", "sal",
		},
		TeamWords: []string{"team", "xi", "eleven", "side", "squad"},
		SpelledOrdinals: map[string]int{
			"first": 1, "second": 2, "third": 3, "fourth": 4,
			"fifth": 5, "sixth": 6, "seventh": 7, "eighth": 8,
		},
	}
}

// Validate checks the configuration for coherent word lists.
func (c *Config) Validate() error {
	var errs []string
	if c.MaxQuestionLength <= 0 {
		errs = append(errs, "max_question_length must be positive")
	}
	if len(c.SelfPronouns) == 0 {
		errs = append(errs, "self_pronouns must not be empty")
	}
	if len(c.TeamWords) == 0 {
		errs = append(errs, "team_words must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("extractor config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// wordSet folds a word list into a lookup set.
func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
