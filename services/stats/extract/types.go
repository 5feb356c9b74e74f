// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract turns a free-text stats question into typed match
// sequences: entities, stat tokens, indicators, time frames, and the rest of
// the categories the downstream resolver and classifier consume. Every match
// carries its byte offsets into the original question string.
package extract

import "time"

// SelfSentinel is the placeholder entity value produced when the question
// refers to the asker ("how many goals have I scored"). The service swaps it
// for the caller identity from the request context before resolution.
const SelfSentinel = "__self__"

// =============================================================================
// Entity Types
// =============================================================================

// EntityCategory classifies an extracted entity.
type EntityCategory string

const (
	CategorySelf       EntityCategory = "self"
	CategoryPlayer     EntityCategory = "player"
	CategoryTeam       EntityCategory = "team"
	CategoryOpposition EntityCategory = "opposition"
	CategoryLeague     EntityCategory = "league"
)

// Entity is a detected proper-noun reference: a player, one of the club's
// sides, an opposition club, or a league.
type Entity struct {
	// Value is the extracted value: a candidate name, a canonical team
	// shorthand ("3s"), or SelfSentinel.
	Value string `json:"value"`

	// Category classifies the entity.
	Category EntityCategory `json:"category"`

	// Text is the verbatim substring of the original question.
	Text string `json:"text"`

	// Start and End are byte offsets into the original question.
	Start int `json:"start"`
	End   int `json:"end"`
}

// =============================================================================
// Token Types
// =============================================================================

// Token is one categorical match: a stat pseudonym, an indicator, a question
// type, a negation, a location, a competition, or a result form. Value holds
// the canonical token the phrase maps to.
type Token struct {
	// Value is the canonical token ("goals", "highest", "home", "win", ...).
	Value string `json:"value"`

	// Phrase is the vocabulary phrase that matched (lowercased).
	Phrase string `json:"phrase"`

	// Text is the verbatim substring of the original question.
	Text string `json:"text"`

	// Start and End are byte offsets into the original question.
	Start int `json:"start"`
	End   int `json:"end"`
}

// =============================================================================
// Time Frames
// =============================================================================

// TimeFrameKind discriminates the time-frame shapes the scanner recognises.
type TimeFrameKind string

const (
	// FrameBefore is "before 2021/22": everything up to a season.
	FrameBefore TimeFrameKind = "before"

	// FrameSince is "since 2019": everything from a calendar year on.
	FrameSince TimeFrameKind = "since"

	// FrameBetween is "between 2018 and 2021".
	FrameBetween TimeFrameKind = "between"

	// FrameWeekend is "the first weekend of 2024".
	FrameWeekend TimeFrameKind = "weekend"

	// FrameSeason is an explicit season like "2021/22" or "21/22".
	FrameSeason TimeFrameKind = "season"

	// FrameRelative is a vocabulary phrase: this_season, last_season,
	// all_time.
	FrameRelative TimeFrameKind = "relative"

	// FrameMonth is "November 2023".
	FrameMonth TimeFrameKind = "month"
)

// TimeFrame is one detected time constraint. Only the fields relevant to the
// Kind are populated.
type TimeFrame struct {
	Kind TimeFrameKind `json:"kind"`

	// Season is the normalized season ("2021/22") for FrameBefore and
	// FrameSeason.
	Season string `json:"season,omitempty"`

	// Year is the calendar year for FrameSince, FrameWeekend, FrameMonth.
	Year int `json:"year,omitempty"`

	// FromYear and ToYear bound FrameBetween inclusively.
	FromYear int `json:"from_year,omitempty"`
	ToYear   int `json:"to_year,omitempty"`

	// Ordinal is the weekend number for FrameWeekend (1-5, or -1 for
	// "last").
	Ordinal int `json:"ordinal,omitempty"`

	// Token is the canonical vocabulary token for FrameRelative.
	Token string `json:"token,omitempty"`

	// Month is set for FrameMonth.
	Month time.Month `json:"month,omitempty"`

	// Text is the verbatim substring of the original question.
	Text string `json:"text"`

	// Start and End are byte offsets into the original question.
	Start int `json:"start"`
	End   int `json:"end"`
}

// =============================================================================
// Extraction Result
// =============================================================================

// Result is the complete extraction output for one question. Slices are in
// match order (scan order, then position); empty slices mean the category
// matched nothing. A Result with no matches at all is valid output for an
// off-topic question.
type Result struct {
	Entities         []Entity    `json:"entities"`
	StatTokens       []Token     `json:"stat_tokens"`
	Indicators       []Token     `json:"indicators"`
	QuestionTypes    []Token     `json:"question_types"`
	Negations        []Token     `json:"negations"`
	Locations        []Token     `json:"locations"`
	TimeFrames       []TimeFrame `json:"time_frames"`
	CompetitionTypes []Token     `json:"competition_types"`
	Competitions     []Token     `json:"competitions"`
	Results          []Token     `json:"results"`

	// OppositionOwnGoals marks questions about own goals conceded by
	// opponents in the club's favour.
	OppositionOwnGoals bool `json:"opposition_own_goals"`

	// GoalInvolvements marks questions about combined goals and assists.
	GoalInvolvements bool `json:"goal_involvements"`
}

// EntitiesByCategory returns the entities matching one category, in order.
func (r *Result) EntitiesByCategory(cat EntityCategory) []Entity {
	var out []Entity
	for _, e := range r.Entities {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// Players returns player entities, the self sentinel included.
func (r *Result) Players() []Entity {
	var out []Entity
	for _, e := range r.Entities {
		if e.Category == CategoryPlayer || e.Category == CategorySelf {
			out = append(out, e)
		}
	}
	return out
}

// Teams returns the club-side entities ("1s" through "8s").
func (r *Result) Teams() []Entity {
	return r.EntitiesByCategory(CategoryTeam)
}

// HasSelfReference reports whether the asker referred to themself.
func (r *Result) HasSelfReference() bool {
	for _, e := range r.Entities {
		if e.Category == CategorySelf {
			return true
		}
	}
	return false
}

// HasExplicitLocationPhrase reports whether any location match came from a
// multi-word phrase ("at home", "away from home") rather than a bare word.
// The resolver's location guard keys off this.
func (r *Result) HasExplicitLocationPhrase() bool {
	for _, loc := range r.Locations {
		if containsSpace(loc.Phrase) {
			return true
		}
	}
	return false
}

func containsSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return true
		}
	}
	return false
}
