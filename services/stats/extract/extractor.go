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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	extractLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stats",
		Subsystem: "extract",
		Name:      "latency_seconds",
		Help:      "Question extraction latency",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	extractMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stats",
		Subsystem: "extract",
		Name:      "matches_total",
		Help:      "Total matches found by category",
	}, []string{"category"})

	extractEmptyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stats",
		Subsystem: "extract",
		Name:      "empty_total",
		Help:      "Questions that produced no matches in any category",
	})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var extractTracer = otel.Tracer("dorkinians.stats.extract")

// =============================================================================
// Extractor
// =============================================================================

// Extractor scans a free-text question and produces the typed match
// sequences downstream stages consume.
//
// # Description
//
//	Runs a fixed scan pipeline over the question:
//	1. Self-reference scan (first-person pronouns → sentinel player)
//	2. Team-code scan (squad shorthands: "2s", "3rd team", "first XI")
//	3. Player-name scan (gated: runs only when a self-reference was found
//	   or no team codes were found)
//	4. League/opposition classification of the remaining proper-noun runs
//	5. Concurrent vocabulary scans: stat tokens, indicators, question
//	   types, negations, locations, time frames, competition types,
//	   competitions, results, boolean flags
//
//	Steps 1-4 are sequential because later steps gate on earlier output.
//	The step-5 scans are independent and fan out via errgroup; their
//	results merge in fixed category order so output is deterministic.
//
// # Thread Safety
//
// Immutable after NewExtractor; safe for concurrent use.
type Extractor struct {
	cfg    Config
	vocab  *config.Vocabulary
	logger *slog.Logger

	matchers *Matchers

	stopWords         map[string]bool
	verbBoundaries    map[string]bool
	selfPronouns      map[string]bool
	oppositionMarkers map[string]bool
	leagueKeywords    map[string]bool

	teamScanner *teamScanner
	frames      *frameScanner
}

// Matchers bundles the precompiled phrase matchers, one per vocabulary
// category. Built once at startup; per-question work is pure scanning.
type Matchers struct {
	Stats            *Matcher
	Indicators       *Matcher
	QuestionTypes    *Matcher
	Negations        *Matcher
	Locations        *Matcher
	RelativeFrames   *Matcher
	CompetitionTypes *Matcher
	Competitions     *Matcher
	Results          *Matcher
	Flags            *Matcher
}

// NewExtractor compiles every vocabulary category into its matcher and
// prepares the word lists.
//
// # Inputs
//
//   - vocab: The loaded canonical vocabulary. Must not be nil.
//   - cfg: Extractor word lists and limits.
//   - logger: Logger for structured output. Nil falls back to slog.Default().
//
// # Outputs
//
//   - *Extractor: The compiled extractor.
//   - error: Non-nil when the config is invalid or a vocabulary phrase
//     fails to compile.
func NewExtractor(vocab *config.Vocabulary, cfg Config, logger *slog.Logger) (*Extractor, error) {
	if vocab == nil {
		return nil, fmt.Errorf("NewExtractor: vocabulary must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewExtractor: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	matchers, err := compileMatchers(vocab)
	if err != nil {
		return nil, fmt.Errorf("NewExtractor: %w", err)
	}

	e := &Extractor{
		cfg:               cfg,
		vocab:             vocab,
		logger:            logger,
		matchers:          matchers,
		stopWords:         wordSet(cfg.StopWords),
		verbBoundaries:    wordSet(cfg.VerbBoundaries),
		selfPronouns:      wordSet(cfg.SelfPronouns),
		oppositionMarkers: wordSet(cfg.OppositionMarkers),
		leagueKeywords:    wordSet(cfg.LeagueKeywords),
		teamScanner:       newTeamScanner(cfg),
		frames:            newFrameScanner(),
	}

	return e, nil
}

// compileMatchers builds one Matcher per vocabulary category.
func compileMatchers(vocab *config.Vocabulary) (*Matchers, error) {
	statPairs := make([]Pair, 0, 64)
	for _, entry := range vocab.AliasesLongestFirst() {
		statPairs = append(statPairs, Pair{Phrase: entry.Alias, Token: string(entry.Key)})
	}

	m := &Matchers{}
	for _, build := range []struct {
		name   string
		pairs  []Pair
		target **Matcher
	}{
		{"metrics", statPairs, &m.Stats},
		{"indicators", tablePairs(vocab.IndicatorTable()), &m.Indicators},
		{"question_types", tablePairs(vocab.QuestionTypeTable()), &m.QuestionTypes},
		{"negations", tablePairs(vocab.NegationTable()), &m.Negations},
		{"locations", tablePairs(vocab.LocationTable()), &m.Locations},
		{"timeframes", tablePairs(vocab.TimeFrameTable()), &m.RelativeFrames},
		{"competition_types", tablePairs(vocab.CompetitionTypeTable()), &m.CompetitionTypes},
		{"competitions", tablePairs(vocab.CompetitionTable()), &m.Competitions},
		{"results", tablePairs(vocab.ResultTable()), &m.Results},
		{"flags", tablePairs(vocab.FlagTable()), &m.Flags},
	} {
		matcher, err := NewMatcher(build.pairs)
		if err != nil {
			return nil, fmt.Errorf("compiling %s matcher: %w", build.name, err)
		}
		*build.target = matcher
	}

	return m, nil
}

// tablePairs flattens a TokenPhrases table into matcher pairs.
func tablePairs(table []config.TokenPhrases) []Pair {
	var pairs []Pair
	for _, tp := range table {
		for _, phrase := range tp.Phrases {
			pairs = append(pairs, Pair{Phrase: phrase, Token: tp.Token})
		}
	}
	return pairs
}

// Extract scans one question and returns every typed match.
//
// # Description
//
//	Produces a Result whose slices hold matches in scan order. Unmatched
//	categories are empty slices, never errors: an off-topic question is
//	valid input with an empty Result. The only error conditions are input
//	validation (over-long question) and context cancellation.
//
// # Inputs
//
//   - ctx: Context for tracing and cancellation.
//   - question: The raw question text. Offsets in the Result index this
//     exact string.
//
// # Outputs
//
//   - *Result: The extraction result. Never nil on success.
//   - error: Non-nil for over-long input or a cancelled context.
//
// # Thread Safety
//
// Safe for concurrent use.
func (e *Extractor) Extract(ctx context.Context, question string) (*Result, error) {
	start := time.Now()

	ctx, span := extractTracer.Start(ctx, "extract.Extract")
	defer span.End()

	if len(question) > e.cfg.MaxQuestionLength {
		err := fmt.Errorf("question exceeds maximum length (%d > %d)", len(question), e.cfg.MaxQuestionLength)
		span.RecordError(err)
		return nil, err
	}

	result := &Result{}
	words := tokenizeWords(question)
	if len(words) == 0 {
		span.SetAttributes(attribute.Bool("empty_question", true))
		return result, nil
	}

	// Steps 1-2: self-reference and team codes. Sequential because the
	// player scan gates on both.
	selfEntity, selfFound := e.scanSelfReference(words)
	teams, teamTokens := e.teamScanner.scan(question, words)

	// Step 3: player names, only when a self-reference was found or no
	// team codes were found. Without the gate, squad shorthand like "2s"
	// bleeds into the capitalized-word scan.
	playerGate := selfFound || len(teams) == 0
	runs := e.collectNameRuns(words, teamTokens)
	players, others := e.classifyRuns(question, words, runs, playerGate)

	if selfFound {
		result.Entities = append(result.Entities, selfEntity)
	}
	result.Entities = append(result.Entities, players...)
	result.Entities = append(result.Entities, teams...)
	result.Entities = append(result.Entities, others...)

	// Player-claimed spans suppress stat pseudonyms that fire inside a
	// name ("Jack Waller" must not match "wall..." style aliases).
	claimed := make(spanSet, 0, len(players))
	for _, p := range players {
		claimed.add(p.Start, p.End)
	}

	// Step 5 onward: independent category scans fan out concurrently and
	// merge in fixed order, so the Result is deterministic for a given
	// question.
	var (
		statTokens  []Token
		indicators  []Token
		questions   []Token
		negations   []Token
		locations   []Token
		timeFrames  []TimeFrame
		compTypes   []Token
		comps       []Token
		resultToks  []Token
		flagMatches []Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statTokens = suppressClaimed(e.scanCategory(gctx, e.matchers.Stats, question), claimed)
		return nil
	})
	g.Go(func() error {
		indicators = e.scanCategory(gctx, e.matchers.Indicators, question)
		return nil
	})
	g.Go(func() error {
		questions = e.scanCategory(gctx, e.matchers.QuestionTypes, question)
		return nil
	})
	g.Go(func() error {
		negations = e.scanCategory(gctx, e.matchers.Negations, question)
		return nil
	})
	g.Go(func() error {
		locations = e.scanCategory(gctx, e.matchers.Locations, question)
		return nil
	})
	g.Go(func() error {
		timeFrames = e.frames.scan(question, e.matchers.RelativeFrames)
		return nil
	})
	g.Go(func() error {
		compTypes = e.scanCategory(gctx, e.matchers.CompetitionTypes, question)
		return nil
	})
	g.Go(func() error {
		comps = e.scanCategory(gctx, e.matchers.Competitions, question)
		return nil
	})
	g.Go(func() error {
		resultToks = e.scanCategory(gctx, e.matchers.Results, question)
		return nil
	})
	g.Go(func() error {
		flagMatches = e.matchers.Flags.Scan(question)
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.StatTokens = statTokens
	result.Indicators = indicators
	result.QuestionTypes = questions
	result.Negations = negations
	result.Locations = locations
	result.TimeFrames = timeFrames
	result.CompetitionTypes = compTypes
	result.Competitions = comps
	result.Results = resultToks

	for _, fm := range flagMatches {
		if fm.Token == "opposition_own_goals" {
			result.OppositionOwnGoals = true
		}
	}
	// Goal involvements has no flag phrases of its own: any alias of the
	// combined metric raises the flag.
	for _, st := range result.StatTokens {
		if st.Value == string(config.MetricGoalInvolvements) {
			result.GoalInvolvements = true
		}
	}

	e.recordMetrics(result)
	duration := time.Since(start)
	extractLatency.Observe(duration.Seconds())

	span.SetAttributes(
		attribute.Int("entity_count", len(result.Entities)),
		attribute.Int("stat_token_count", len(result.StatTokens)),
		attribute.Int("time_frame_count", len(result.TimeFrames)),
		attribute.Bool("self_reference", selfFound),
	)

	e.logger.Debug("question extracted",
		slog.Int("entities", len(result.Entities)),
		slog.Int("stat_tokens", len(result.StatTokens)),
		slog.Int("indicators", len(result.Indicators)),
		slog.Int("time_frames", len(result.TimeFrames)),
		slog.Duration("duration", duration),
	)

	return result, nil
}

// scanCategory runs one matcher and converts its matches to tokens.
func (e *Extractor) scanCategory(ctx context.Context, m *Matcher, question string) []Token {
	if err := ctx.Err(); err != nil {
		return nil
	}
	matches := m.Scan(question)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, match := range matches {
		tokens = append(tokens, Token{
			Value:  match.Token,
			Phrase: match.Phrase,
			Text:   match.Text,
			Start:  match.Start,
			End:    match.End,
		})
	}
	return tokens
}

// suppressClaimed drops tokens overlapping any claimed span.
func suppressClaimed(tokens []Token, claimed spanSet) []Token {
	if len(claimed) == 0 || len(tokens) == 0 {
		return tokens
	}
	kept := tokens[:0]
	for _, t := range tokens {
		if claimed.overlaps(t.Start, t.End) {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// recordMetrics increments the per-category match counters.
func (e *Extractor) recordMetrics(r *Result) {
	total := 0
	for category, n := range map[string]int{
		"entities":          len(r.Entities),
		"stat_tokens":       len(r.StatTokens),
		"indicators":        len(r.Indicators),
		"question_types":    len(r.QuestionTypes),
		"negations":         len(r.Negations),
		"locations":         len(r.Locations),
		"time_frames":       len(r.TimeFrames),
		"competition_types": len(r.CompetitionTypes),
		"competitions":      len(r.Competitions),
		"results":           len(r.Results),
	} {
		if n > 0 {
			extractMatchesTotal.WithLabelValues(category).Add(float64(n))
			total += n
		}
	}
	if total == 0 {
		extractEmptyTotal.Inc()
	}
}
