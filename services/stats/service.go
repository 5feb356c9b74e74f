// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stats answers natural-language questions about club statistics.
// One Answer call runs the whole pipeline: extraction, alias resolution,
// intent classification, statement synthesis, store execution, and result
// normalization, with a per-request trace instead of any global debug
// state.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/extract"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/intent"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/query"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/resolve"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/store"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	asksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stats",
		Subsystem: "service",
		Name:      "asks_total",
		Help:      "Answered questions by outcome",
	}, []string{"outcome"})

	askLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stats",
		Subsystem: "service",
		Name:      "ask_duration_seconds",
		Help:      "End-to-end answer latency",
		Buckets:   prometheus.DefBuckets,
	})
)

var serviceTracer = otel.Tracer("dorkinians.stats.service")

// =============================================================================
// Requests
// =============================================================================

// AskContext carries caller-side defaults: who "I" is, and filters the
// question itself did not bind.
type AskContext struct {
	Player          string `json:"player,omitempty"`
	Team            string `json:"team,omitempty"`
	Season          string `json:"season,omitempty"`
	Location        string `json:"location,omitempty"`
	CompetitionType string `json:"competition_type,omitempty"`
}

// AskRequest is one question plus its context.
type AskRequest struct {
	Question     string     `json:"question"`
	Context      AskContext `json:"context"`
	IncludeTrace bool       `json:"include_trace"`
}

// playerNotFound is the typed miss for a player mention. It maps to the
// player_not_found outcome, never to an HTTP error.
type playerNotFound struct {
	mention string
}

func (e *playerNotFound) Error() string {
	return fmt.Sprintf("no player matching %q", e.mention)
}

// =============================================================================
// Service
// =============================================================================

// Service wires the pipeline stages together.
//
// # Thread Safety
//
// Safe for concurrent use; every stage is either immutable or internally
// synchronized.
type Service struct {
	vocab      *config.Vocabulary
	extractor  *extract.Extractor
	metrics    *resolve.MetricResolver
	directory  resolve.Directory
	classifier *intent.Classifier
	exec       store.Executor
	logger     *slog.Logger

	// now is swappable for season-arithmetic tests.
	now func() time.Time
}

// NewService builds the full pipeline over one vocabulary and executor.
func NewService(vocab *config.Vocabulary, exec store.Executor, directory resolve.Directory, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	extractor, err := extract.NewExtractor(vocab, extract.DefaultConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("building extractor: %w", err)
	}
	return &Service{
		vocab:      vocab,
		extractor:  extractor,
		metrics:    resolve.NewMetricResolver(vocab, logger),
		directory:  directory,
		classifier: intent.NewClassifier(logger),
		exec:       exec,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Answer runs the pipeline for one question.
//
// # Description
//
//	Extracts entities and tokens, resolves the metric, classifies the
//	intent, synthesizes and executes the matching statement shape, and
//	wraps the normalized result in an Envelope. Resolution misses, an
//	unsupported metric, and store faults are outcomes inside the
//	envelope; the error return is reserved for invalid input (empty or
//	over-long questions), which the HTTP layer maps to 400.
//
// Inputs:
//   - ctx: Cancellation, deadline, and tracing context.
//   - req: The question, caller context, and trace switch.
//
// Outputs:
//   - Envelope: The answer, whatever the outcome.
//   - error: Invalid input only.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) Answer(ctx context.Context, req AskRequest) (Envelope, error) {
	ctx, span := serviceTracer.Start(ctx, "stats.answer")
	defer span.End()
	start := time.Now()
	tr := newTraceLog(req.IncludeTrace)

	if strings.TrimSpace(req.Question) == "" {
		return Envelope{}, errors.New("question is empty")
	}

	res, err := s.extractor.Extract(ctx, req.Question)
	if err != nil {
		return Envelope{}, fmt.Errorf("invalid question: %w", err)
	}
	tr.add("extract", fmt.Sprintf("%d entities, %d stat tokens, %d time frames",
		len(res.Entities), len(res.StatTokens), len(res.TimeFrames)))

	metric, metricOK := s.resolveMetric(req.Question, res, tr)

	cls := s.classifier.Classify(intent.Signals{
		Question:       req.Question,
		Extraction:     res,
		Metric:         metric,
		MetricResolved: metricOK,
	})
	tr.add("classify", fmt.Sprintf("%s via %s", cls.Kind, cls.Rule))

	env := s.answerByKind(ctx, req, res, cls, metric, tr)
	env.Question = req.Question
	env.Trace = tr.list()

	asksTotal.WithLabelValues(string(env.Type)).Inc()
	askLatency.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("stats.intent", string(cls.Kind)),
		attribute.String("stats.outcome", string(env.Type)),
	)
	s.logger.Info("question answered",
		"intent", cls.Kind,
		"outcome", env.Type,
		"elapsed", time.Since(start),
	)
	return env, nil
}

// =============================================================================
// Metric Resolution
// =============================================================================

var candidateWordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z+/']*`)

// resolveMetric picks the question's metric: exact stat tokens first, the
// appearance collapse across multiple tokens, then a fuzzy pass over the
// question's unclaimed words.
func (s *Service) resolveMetric(question string, res *extract.Result, tr *traceLog) (config.MetricKey, bool) {
	var keys []config.MetricKey
	for _, st := range res.StatTokens {
		if key, err := config.ParseMetricKey(st.Value); err == nil {
			keys = append(keys, key)
		}
	}

	switch {
	case len(keys) == 0:
		m, ok := s.metrics.ResolveAny(fuzzyCandidates(question, res))
		if !ok {
			return "", false
		}
		tr.add("resolve", fmt.Sprintf("fuzzy %q -> %s (%.2f)", m.Alias, m.Key, m.Score))
		return m.Key, true

	case len(keys) == 1:
		tr.add("resolve", string(keys[0]))
		return keys[0], true

	default:
		metric := collapseMetrics(keys)
		tr.add("resolve", fmt.Sprintf("%v -> %s", keys, metric))
		return metric, true
	}
}

// collapseMetrics folds an appearance token into a co-occurring metric's
// per-appearance form; otherwise the first token in question order wins.
func collapseMetrics(keys []config.MetricKey) config.MetricKey {
	hasAppearances := false
	others := make([]config.MetricKey, 0, len(keys))
	for _, key := range keys {
		if key == config.MetricAppearances {
			hasAppearances = true
			continue
		}
		others = append(others, key)
	}
	if hasAppearances && len(others) > 0 {
		return resolve.AppearanceMetric(false, others)
	}
	return keys[0]
}

// fuzzyCandidates lists the question's words outside any entity span.
// Words the extractor claimed as names are never offered to the metric
// resolver.
func fuzzyCandidates(question string, res *extract.Result) []string {
	var out []string
	for _, loc := range candidateWordPattern.FindAllStringIndex(question, -1) {
		if loc[1]-loc[0] < 3 {
			continue
		}
		claimed := false
		for _, e := range res.Entities {
			if loc[0] < e.End && e.Start < loc[1] {
				claimed = true
				break
			}
		}
		if !claimed {
			out = append(out, question[loc[0]:loc[1]])
		}
	}
	return out
}

// =============================================================================
// Subject Resolution
// =============================================================================

// resolvePlayers maps player mentions (the self sentinel included) to
// stored names, preserving question order.
func (s *Service) resolvePlayers(ctx context.Context, res *extract.Result, reqCtx AskContext, tr *traceLog) ([]string, error) {
	var out []string
	for _, ent := range res.Players() {
		mention := ent.Value
		if mention == extract.SelfSentinel {
			if reqCtx.Player == "" {
				return nil, &playerNotFound{mention: "I"}
			}
			mention = reqCtx.Player
		}

		match, ok, err := s.directory.BestMatch(ctx, mention, resolve.CategoryPlayer)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &playerNotFound{mention: mention}
		}
		if match.Score < 1 {
			tr.add("resolve", fmt.Sprintf("player %q -> %q (%.2f)", mention, match.Name, match.Score))
		}
		out = append(out, match.Name)
	}
	return out, nil
}

// =============================================================================
// Filter Assembly
// =============================================================================

// buildFilters merges the question's own constraints with the caller
// context; the question always wins. Context season only applies when the
// question bound no time constraint at all.
func (s *Service) buildFilters(ctx context.Context, res *extract.Result, reqCtx AskContext, tr *traceLog) query.Filters {
	var f query.Filters

	if teams := res.Teams(); len(teams) > 0 {
		f.Team = teams[0].Value
	} else if reqCtx.Team != "" {
		if code, ok := s.extractor.CanonicalTeamCode(reqCtx.Team); ok {
			f.Team = code
		}
	}

	for _, frame := range res.TimeFrames {
		switch frame.Kind {
		case extract.FrameSeason:
			if f.Season == "" {
				f.Season = frame.Season
			}
		case extract.FrameBefore:
			if f.BeforeSeason == "" {
				f.BeforeSeason = frame.Season
			}
		case extract.FrameSince:
			if f.SinceYear == 0 {
				f.SinceYear = frame.Year
			}
		case extract.FrameBetween:
			if f.FromYear == 0 {
				f.FromYear, f.ToYear = frame.FromYear, frame.ToYear
			}
		case extract.FrameMonth:
			if f.Month == 0 {
				f.Month, f.MonthYear = frame.Month, frame.Year
			}
		case extract.FrameWeekend:
			// Fixtures carry dates, not week indexes; a weekend narrows
			// to its year.
			if frame.Year > 0 && f.FromYear == 0 {
				f.FromYear, f.ToYear = frame.Year, frame.Year
			}
		case extract.FrameRelative:
			switch frame.Token {
			case "this_season":
				if f.Season == "" {
					f.Season = currentSeason(s.now())
				}
			case "last_season":
				if f.Season == "" {
					f.Season = previousSeason(s.now())
				}
			case "all_time":
				// Explicitly unbounded.
			}
		}
	}
	if reqCtx.Season != "" && !hasTimeConstraint(f) {
		f.Season = reqCtx.Season
	}

	// A bare "home" is a kit or a metaphor; only a full location phrase
	// ("at home", "away from home") binds the filter.
	if res.HasExplicitLocationPhrase() && len(res.Locations) > 0 {
		f.Location = res.Locations[0].Value
	} else if reqCtx.Location != "" {
		f.Location = strings.ToLower(reqCtx.Location)
	}

	if len(res.CompetitionTypes) > 0 {
		f.CompetitionType = res.CompetitionTypes[0].Value
	} else if reqCtx.CompetitionType != "" {
		f.CompetitionType = strings.ToLower(reqCtx.CompetitionType)
	}
	if len(res.Competitions) > 0 {
		f.Competition = res.Competitions[0].Value
	}
	if len(res.Results) > 0 {
		f.Result = res.Results[0].Value
	}

	if opps := res.EntitiesByCategory(extract.CategoryOpposition); len(opps) > 0 {
		f.Opposition = s.canonicalName(ctx, opps[0].Value, resolve.CategoryOpposition, tr)
	}
	if leagues := res.EntitiesByCategory(extract.CategoryLeague); len(leagues) > 0 {
		f.Competition = s.canonicalName(ctx, leagues[0].Value, resolve.CategoryLeague, tr)
		if f.CompetitionType == "" {
			f.CompetitionType = "league"
		}
	}

	return f
}

// canonicalName resolves a mention through the directory, falling back to
// the raw mention when nothing matches. A wrong name then simply matches
// no fixtures, which is an honest answer.
func (s *Service) canonicalName(ctx context.Context, mention string, category resolve.Category, tr *traceLog) string {
	match, ok, err := s.directory.BestMatch(ctx, mention, category)
	if err != nil || !ok {
		return mention
	}
	if match.Score < 1 {
		tr.add("resolve", fmt.Sprintf("%s %q -> %q (%.2f)", category, mention, match.Name, match.Score))
	}
	return match.Name
}

func hasTimeConstraint(f query.Filters) bool {
	return f.Season != "" || f.BeforeSeason != "" || f.SinceYear != 0 ||
		f.FromYear != 0 || f.Month != 0
}

// currentSeason formats the season containing now. Seasons run August
// through July.
func currentSeason(now time.Time) string {
	year := now.Year()
	if now.Month() >= time.August {
		return fmt.Sprintf("%04d/%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%04d/%02d", year-1, year%100)
}

func previousSeason(now time.Time) string {
	return currentSeason(now.AddDate(-1, 0, 0))
}

// minAppearancesPattern reads a sample-size threshold ("more than 20
// games"). "at least N" is inclusive, so it binds as N-1 under the strict
// comparison.
var minAppearancesPattern = regexp.MustCompile(
	`(?i)\b(more than|over|at least)\s+(\d{1,3})\s+(?:games|matches|appearances|apps|caps)\b`)

func parseMinAppearances(question string) int {
	m := minAppearancesPattern.FindStringSubmatch(question)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return 0
	}
	if strings.EqualFold(m[1], "at least") {
		return n - 1
	}
	return n
}

var whichTeamPattern = regexp.MustCompile(`(?i)\bwhich\s+(?:team|side|squad)\b`)

// =============================================================================
// Kind Dispatch
// =============================================================================

// answerByKind synthesizes, executes, and wraps the statement shape for
// the classified kind. The switch is exhaustive over the closed Kind set.
func (s *Service) answerByKind(ctx context.Context, req AskRequest, res *extract.Result, cls intent.Classification, metric config.MetricKey, tr *traceLog) Envelope {
	filters := s.buildFilters(ctx, res, req.Context, tr)
	limits := query.ResolveLimit(
		intent.ParseExplicitLimit(req.Question),
		asksSingular(res),
		intent.Superlative(res.Indicators),
	)
	opts := query.RankOptions{
		Ascending:      intent.Ascending(res.Indicators),
		FetchLimit:     limits.Fetch,
		MinAppearances: parseMinAppearances(req.Question),
	}

	var (
		env Envelope
		err error
	)
	switch cls.Kind {
	case intent.KindPairwise:
		env, err = s.answerPairwise(ctx, req, res, filters, tr)
	case intent.KindTeammates:
		env, err = s.answerTeammates(ctx, req, res, filters, opts, limits, tr)
	case intent.KindOppositionSummary:
		env, err = s.answerOpposition(ctx, req, res, filters, opts, limits, tr)
	case intent.KindHonours:
		env, err = s.answerHonours(ctx, req, res, metric, filters, opts, limits, tr)
	case intent.KindRanking:
		env, err = s.answerRanking(ctx, req, metric, filters, opts, limits, tr)
	case intent.KindPlayerMetric:
		env, err = s.answerPlayerMetric(ctx, req, res, metric, filters, tr)
	case intent.KindNoContext:
		env, err = s.answerNoContext(ctx, tr)
	}
	if err != nil {
		return s.failureEnvelope(err, metric)
	}
	return env
}

// failureEnvelope maps pipeline errors onto their outcomes.
func (s *Service) failureEnvelope(err error, metric config.MetricKey) Envelope {
	var nf *playerNotFound
	if errors.As(err, &nf) {
		return Envelope{
			Type:    OutcomePlayerNotFound,
			Message: fmt.Sprintf("I don't know a player matching %q.", nf.mention),
		}
	}
	if query.IsUnsupportedMetric(err) {
		return Envelope{
			Type:    OutcomeUnsupportedMetric,
			Metric:  string(metric),
			Message: "That stat isn't tracked in a way I can answer.",
		}
	}
	s.logger.Error("store call failed", "error", err)
	return Envelope{
		Type:    OutcomeStoreError,
		Message: "The stats store didn't answer. Try again shortly.",
	}
}

// =============================================================================
// Kind Handlers
// =============================================================================

func (s *Service) answerPairwise(ctx context.Context, req AskRequest, res *extract.Result, filters query.Filters, tr *traceLog) (Envelope, error) {
	players, err := s.resolvePlayers(ctx, res, req.Context, tr)
	if err != nil {
		return Envelope{}, err
	}
	if len(players) < 2 {
		return s.answerNoContext(ctx, tr)
	}

	stmt, err := query.Pairwise(players[0], players[1], filters)
	if err != nil {
		return Envelope{}, err
	}
	rows, err := s.run(ctx, "execute", stmt, tr)
	if err != nil {
		return Envelope{}, err
	}

	var value float64
	if row, ok := rows.First(); ok {
		value = store.Number(row["value"])
	}
	return Envelope{
		Type:   OutcomePairwise,
		Metric: string(config.MetricAppearances),
		Data: map[string]any{
			"players": players[:2],
			"value":   value,
		},
	}, nil
}

func (s *Service) answerTeammates(ctx context.Context, req AskRequest, res *extract.Result, filters query.Filters, opts query.RankOptions, limits query.LimitPolicy, tr *traceLog) (Envelope, error) {
	players, err := s.resolvePlayers(ctx, res, req.Context, tr)
	if err != nil {
		return Envelope{}, err
	}
	if len(players) == 0 {
		return s.answerNoContext(ctx, tr)
	}

	stmt, err := query.Teammates(players[0], filters, opts)
	if err != nil {
		return Envelope{}, err
	}
	rows, err := s.run(ctx, "execute", stmt, tr)
	if err != nil {
		return Envelope{}, err
	}

	env := listEnvelope(OutcomeTeammates, store.Sanitize(rows), limits.Display)
	env.Metric = string(config.MetricAppearances)
	return env, nil
}

func (s *Service) answerOpposition(ctx context.Context, req AskRequest, res *extract.Result, filters query.Filters, opts query.RankOptions, limits query.LimitPolicy, tr *traceLog) (Envelope, error) {
	players, err := s.resolvePlayers(ctx, res, req.Context, tr)
	if err != nil {
		return Envelope{}, err
	}
	if len(players) == 0 {
		return s.answerNoContext(ctx, tr)
	}

	// Grouping by opponent; a resolved opposition mention would filter
	// the grouping down to itself.
	filters.Opposition = ""

	stmt, err := query.OppositionSummary(players[0], filters, opts)
	if err != nil {
		return Envelope{}, err
	}
	rows, err := s.run(ctx, "execute", stmt, tr)
	if err != nil {
		return Envelope{}, err
	}

	env := listEnvelope(OutcomeOpposition, store.Sanitize(rows), limits.Display)
	env.Metric = string(config.MetricAppearances)
	return env, nil
}

func (s *Service) answerHonours(ctx context.Context, req AskRequest, res *extract.Result, metric config.MetricKey, filters query.Filters, opts query.RankOptions, limits query.LimitPolicy, tr *traceLog) (Envelope, error) {
	// A named subject turns the honours question into a specific count.
	if len(res.Players()) > 0 {
		players, err := s.resolvePlayers(ctx, res, req.Context, tr)
		if err != nil {
			return Envelope{}, err
		}
		stmt, err := query.PlayerMetric(players[0], metric, filters)
		if err != nil {
			return Envelope{}, err
		}
		rows, err := s.run(ctx, "execute", stmt, tr)
		if err != nil {
			return Envelope{}, err
		}
		return s.specificEnvelope(players[0], metric, rows), nil
	}

	var (
		stmt query.Statement
		err  error
	)
	if asksWhen(res) {
		stmt, err = query.HonoursRecent(metric, opts)
	} else {
		stmt, err = query.HonoursCount(metric, filters, opts)
	}
	if err != nil {
		return Envelope{}, err
	}
	rows, err := s.run(ctx, "execute", stmt, tr)
	if err != nil {
		return Envelope{}, err
	}

	env := listEnvelope(OutcomeHonours, store.Sanitize(rows), limits.Display)
	env.Metric = string(metric)
	return env, nil
}

func (s *Service) answerRanking(ctx context.Context, req AskRequest, metric config.MetricKey, filters query.Filters, opts query.RankOptions, limits query.LimitPolicy, tr *traceLog) (Envelope, error) {
	if metric == "" {
		// A ranking needs a metric; "who is the best" without a stat
		// defaults to the most-fielded list.
		return s.answerNoContext(ctx, tr)
	}

	var (
		stmt query.Statement
		err  error
	)
	if whichTeamPattern.MatchString(req.Question) {
		stmt, err = query.TeamRanking(metric, filters, opts)
	} else {
		stmt, err = query.Ranking(metric, filters, opts)
	}
	if err != nil {
		return Envelope{}, err
	}
	rows, err := s.run(ctx, "execute", stmt, tr)
	if err != nil {
		return Envelope{}, err
	}

	env := listEnvelope(OutcomeRanking, store.Sanitize(rows), limits.Display)
	env.Metric = string(metric)
	return env, nil
}

func (s *Service) answerPlayerMetric(ctx context.Context, req AskRequest, res *extract.Result, metric config.MetricKey, filters query.Filters, tr *traceLog) (Envelope, error) {
	if res.OppositionOwnGoals {
		stmt, err := query.OppositionOwnGoals(filters)
		if err != nil {
			return Envelope{}, err
		}
		rows, err := s.run(ctx, "execute", stmt, tr)
		if err != nil {
			return Envelope{}, err
		}
		var value float64
		if row, ok := rows.First(); ok {
			value = store.Number(row["value"])
		}
		return Envelope{
			Type:   OutcomeSpecific,
			Metric: "opposition_own_goals",
			Data: map[string]any{
				"subject": "Dorkinians",
				"metric":  "opposition_own_goals",
				"value":   value,
			},
		}, nil
	}

	if len(res.Players()) > 0 {
		players, err := s.resolvePlayers(ctx, res, req.Context, tr)
		if err != nil {
			return Envelope{}, err
		}
		// The lead player is the subject; their filters already carry
		// any opposition or team constraint.
		stmt, err := query.PlayerMetric(players[0], metric, filters)
		if err != nil {
			return Envelope{}, err
		}
		rows, err := s.run(ctx, "execute", stmt, tr)
		if err != nil {
			return Envelope{}, err
		}
		return s.specificEnvelope(players[0], metric, rows), nil
	}

	if teams := res.Teams(); len(teams) > 0 {
		team := teams[0].Value
		filters.Team = ""
		stmt, err := query.TeamAggregate(team, metric, filters)
		if err != nil {
			return Envelope{}, err
		}
		rows, err := s.run(ctx, "execute", stmt, tr)
		if err != nil {
			return Envelope{}, err
		}
		return s.specificEnvelope(team, metric, rows), nil
	}

	return s.answerNoContext(ctx, tr)
}

func (s *Service) answerNoContext(ctx context.Context, tr *traceLog) (Envelope, error) {
	stmt := query.NoContext(query.DefaultDisplayLimit)
	rows, err := s.run(ctx, "execute", stmt, tr)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:    OutcomeNoContext,
		Message: "I couldn't find a player, team, or stat in that question. Here are the club's most fielded players.",
		Data:    store.Sanitize(rows),
	}, nil
}

// =============================================================================
// Envelope Assembly
// =============================================================================

// specificEnvelope wraps a single-value answer.
func (s *Service) specificEnvelope(subject string, metric config.MetricKey, rows store.Rows) Envelope {
	data := map[string]any{
		"subject":   subject,
		"metric":    string(metric),
		"label":     s.vocab.DisplayLabel(metric),
		"statement": s.vocab.DisplayStatement(metric),
	}
	env := Envelope{Type: OutcomeSpecific, Metric: string(metric), Data: data}

	row, ok := rows.First()
	if !ok {
		data["value"] = 0.0
		return env
	}

	if metric == config.MetricPenaltyConversion {
		value := store.NullableNumber(row["value"])
		data["value"] = value
		if value == nil {
			env.Message = fmt.Sprintf("%s has not taken a penalty.", subject)
		}
		return env
	}

	data["value"] = store.Number(row["value"])
	if apps, present := row["appearances"]; present {
		data["appearances"] = store.Number(apps)
	}
	return env
}

// listEnvelope trims over-fetched rows down to the display count, keeping
// the full fetch for expansion.
func listEnvelope(outcome OutcomeType, rows store.Rows, display int) Envelope {
	env := Envelope{Type: outcome, Data: rows}
	if display > 0 && len(rows) > display {
		env.Data = rows[:display]
		env.FullData = rows
	}
	return env
}

// =============================================================================
// Helpers
// =============================================================================

// run executes one statement and records it in the trace.
func (s *Service) run(ctx context.Context, stage string, stmt query.Statement, tr *traceLog) (store.Rows, error) {
	rows, err := s.exec.Run(ctx, stmt)
	if err != nil {
		tr.addStatement(stage, "store error: "+err.Error(), stmt)
		return nil, err
	}
	tr.addStatement(stage, fmt.Sprintf("%d rows", len(rows)), stmt)
	return rows, nil
}

// asksSingular reports whether the phrasing hunts one subject ("who has",
// "which player").
func asksSingular(res *extract.Result) bool {
	for _, tok := range res.QuestionTypes {
		if tok.Value == "who" || tok.Value == "which" {
			return true
		}
	}
	return false
}

// asksWhen reports when-phrasing, which flips honours from counts to the
// most recent winners.
func asksWhen(res *extract.Result) bool {
	for _, tok := range res.QuestionTypes {
		if tok.Value == "when" {
			return true
		}
	}
	return false
}
