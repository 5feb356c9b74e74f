// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var metricResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stats",
	Subsystem: "resolve",
	Name:      "metric_resolutions_total",
	Help:      "Metric token resolutions by outcome",
}, []string{"outcome"})

// =============================================================================
// Metric Resolver
// =============================================================================

// MetricMatch is one resolved metric and how it matched.
type MetricMatch struct {
	// Key is the canonical metric.
	Key config.MetricKey

	// Alias is the pseudonym that matched, lowercased.
	Alias string

	// Score is the similarity that accepted the match; 1.0 when exact.
	Score float64

	// Exact distinguishes alias-table hits from fuzzy acceptance.
	Exact bool
}

// neverMetrics are words that look like vocabulary but carry filter
// semantics instead. A bare "home" is a kit or a location, never a stat;
// the location filter is gated separately on an explicit location phrase.
var neverMetrics = map[string]bool{
	"home": true,
	"away": true,
}

// MetricResolver resolves stat pseudonyms to canonical metric keys.
//
// # Thread Safety
//
// Immutable after construction; safe for concurrent use.
type MetricResolver struct {
	vocab   *config.Vocabulary
	aliases []config.AliasEntry
	logger  *slog.Logger
}

// NewMetricResolver builds a resolver over the vocabulary's alias table.
func NewMetricResolver(vocab *config.Vocabulary, logger *slog.Logger) *MetricResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricResolver{
		vocab: vocab,
		// Longest-first, then lexicographic: iterating in order with a
		// strictly-greater acceptance implements the tie-break.
		aliases: vocab.AliasesLongestFirst(),
		logger:  logger,
	}
}

// Resolve maps one token to a metric.
//
// # Description
//
//	Exact alias hits short-circuit at score 1.0. Otherwise the token is
//	scored against every alias and the best candidate at or above
//	SimilarityThreshold wins; ties go to the longer alias, then the
//	lexicographically smaller one. A token below threshold resolves to
//	nothing with ok=false.
//
// Inputs:
//   - token: Free text; case and padding are ignored.
//
// Outputs:
//   - MetricMatch: The winning metric, alias, and score.
//   - bool: False when nothing reached the threshold.
//
// Thread Safety: Safe for concurrent use.
func (r *MetricResolver) Resolve(token string) (MetricMatch, bool) {
	term := strings.ToLower(strings.TrimSpace(token))
	if term == "" || neverMetrics[term] {
		return MetricMatch{}, false
	}

	if key, ok := r.vocab.MetricForAlias(term); ok {
		metricResolutionsTotal.WithLabelValues("exact").Inc()
		return MetricMatch{Key: key, Alias: term, Score: 1, Exact: true}, true
	}

	var best MetricMatch
	found := false
	for _, entry := range r.aliases {
		score := Similarity(term, entry.Alias)
		if score < SimilarityThreshold {
			continue
		}
		if !found || score > best.Score {
			best = MetricMatch{Key: entry.Key, Alias: entry.Alias, Score: score}
			found = true
		}
	}
	if !found {
		metricResolutionsTotal.WithLabelValues("miss").Inc()
		return MetricMatch{}, false
	}

	metricResolutionsTotal.WithLabelValues("fuzzy").Inc()
	r.logger.Debug("fuzzy metric resolution",
		"token", term,
		"alias", best.Alias,
		"metric", best.Key,
		"score", best.Score,
	)
	return best, true
}

// ResolveAny resolves the best metric across several candidate terms.
// Terms inside detected player names must not be offered here; the caller
// filters them out before calling.
func (r *MetricResolver) ResolveAny(terms []string) (MetricMatch, bool) {
	var best MetricMatch
	found := false
	for _, term := range terms {
		m, ok := r.Resolve(term)
		if !ok {
			continue
		}
		if !found || m.Score > best.Score {
			best = m
			found = true
		}
		if best.Exact {
			break
		}
	}
	return best, found
}

// AppearanceMetric decides what an appearance token means alongside the
// question's other metrics. In a plain games-count question it stays the
// appearance count. Otherwise, if a co-occurring metric has a derived
// per-appearance form ("goals" alongside "appearance"), the pair collapses
// to that derived metric.
func AppearanceMetric(plainCount bool, others []config.MetricKey) config.MetricKey {
	if plainCount {
		return config.MetricAppearances
	}
	for _, key := range others {
		if key == config.MetricAppearances {
			continue
		}
		if derived := config.PerAppearanceForm(key); derived != "" {
			return derived
		}
	}
	return config.MetricAppearances
}
