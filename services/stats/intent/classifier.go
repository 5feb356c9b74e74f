// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package intent

import (
	"log/slog"
	"regexp"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/config"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/extract"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stats",
	Subsystem: "intent",
	Name:      "classifications_total",
	Help:      "Classified questions by kind",
}, []string{"kind"})

// =============================================================================
// Phrase Patterns
// =============================================================================

var (
	// sharedCountPattern is the "how many ... with ..." shape.
	sharedCountPattern = regexp.MustCompile(`(?i)\bhow\s+many\b.+\bwith\b`)

	// playedWithPattern is generic shared-fixture phrasing.
	playedWithPattern = regexp.MustCompile(`(?i)\bplay(?:ed|s)?\s+with\b|\bteammates?\b`)

	// oppositionMostPattern pairs an opponent marker with a superlative,
	// in either order.
	oppositionMostPattern = regexp.MustCompile(
		`(?i)\b(?:against|versus|vs)\b[^?]*\b(?:most|least)\b` +
			`|\b(?:most|least)\b[^?]*\b(?:against|versus|vs)\b` +
			`|\bopponents?\b|\bopposition\b`)

	// topNPattern captures an explicit "top N".
	topNPattern = regexp.MustCompile(`(?i)\btop\s+(\d{1,3})\b`)
)

// superlativeTokens are the indicator tokens that imply a ranking.
// "average" is an aggregate qualifier, not a superlative.
var superlativeTokens = map[string]bool{
	"highest":  true,
	"lowest":   true,
	"most":     true,
	"least":    true,
	"longest":  true,
	"shortest": true,
}

// ascendingTokens flip ranking order toward the low end.
var ascendingTokens = map[string]bool{
	"lowest":   true,
	"least":    true,
	"shortest": true,
}

// ParseExplicitLimit returns the N of an explicit "top N", or 0.
func ParseExplicitLimit(question string) int {
	m := topNPattern.FindStringSubmatch(question)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Superlative reports whether any indicator token implies a ranking.
func Superlative(indicators []extract.Token) bool {
	for _, tok := range indicators {
		if superlativeTokens[tok.Value] {
			return true
		}
	}
	return false
}

// Ascending reports whether the indicators ask for the low end of the
// ranking ("worst", "fewest", "lowest").
func Ascending(indicators []extract.Token) bool {
	for _, tok := range indicators {
		if ascendingTokens[tok.Value] {
			return true
		}
	}
	return false
}

// =============================================================================
// Classifier
// =============================================================================

// Signals is the classifier's input: the question, its extraction, and the
// metric resolution outcome.
type Signals struct {
	Question   string
	Extraction *extract.Result

	// Metric and MetricResolved carry the resolver's verdict.
	Metric         config.MetricKey
	MetricResolved bool
}

// Classification is the decided kind plus the evidence for the trace.
type Classification struct {
	Kind Kind `json:"kind"`

	// Rule names the ladder rule that fired.
	Rule string `json:"rule"`

	// Evidence lists the tokens and phrases that drove the decision.
	Evidence []string `json:"evidence,omitempty"`
}

// Classifier applies the priority ladder. Stateless; safe for concurrent
// use.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier builds a Classifier.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Classify walks the ladder top to bottom; the first rule that holds wins.
//
// # Description
//
//	Order matters and is fixed: shared-count pairwise, played-with
//	relationship, opposition summary, honours, ranking, player metric,
//	fallback. A question matching several rules gets the highest one, so
//	"how many games have I played with Luke Bangs" is pairwise even
//	though it also reads as a count question.
//
// Inputs:
//   - sig: Question text, extraction result, metric resolution.
//
// Outputs:
//   - Classification: Kind, the rule that fired, and its evidence.
//
// Thread Safety: Safe for concurrent use.
func (c *Classifier) Classify(sig Signals) Classification {
	out := c.classify(sig)
	classificationsTotal.WithLabelValues(string(out.Kind)).Inc()
	c.logger.Debug("question classified",
		"kind", out.Kind,
		"rule", out.Rule,
		"evidence", out.Evidence,
	)
	return out
}

func (c *Classifier) classify(sig Signals) Classification {
	players := sig.Extraction.Players()
	teams := sig.Extraction.Teams()

	// Rule 1: two players sharing a count question.
	if len(players) >= 2 && sharedCountPattern.MatchString(sig.Question) {
		return Classification{
			Kind:     KindPairwise,
			Rule:     "shared_count",
			Evidence: playerValues(players[:2]),
		}
	}

	// Rule 2: played-with phrasing. Two named players make it a pair
	// count even without "how many"; one player asks for the partner
	// list.
	if playedWithPattern.MatchString(sig.Question) {
		if len(players) >= 2 {
			return Classification{
				Kind:     KindPairwise,
				Rule:     "played_with_pair",
				Evidence: playerValues(players[:2]),
			}
		}
		if len(players) == 1 {
			return Classification{
				Kind:     KindTeammates,
				Rule:     "played_with",
				Evidence: playerValues(players),
			}
		}
	}

	// Rule 3: which opponent a player has faced the most.
	if len(players) >= 1 && oppositionMostPattern.MatchString(sig.Question) {
		return Classification{
			Kind:     KindOppositionSummary,
			Rule:     "opposition_most",
			Evidence: playerValues(players[:1]),
		}
	}

	// Rule 4: award metrics go to the honours tables.
	if sig.MetricResolved && sig.Metric.IsAward() {
		return Classification{
			Kind:     KindHonours,
			Rule:     "award_metric",
			Evidence: []string{string(sig.Metric)},
		}
	}

	// Rule 5: superlative subject hunting, or an explicit top N.
	if n := ParseExplicitLimit(sig.Question); n > 0 {
		return Classification{
			Kind:     KindRanking,
			Rule:     "explicit_top_n",
			Evidence: []string{"top " + strconv.Itoa(n)},
		}
	}
	if Superlative(sig.Extraction.Indicators) && asksForSubject(sig.Extraction.QuestionTypes) {
		return Classification{
			Kind:     KindRanking,
			Rule:     "superlative_subject",
			Evidence: tokenValues(sig.Extraction.Indicators),
		}
	}

	// Rule 6: a subject plus a resolvable metric.
	if (len(players) >= 1 || len(teams) >= 1) && sig.MetricResolved {
		evidence := []string{string(sig.Metric)}
		if len(players) > 0 {
			evidence = append(evidence, players[0].Value)
		} else {
			evidence = append(evidence, teams[0].Value)
		}
		return Classification{
			Kind:     KindPlayerMetric,
			Rule:     "subject_metric",
			Evidence: evidence,
		}
	}

	// Rule 7: nothing resolvable.
	return Classification{Kind: KindNoContext, Rule: "fallback"}
}

// asksForSubject reports whether the question hunts for a person or team
// ("who", "which") rather than a quantity.
func asksForSubject(questionTypes []extract.Token) bool {
	for _, tok := range questionTypes {
		if tok.Value == "who" || tok.Value == "which" {
			return true
		}
	}
	return false
}

func playerValues(players []extract.Entity) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.Value)
	}
	return out
}

func tokenValues(tokens []extract.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Value)
	}
	return out
}
