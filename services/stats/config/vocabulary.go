// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the canonical stat vocabulary and service
// configuration for the stats question pipeline. The vocabulary is the single
// source of truth for metric keys, display forms, and the pseudonym tables
// the extractor matches against.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

var vocabularyTracer = otel.Tracer("dorkinians.stats.config")

// =============================================================================
// Embedded Vocabulary
// =============================================================================

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// MaxVocabularyFileSize caps the embedded vocabulary size. A vocabulary this
// large is a corrupted build, not a real configuration.
const MaxVocabularyFileSize = 1 << 20

// =============================================================================
// Vocabulary Types
// =============================================================================

// MetricConfig describes one canonical statistic: its machine key, the two
// display forms, and the pseudonyms users reach for.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type MetricConfig struct {
	// Key is the canonical machine key (closed MetricKey enum).
	Key MetricKey `yaml:"key"`

	// Label is the short display form used in table headers ("G", "MOM").
	Label string `yaml:"label"`

	// Statement is the sentence display form ("goals scored").
	Statement string `yaml:"statement"`

	// Unit is a rendering hint: count, ratio, or percent.
	Unit string `yaml:"unit"`

	// Aliases are the pseudonyms matched case-insensitively. Never empty.
	// Entries containing \d or .* are deliberate regex patterns; everything
	// else is matched literally.
	Aliases []string `yaml:"aliases"`
}

// TokenPhrases maps one canonical token to the phrases that produce it.
// Used for every non-metric pseudonym table (locations, results, ...).
type TokenPhrases struct {
	Token   string   `yaml:"token"`
	Phrases []string `yaml:"phrases"`
}

// AliasEntry pairs one pseudonym with the metric it resolves to. Alias lists
// handed to the matcher are sorted longest-first so longer pseudonyms always
// win ties.
type AliasEntry struct {
	Alias string
	Key   MetricKey
}

// Vocabulary is the parsed, validated vocabulary file.
//
// # Thread Safety
//
// Immutable after LoadVocabulary returns; accessors return copies.
type Vocabulary struct {
	Metrics          []MetricConfig `yaml:"metrics"`
	Locations        []TokenPhrases `yaml:"locations"`
	TimeFrames       []TokenPhrases `yaml:"timeframes"`
	Results          []TokenPhrases `yaml:"results"`
	Competitions     []TokenPhrases `yaml:"competitions"`
	CompetitionTypes []TokenPhrases `yaml:"competition_types"`
	Indicators       []TokenPhrases `yaml:"indicators"`
	QuestionTypes    []TokenPhrases `yaml:"question_types"`
	Negations        []TokenPhrases `yaml:"negations"`
	Flags            []TokenPhrases `yaml:"flags"`

	// Derived indexes, built once during load.
	byKey      map[MetricKey]MetricConfig
	aliasIndex map[string]MetricKey
	aliases    []AliasEntry
}

// =============================================================================
// Singleton Vocabulary
// =============================================================================

var (
	vocabularyMu      sync.RWMutex
	vocabularyOnce    sync.Once
	cachedVocabulary  *Vocabulary
	vocabularyLoadErr error
)

// GetVocabulary returns the cached vocabulary, loading the embedded file on
// first call.
//
// # Description
//
//	Parses and validates vocabulary.yaml once, then serves the cached value.
//	Validation failures are sticky: every subsequent call returns the same
//	error until ResetVocabulary is called (tests only).
//
// # Outputs
//
//   - *Vocabulary: The loaded vocabulary. Never nil on success.
//   - error: Non-nil if parsing or validation failed.
//
// # Thread Safety
//
// Safe for concurrent use via sync.Once.
func GetVocabulary(ctx context.Context) (*Vocabulary, error) {
	if ctx == nil {
		return nil, fmt.Errorf("GetVocabulary: ctx must not be nil")
	}

	vocabularyMu.RLock()
	if cachedVocabulary != nil || vocabularyLoadErr != nil {
		v, err := cachedVocabulary, vocabularyLoadErr
		vocabularyMu.RUnlock()
		return v, err
	}
	vocabularyMu.RUnlock()

	vocabularyMu.Lock()
	defer vocabularyMu.Unlock()

	vocabularyOnce.Do(func() {
		cachedVocabulary, vocabularyLoadErr = LoadVocabulary(ctx, defaultVocabularyYAML)
	})

	return cachedVocabulary, vocabularyLoadErr
}

// ResetVocabulary clears the cached vocabulary so tests can reload.
func ResetVocabulary() {
	vocabularyMu.Lock()
	defer vocabularyMu.Unlock()
	cachedVocabulary = nil
	vocabularyLoadErr = nil
	vocabularyOnce = sync.Once{}
}

// MustVocabulary loads the embedded vocabulary or panics. The pipeline cannot
// answer anything without it, so startup is the right place to fail.
func MustVocabulary(ctx context.Context) *Vocabulary {
	v, err := GetVocabulary(ctx)
	if err != nil {
		panic(fmt.Sprintf("vocabulary load failed: %v", err))
	}
	return v
}

// =============================================================================
// Loading and Validation
// =============================================================================

// LoadVocabulary parses and validates a vocabulary from YAML bytes.
//
// # Description
//
//	Parses the YAML, checks structural invariants (valid metric keys,
//	non-empty alias lists, no alias claimed by two metrics), and builds the
//	derived indexes: key lookup, case-insensitive alias index, and the
//	longest-first alias ordering.
//
// # Inputs
//
//   - ctx: Context for tracing.
//   - data: Raw YAML bytes.
//
// # Outputs
//
//   - *Vocabulary: The validated vocabulary.
//   - error: Non-nil if parsing or validation fails.
func LoadVocabulary(ctx context.Context, data []byte) (*Vocabulary, error) {
	_, span := vocabularyTracer.Start(ctx, "config.LoadVocabulary")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("LoadVocabulary: empty YAML data")
	}
	if len(data) > MaxVocabularyFileSize {
		return nil, fmt.Errorf("LoadVocabulary: YAML data exceeds maximum size (%d > %d)", len(data), MaxVocabularyFileSize)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("LoadVocabulary: parsing YAML: %w", err)
	}

	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("LoadVocabulary: %w", err)
	}

	v.buildIndexes()

	span.SetAttributes(
		attribute.Int("metric_count", len(v.Metrics)),
		attribute.Int("alias_count", len(v.aliases)),
	)
	slog.Info("DW-07: vocabulary loaded",
		slog.Int("metric_count", len(v.Metrics)),
		slog.Int("alias_count", len(v.aliases)),
	)

	return &v, nil
}

func (v *Vocabulary) validate() error {
	if len(v.Metrics) == 0 {
		return fmt.Errorf("no metrics defined")
	}

	seenKeys := make(map[MetricKey]bool, len(v.Metrics))
	seenAliases := make(map[string]MetricKey)

	for _, m := range v.Metrics {
		if !m.Key.IsValid() {
			return fmt.Errorf("metric %q: unknown key", m.Key)
		}
		if seenKeys[m.Key] {
			return fmt.Errorf("metric %q: duplicate key", m.Key)
		}
		seenKeys[m.Key] = true

		if m.Label == "" || m.Statement == "" {
			return fmt.Errorf("metric %q: label and statement are required", m.Key)
		}
		switch m.Unit {
		case "count", "ratio", "percent":
		default:
			return fmt.Errorf("metric %q: invalid unit %q", m.Key, m.Unit)
		}
		if len(m.Aliases) == 0 {
			return fmt.Errorf("metric %q: alias list must not be empty", m.Key)
		}

		for _, alias := range m.Aliases {
			folded := strings.ToLower(strings.TrimSpace(alias))
			if folded == "" {
				return fmt.Errorf("metric %q: blank alias", m.Key)
			}
			if prior, dup := seenAliases[folded]; dup {
				return fmt.Errorf("alias %q claimed by both %q and %q", folded, prior, m.Key)
			}
			seenAliases[folded] = m.Key
		}
	}

	for _, table := range []struct {
		name    string
		entries []TokenPhrases
	}{
		{"locations", v.Locations},
		{"timeframes", v.TimeFrames},
		{"results", v.Results},
		{"competitions", v.Competitions},
		{"competition_types", v.CompetitionTypes},
		{"indicators", v.Indicators},
		{"question_types", v.QuestionTypes},
		{"negations", v.Negations},
		{"flags", v.Flags},
	} {
		seen := make(map[string]bool)
		for _, tp := range table.entries {
			if tp.Token == "" {
				return fmt.Errorf("%s: blank token", table.name)
			}
			if seen[tp.Token] {
				return fmt.Errorf("%s: duplicate token %q", table.name, tp.Token)
			}
			seen[tp.Token] = true
			if len(tp.Phrases) == 0 {
				return fmt.Errorf("%s: token %q has no phrases", table.name, tp.Token)
			}
		}
	}

	return nil
}

func (v *Vocabulary) buildIndexes() {
	v.byKey = make(map[MetricKey]MetricConfig, len(v.Metrics))
	v.aliasIndex = make(map[string]MetricKey)
	v.aliases = nil

	for _, m := range v.Metrics {
		v.byKey[m.Key] = m
		for _, alias := range m.Aliases {
			folded := strings.ToLower(strings.TrimSpace(alias))
			v.aliasIndex[folded] = m.Key
			v.aliases = append(v.aliases, AliasEntry{Alias: folded, Key: m.Key})
		}
	}

	// Longest first, then lexicographic so identical-length ties are stable.
	sort.Slice(v.aliases, func(i, j int) bool {
		if len(v.aliases[i].Alias) != len(v.aliases[j].Alias) {
			return len(v.aliases[i].Alias) > len(v.aliases[j].Alias)
		}
		return v.aliases[i].Alias < v.aliases[j].Alias
	})
}

// =============================================================================
// Accessors
// =============================================================================

// MetricByKey returns the metric config for a canonical key.
func (v *Vocabulary) MetricByKey(key MetricKey) (MetricConfig, bool) {
	m, ok := v.byKey[key]
	return m, ok
}

// MetricForAlias returns the metric key an exact pseudonym resolves to.
// Matching is case-insensitive. The boolean is false for unknown aliases.
func (v *Vocabulary) MetricForAlias(alias string) (MetricKey, bool) {
	key, ok := v.aliasIndex[strings.ToLower(strings.TrimSpace(alias))]
	return key, ok
}

// AliasesLongestFirst returns every (alias, key) pair ordered longest alias
// first. The slice is a copy; callers may reorder it.
func (v *Vocabulary) AliasesLongestFirst() []AliasEntry {
	out := make([]AliasEntry, len(v.aliases))
	copy(out, v.aliases)
	return out
}

// DisplayLabel returns the table-header form for a key, falling back to the
// raw key for unknown metrics so rendering never breaks.
func (v *Vocabulary) DisplayLabel(key MetricKey) string {
	if m, ok := v.byKey[key]; ok {
		return m.Label
	}
	return string(key)
}

// DisplayStatement returns the sentence form for a key ("goals scored").
func (v *Vocabulary) DisplayStatement(key MetricKey) string {
	if m, ok := v.byKey[key]; ok {
		return m.Statement
	}
	return string(key)
}

// tableCopy defensively copies a TokenPhrases slice.
func tableCopy(in []TokenPhrases) []TokenPhrases {
	out := make([]TokenPhrases, len(in))
	for i, tp := range in {
		phrases := make([]string, len(tp.Phrases))
		copy(phrases, tp.Phrases)
		out[i] = TokenPhrases{Token: tp.Token, Phrases: phrases}
	}
	return out
}

// LocationTable returns the location pseudonym table.
func (v *Vocabulary) LocationTable() []TokenPhrases { return tableCopy(v.Locations) }

// TimeFrameTable returns the relative time-frame pseudonym table.
func (v *Vocabulary) TimeFrameTable() []TokenPhrases { return tableCopy(v.TimeFrames) }

// ResultTable returns the result pseudonym table.
func (v *Vocabulary) ResultTable() []TokenPhrases { return tableCopy(v.Results) }

// CompetitionTable returns the named-competition pseudonym table.
func (v *Vocabulary) CompetitionTable() []TokenPhrases { return tableCopy(v.Competitions) }

// CompetitionTypeTable returns the competition-type pseudonym table.
func (v *Vocabulary) CompetitionTypeTable() []TokenPhrases { return tableCopy(v.CompetitionTypes) }

// IndicatorTable returns the superlative/indicator pseudonym table.
func (v *Vocabulary) IndicatorTable() []TokenPhrases { return tableCopy(v.Indicators) }

// QuestionTypeTable returns the question-type pseudonym table.
func (v *Vocabulary) QuestionTypeTable() []TokenPhrases { return tableCopy(v.QuestionTypes) }

// NegationTable returns the negative-clause pseudonym table.
func (v *Vocabulary) NegationTable() []TokenPhrases { return tableCopy(v.Negations) }

// FlagTable returns the boolean-flag pseudonym table.
func (v *Vocabulary) FlagTable() []TokenPhrases { return tableCopy(v.Flags) }
