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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/query"
	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats/store"
)

var resolveTracer = otel.Tracer("dorkinians.stats.resolve")

// =============================================================================
// Directory
// =============================================================================

// Category selects which name list a directory lookup searches.
type Category string

const (
	CategoryPlayer     Category = "player"
	CategoryOpposition Category = "opposition"
	CategoryLeague     Category = "league"
)

// Match is one directory hit: the canonical stored name and its score.
type Match struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Directory finds the canonical name behind a free-text mention.
type Directory interface {
	// BestMatch resolves term within a category. ok=false means nothing
	// reached the threshold; error is reserved for store faults.
	BestMatch(ctx context.Context, term string, category Category) (Match, bool, error)
}

// =============================================================================
// Store-Backed Directory
// =============================================================================

// directoryStatements maps each category to its name-list statement.
var directoryStatements = map[Category]func() query.Statement{
	CategoryPlayer:     query.PlayerNames,
	CategoryOpposition: query.OppositionNames,
	CategoryLeague:     query.LeagueNames,
}

// StoreDirectory resolves mentions against name lists loaded from the
// graph. Lists load on demand and refresh explicitly; lookups run against
// the in-memory copy.
//
// # Thread Safety
//
// Safe for concurrent use. Loads replace whole lists under the write lock;
// lookups hold the read lock.
type StoreDirectory struct {
	exec   store.Executor
	logger *slog.Logger

	mu    sync.RWMutex
	names map[Category][]string
}

// NewStoreDirectory builds an empty directory over the executor. Call Load
// (or let the first lookup trigger it) before serving traffic.
func NewStoreDirectory(exec store.Executor, logger *slog.Logger) *StoreDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreDirectory{
		exec:   exec,
		logger: logger,
		names:  make(map[Category][]string),
	}
}

// Load fetches every category's name list and swaps them in.
func (d *StoreDirectory) Load(ctx context.Context) error {
	ctx, span := resolveTracer.Start(ctx, "resolve.directory.load")
	defer span.End()

	fresh := make(map[Category][]string, len(directoryStatements))
	for category, stmt := range directoryStatements {
		names, err := d.fetch(ctx, stmt())
		if err != nil {
			return fmt.Errorf("loading %s directory: %w", category, err)
		}
		fresh[category] = names
	}

	d.mu.Lock()
	d.names = fresh
	d.mu.Unlock()

	total := 0
	for category, names := range fresh {
		span.SetAttributes(attribute.Int("directory."+string(category), len(names)))
		total += len(names)
	}
	d.logger.Info("directory loaded", "names", total)
	return nil
}

// Refresh is Load under its service-facing name.
func (d *StoreDirectory) Refresh(ctx context.Context) error {
	return d.Load(ctx)
}

func (d *StoreDirectory) fetch(ctx context.Context, stmt query.Statement) ([]string, error) {
	rows, err := d.exec.Run(ctx, stmt)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// BestMatch resolves term within one category.
//
// # Description
//
//	Exact case-insensitive hits win at 1.0. Otherwise every stored name is
//	scored and the best at or above SimilarityThreshold is returned; on
//	equal scores the list order (alphabetical from the store) keeps the
//	result deterministic. An empty category list triggers a lazy Load
//	before matching.
//
// Inputs:
//   - ctx: Cancellation for the lazy load.
//   - term: The mention as extracted, any case.
//   - category: Which name list to search.
//
// Outputs:
//   - Match: Canonical name plus score.
//   - bool: False when nothing reached the threshold.
//   - error: Store failure during a lazy load.
//
// Thread Safety: Safe for concurrent use.
func (d *StoreDirectory) BestMatch(ctx context.Context, term string, category Category) (Match, bool, error) {
	cleaned := strings.TrimSpace(term)
	if cleaned == "" {
		return Match{}, false, nil
	}

	names, err := d.categoryNames(ctx, category)
	if err != nil {
		return Match{}, false, err
	}

	lowered := strings.ToLower(cleaned)
	var best Match
	found := false
	for _, name := range names {
		candidate := strings.ToLower(name)
		if candidate == lowered {
			return Match{Name: name, Score: 1}, true, nil
		}
		score := Similarity(lowered, candidate)
		if score < SimilarityThreshold {
			continue
		}
		if !found || score > best.Score {
			best = Match{Name: name, Score: score}
			found = true
		}
	}
	if !found {
		return Match{}, false, nil
	}

	d.logger.Debug("fuzzy directory resolution",
		"term", cleaned,
		"category", category,
		"name", best.Name,
		"score", best.Score,
	)
	return best, true, nil
}

// categoryNames returns the cached list, loading all lists if this one has
// never been populated.
func (d *StoreDirectory) categoryNames(ctx context.Context, category Category) ([]string, error) {
	d.mu.RLock()
	names, ok := d.names[category]
	d.mu.RUnlock()
	if ok && len(names) > 0 {
		return names, nil
	}

	if _, known := directoryStatements[category]; !known {
		return nil, fmt.Errorf("unknown directory category %q", category)
	}
	if err := d.Load(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	names = d.names[category]
	d.mu.RUnlock()
	return names, nil
}
