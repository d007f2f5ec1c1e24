// Package search ranks the records of a collection against a free-text query.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/profile"
	"github.com/underdogdevs/mentormatch/internal/store"
	"github.com/underdogdevs/mentormatch/internal/textrank"
)

// ErrEmptyQuery is returned for a blank or whitespace-only query.
var ErrEmptyQuery = errors.New("empty search query")

// Result is a record with its relevance to the query.
type Result struct {
	Record profile.Record `json:"record"`
	Score  float64        `json:"score"`
}

type Engine struct {
	store   store.Store
	weights textrank.FieldWeights
	logger  *zap.Logger
}

// NewEngine returns an Engine over st. A nil weights map uses
// textrank.DefaultFieldWeights.
func NewEngine(st store.Store, weights textrank.FieldWeights, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if weights == nil {
		weights = textrank.DefaultFieldWeights()
	}
	return &Engine{store: st, weights: weights, logger: logger}
}

// Search returns the records of collection that share at least one token
// with query, most relevant first. A limit of zero or less returns every hit.
func (e *Engine) Search(ctx context.Context, collection, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	terms := textrank.Terms(query)
	if len(terms) == 0 {
		// Punctuation only: nothing can overlap.
		return []Result{}, nil
	}

	records, err := e.store.QueryAll(ctx, collection, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	corpus := textrank.NewCorpus(records, e.weights)

	results := make([]Result, 0)
	for i, rec := range records {
		score := corpus.ScoreAt(terms, i)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Record: rec, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.ID() < results[j].Record.ID()
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	e.logger.Debug("search",
		zap.String("collection", collection),
		zap.Strings("terms", terms),
		zap.Int("candidates", len(records)),
		zap.Int("hits", len(results)),
	)

	return results, nil
}

// Records strips the scores, keeping order.
func Records(results []Result) []profile.Record {
	out := make([]profile.Record, 0, len(results))
	for _, r := range results {
		out = append(out, r.Record)
	}
	return out
}
