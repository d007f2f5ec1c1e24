// Package matcher resolves a mentee, scores the mentor pool against them and
// returns the best ranked mentors.
package matcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/underdogdevs/mentormatch/internal/ai"
	"github.com/underdogdevs/mentormatch/internal/filtering"
	"github.com/underdogdevs/mentormatch/internal/profile"
	"github.com/underdogdevs/mentormatch/internal/ranking"
	"github.com/underdogdevs/mentormatch/internal/scoring"
	"github.com/underdogdevs/mentormatch/internal/store"
)

const (
	// DefaultWorkers bounds parallel scoring when no limit is configured.
	DefaultWorkers = 4
	// parallelThreshold is the pool size above which scoring fans out.
	parallelThreshold = 64
)

// ErrProfileNotFound is returned when the requested mentee does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// Match is one ranked mentor for a mentee.
type Match struct {
	Profile *profile.Profile `json:"-"`
	// Record is the mentor document as stored.
	Record       profile.Record `json:"record"`
	Score        float64        `json:"score"`
	Introduction string         `json:"introduction,omitempty"`
}

// Options configures a Matcher. Zero values select defaults.
type Options struct {
	Weights    scoring.Weights
	Workers    int
	Filters    []filtering.Filter
	Introducer ai.Introducer
	Logger     *zap.Logger
}

// Matcher is safe for concurrent use once constructed.
type Matcher struct {
	store      store.Store
	scorer     *scoring.Scorer
	filters    []filtering.Filter
	introducer ai.Introducer
	workers    int
	logger     *zap.Logger
}

// New builds a Matcher over st. The weights must already be validated.
func New(st store.Store, opts Options) *Matcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	weights := opts.Weights
	if weights == (scoring.Weights{}) {
		weights = scoring.DefaultWeights()
	}

	return &Matcher{
		store:      st,
		scorer:     scoring.NewScorer(weights),
		filters:    opts.Filters,
		introducer: opts.Introducer,
		workers:    workers,
		logger:     logger,
	}
}

// Match returns at most n mentors for the mentee with menteeID, best first.
func (m *Matcher) Match(ctx context.Context, menteeID string, n int) ([]Match, error) {
	if err := ranking.ValidateCount(n); err != nil {
		return nil, err
	}

	mentee, err := m.mentee(ctx, menteeID)
	if err != nil {
		return nil, err
	}

	logger := m.logger.With(zap.String("mentee_id", mentee.ID))

	records, err := m.store.QueryAll(ctx, profile.CollectionMentors, nil)
	if err != nil {
		return nil, fmt.Errorf("getting mentors: %w", err)
	}

	mentors, byID := decodeMentors(records, logger)
	logger.Debug("mentor pool", zap.Int("count", len(mentors)))

	pool, err := filtering.Run(ctx, filtering.Deps{Logger: logger, Mentee: mentee}, m.filters, filtering.NewPool(mentors))
	if err != nil {
		return nil, fmt.Errorf("filtering mentors: %w", err)
	}
	logger.Debug("filtered mentor pool", zap.Strings("mentor_ids", pool.IDs()))

	candidates, err := m.score(ctx, mentee, pool.Items)
	if err != nil {
		return nil, err
	}

	ranked, err := ranking.Rank(candidates, n)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(ranked))
	for _, c := range ranked {
		matches = append(matches, Match{
			Profile: c.Mentor,
			Record:  byID[c.Mentor.ID],
			Score:   c.Score,
		})
	}

	m.introduce(ctx, mentee, matches, logger)

	logger.Info("matched mentors", zap.Int("requested", n), zap.Int("returned", len(matches)))
	return matches, nil
}

// mentee resolves menteeID in the mentee collection. An id that is only
// known as a mentor fails with profile.ErrInvalidRole.
func (m *Matcher) mentee(ctx context.Context, menteeID string) (*profile.Profile, error) {
	rec, err := m.store.Get(ctx, profile.CollectionMentees, menteeID)
	if err == nil {
		return profile.FromRecord(rec, profile.RoleMentee)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("getting mentee %s: %w", menteeID, err)
	}

	_, err = m.store.Get(ctx, profile.CollectionMentors, menteeID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s is a mentor, want a mentee", profile.ErrInvalidRole, menteeID)
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, menteeID)
	default:
		return nil, fmt.Errorf("getting mentor %s: %w", menteeID, err)
	}
}

func decodeMentors(records []profile.Record, logger *zap.Logger) ([]*profile.Profile, map[string]profile.Record) {
	mentors := make([]*profile.Profile, 0, len(records))
	byID := make(map[string]profile.Record, len(records))

	for _, rec := range records {
		mentor, err := profile.FromRecord(rec, profile.RoleMentor)
		if err != nil {
			logger.Warn("skipping mentor record", zap.String("profile_id", rec.ID()), zap.Error(err))
			continue
		}
		mentors = append(mentors, mentor)
		byID[mentor.ID] = rec
	}

	return mentors, byID
}

// score computes a candidate per mentor. Large pools are scored in parallel;
// each worker writes only its own slot so the result equals the sequential one.
func (m *Matcher) score(ctx context.Context, mentee *profile.Profile, mentors []*profile.Profile) ([]ranking.Candidate, error) {
	candidates := make([]ranking.Candidate, len(mentors))

	scoreOne := func(i int) error {
		s, err := m.scorer.Score(mentee, mentors[i])
		if err != nil {
			return err
		}
		candidates[i] = ranking.Candidate{
			Mentor: mentors[i],
			Score:  s,
			Gap:    profile.Gap(mentee.Level, mentors[i].Level),
		}
		return nil
	}

	if len(mentors) <= parallelThreshold || m.workers == 1 {
		for i := range mentors {
			if err := scoreOne(i); err != nil {
				return nil, err
			}
		}
		return candidates, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i := range mentors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return scoreOne(i)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func (m *Matcher) introduce(ctx context.Context, mentee *profile.Profile, matches []Match, logger *zap.Logger) {
	if m.introducer == nil {
		return
	}

	for i := range matches {
		msg, err := m.introducer.Introduce(ctx, mentee, matches[i].Profile, matches[i].Score)
		if err != nil {
			logger.Warn("drafting introduction failed",
				zap.String("mentor_id", matches[i].Profile.ID),
				zap.Error(err),
			)
			continue
		}
		matches[i].Introduction = msg
	}
}
