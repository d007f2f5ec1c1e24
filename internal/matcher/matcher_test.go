package matcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/underdogdevs/mentormatch/internal/filtering"
	"github.com/underdogdevs/mentormatch/internal/profile"
	"github.com/underdogdevs/mentormatch/internal/ranking"
	"github.com/underdogdevs/mentormatch/internal/store"
)

func newStore(mentees, mentors []profile.Record) *store.Memory {
	m := store.NewMemory()
	m.Put(profile.CollectionMentees, mentees...)
	m.Put(profile.CollectionMentors, mentors...)
	return m
}

func ids(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Profile.ID)
	}
	return out
}

func TestMatchSubjectDominates(t *testing.T) {
	t.Parallel()

	st := newStore(
		[]profile.Record{{"profile_id": "e1", "subject": "Web", "experience_level": "Beginner"}},
		[]profile.Record{
			{"profile_id": "m-data", "subject": "Data", "experience_level": "Beginner"},
			{"profile_id": "m-web", "subject": "Web", "experience_level": "Advanced"},
		},
	)

	matches, err := New(st, Options{}).Match(context.Background(), "e1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ids(matches); !reflect.DeepEqual(got, []string{"m-web"}) {
		t.Fatalf("expected web mentor first, got %v", got)
	}
	if matches[0].Record["subject"] != "Web" {
		t.Fatalf("expected stored record to be returned, got %v", matches[0].Record)
	}
}

func TestMatchErrors(t *testing.T) {
	t.Parallel()

	st := newStore(
		[]profile.Record{
			{"profile_id": "e1", "subject": "Web"},
			{"profile_id": "e2", "subject": "Web", "role": "mentor"},
			{"profile_id": "e3", "subject": "Web", "experience_level": map[string]any{}},
		},
		[]profile.Record{{"profile_id": "m1", "subject": "Web"}},
	)
	m := New(st, Options{})
	ctx := context.Background()

	if _, err := m.Match(ctx, "does-not-exist", 5); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	if _, err := m.Match(ctx, "e1", -1); !errors.Is(err, ranking.ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}

	if _, err := m.Match(ctx, "e2", 1); !errors.Is(err, profile.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	_, err := m.Match(ctx, "m1", 1)
	if !errors.Is(err, profile.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for a mentor id, got %v", err)
	}
	if errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("a mentor id must not be reported as missing: %v", err)
	}

	if _, err := m.Match(ctx, "e3", 1); !errors.Is(err, profile.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestMatchLargeNumericIDs(t *testing.T) {
	t.Parallel()

	seed := filepath.Join(t.TempDir(), "seed.json")
	data := `{
		"Mentees": [{"profile_id": 1000000, "subject": "Web"}],
		"Mentors": [
			{"profile_id": 2000000, "subject": "Web"},
			{"profile_id": 999, "subject": "Data"}
		]
	}`
	if err := os.WriteFile(seed, []byte(data), 0o600); err != nil {
		t.Fatalf("writing seed: %v", err)
	}

	st, err := store.LoadMemory(seed)
	if err != nil {
		t.Fatalf("loading seed: %v", err)
	}

	matches, err := New(st, Options{}).Match(context.Background(), "1000000", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(matches); !reflect.DeepEqual(got, []string{"2000000"}) {
		t.Fatalf("expected mentor 2000000, got %v", got)
	}
	if matches[0].Record.ID() != "2000000" {
		t.Fatalf("expected record id 2000000, got %q", matches[0].Record.ID())
	}
}

type unavailableStore struct{ store.Store }

func (unavailableStore) Get(context.Context, string, string) (profile.Record, error) {
	return nil, store.Unavailable("get", errors.New("connection refused"))
}

func TestMatchPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	_, err := New(unavailableStore{}, Options{}).Match(context.Background(), "e1", 1)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("store failure must not look like a missing profile")
	}
}

func TestMatchNegativeCountCheckedFirst(t *testing.T) {
	t.Parallel()

	if _, err := New(unavailableStore{}, Options{}).Match(context.Background(), "e1", -3); !errors.Is(err, ranking.ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount before store access, got %v", err)
	}
}

func TestMatchEmptyResults(t *testing.T) {
	t.Parallel()

	st := newStore(
		[]profile.Record{{"profile_id": "e1", "subject": "Web"}},
		[]profile.Record{{"profile_id": "m1", "subject": "Web"}},
	)

	matches, err := New(st, Options{}).Match(context.Background(), "e1", 0)
	if err != nil || len(matches) != 0 {
		t.Fatalf("expected empty result for n=0, got %v (%v)", matches, err)
	}

	empty := newStore([]profile.Record{{"profile_id": "e1", "subject": "Web"}}, nil)
	matches, err = New(empty, Options{}).Match(context.Background(), "e1", 3)
	if err != nil || len(matches) != 0 {
		t.Fatalf("expected empty result for empty pool, got %v (%v)", matches, err)
	}
}

func TestMatchSkipsUndecodableMentors(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	st := newStore(
		[]profile.Record{{"profile_id": "e1", "subject": "Web"}},
		[]profile.Record{
			{"profile_id": "m1", "subject": "Web"},
			{"profile_id": "m2", "subject": "Web", "role": "mentee"},
		},
	)

	matches, err := New(st, Options{Logger: zap.New(core)}).Match(context.Background(), "e1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(matches); !reflect.DeepEqual(got, []string{"m1"}) {
		t.Fatalf("unexpected matches %v", got)
	}
	if observed.FilterMessage("skipping mentor record").Len() != 1 {
		t.Fatalf("expected a warning for the skipped record")
	}
}

func TestMatchAppliesFilters(t *testing.T) {
	t.Parallel()

	st := newStore(
		[]profile.Record{{"profile_id": "x", "subject": "Web", "email": "Ada@example.com"}},
		[]profile.Record{
			{"profile_id": "x", "subject": "Web", "email": "grace@example.com"},
			{"profile_id": "m0", "subject": "Web", "email": " ada@example.com "},
			{"profile_id": "m1", "subject": "Web", "accepting_mentees": "No"},
			{"profile_id": "m2", "subject": "Web"},
			{"profile_id": "m3", "subject": "Web"},
		},
	)

	steps := filtering.Default()
	if err := filtering.Prepare(&filtering.Config{ExcludedMentors: []string{"m3"}}, steps); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	matches, err := New(st, Options{Filters: steps}).Match(context.Background(), "x", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Mentor x shares the mentee's id but is a different person.
	if got := ids(matches); !reflect.DeepEqual(got, []string{"m2", "x"}) {
		t.Fatalf("unexpected matches %v", got)
	}
}

func largePool(size int) []profile.Record {
	subjects := []string{"Web", "Data", "Frontend", "Mobile", "Web Development"}
	levels := []string{"Beginner", "Intermediate", "Advanced", "Expert", ""}

	out := make([]profile.Record, 0, size)
	for i := 0; i < size; i++ {
		out = append(out, profile.Record{
			"profile_id":       fmt.Sprintf("m%03d", i),
			"subject":          subjects[i%len(subjects)],
			"experience_level": levels[(i/3)%len(levels)],
			"job_help":         i%2 == 0,
			"pair_programming": i%3 == 0,
		})
	}
	return out
}

func TestMatchParallelEqualsSequential(t *testing.T) {
	t.Parallel()

	st := newStore(
		[]profile.Record{{"profile_id": "e1", "subject": "Web", "experience_level": "Intermediate", "job_help": true}},
		largePool(300),
	)
	ctx := context.Background()

	sequential, err := New(st, Options{Workers: 1}).Match(ctx, "e1", 50)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	parallel, err := New(st, Options{Workers: 8}).Match(ctx, "e1", 50)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if !reflect.DeepEqual(ids(sequential), ids(parallel)) {
		t.Fatalf("parallel order differs:\n%v\n%v", ids(sequential), ids(parallel))
	}

	again, _ := New(st, Options{Workers: 8}).Match(ctx, "e1", 50)
	if !reflect.DeepEqual(ids(parallel), ids(again)) {
		t.Fatalf("repeated match is not deterministic")
	}

	for i := 1; i < len(parallel); i++ {
		if parallel[i].Score > parallel[i-1].Score {
			t.Fatalf("scores not non-increasing at %d", i)
		}
	}
}

type stubIntroducer struct {
	fail map[string]bool
}

func (s stubIntroducer) Introduce(_ context.Context, mentee, mentor *profile.Profile, _ float64) (string, error) {
	if s.fail[mentor.ID] {
		return "", errors.New("quota exceeded")
	}
	return "hi " + mentor.ID + " from " + mentee.ID, nil
}

func TestMatchIntroductionsDoNotChangeOrder(t *testing.T) {
	t.Parallel()

	st := newStore(
		[]profile.Record{{"profile_id": "e1", "subject": "Web"}},
		[]profile.Record{
			{"profile_id": "m1", "subject": "Web"},
			{"profile_id": "m2", "subject": "Data"},
		},
	)
	ctx := context.Background()

	plain, err := New(st, Options{}).Match(ctx, "e1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	introduced, err := New(st, Options{Introducer: stubIntroducer{fail: map[string]bool{"m2": true}}}).Match(ctx, "e1", 2)
	if err != nil {
		t.Fatalf("introducer failures must not fail the request: %v", err)
	}

	if !reflect.DeepEqual(ids(plain), ids(introduced)) {
		t.Fatalf("introductions changed order: %v vs %v", ids(plain), ids(introduced))
	}
	if introduced[0].Introduction != "hi m1 from e1" {
		t.Fatalf("unexpected introduction %q", introduced[0].Introduction)
	}
	if introduced[1].Introduction != "" {
		t.Fatalf("expected failed introduction to be empty")
	}
}
