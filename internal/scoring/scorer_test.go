package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

func mentee(subject string, level profile.ExperienceLevel) *profile.Profile {
	return &profile.Profile{ID: "mentee", Role: profile.RoleMentee, Subject: subject, Level: level}
}

func mentor(id, subject string, level profile.ExperienceLevel) *profile.Profile {
	return &profile.Profile{ID: id, Role: profile.RoleMentor, Subject: subject, Level: level, AcceptingMentees: true}
}

func TestSubjectScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   string
		expect float64
	}{
		{name: "identical ignoring case and space", a: " Web ", b: "web", expect: 1},
		{name: "substring", a: "Data", b: "Data Science", expect: 0.5},
		{name: "same category", a: "Frontend", b: "Backend", expect: 0.5},
		{name: "unrelated", a: "Web", b: "Data", expect: 0},
		{name: "empty side", a: "", b: "Web", expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SubjectScore(tt.a, tt.b); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestExperienceScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		mentee, mentor profile.ExperienceLevel
		expect         float64
	}{
		{name: "mentor above", mentee: profile.LevelBeginner, mentor: profile.LevelAdvanced, expect: 1},
		{name: "same level", mentee: profile.LevelIntermediate, mentor: profile.LevelIntermediate, expect: 1},
		{name: "one below", mentee: profile.LevelAdvanced, mentor: profile.LevelIntermediate, expect: 0.5},
		{name: "two below", mentee: profile.LevelAdvanced, mentor: profile.LevelBeginner, expect: 0},
		{name: "three below", mentee: profile.LevelExpert, mentor: profile.LevelBeginner, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExperienceScore(tt.mentee, tt.mentor); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestPreferenceScore(t *testing.T) {
	t.Parallel()

	requested := profile.Preferences{JobHelp: true, PairProgramming: true}
	if got := PreferenceScore(requested, profile.Preferences{JobHelp: true}); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if got := PreferenceScore(profile.Preferences{}, profile.Preferences{}); got != 1 {
		t.Fatalf("expected 1 when nothing requested, got %v", got)
	}
}

func TestAffinityRequiresOptIn(t *testing.T) {
	t.Parallel()

	me := mentee("Web", profile.LevelBeginner)
	me.Background.LowIncome = true
	mt := mentor("m1", "Web", profile.LevelBeginner)
	mt.Background.LowIncome = true

	if got := AffinityScore(me, mt); got != 0 {
		t.Fatalf("expected affinity to be skipped without opt-in, got %v", got)
	}

	me.BackgroundMatching = true
	if got := AffinityScore(me, mt); got != 1 {
		t.Fatalf("expected shared flag affinity, got %v", got)
	}
}

func TestScoreSubjectDominates(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultWeights())
	me := mentee("Web", profile.LevelBeginner)

	web, err := s.Score(me, mentor("a", "Web", profile.LevelAdvanced))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := s.Score(me, mentor("b", "Data", profile.LevelBeginner))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if web <= data {
		t.Fatalf("expected web mentor (%v) to outscore data mentor (%v)", web, data)
	}
	if math.Abs(web-0.9) > 1e-9 {
		t.Fatalf("expected 0.9, got %v", web)
	}
}

func TestScoreBoundsAndDeterminism(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultWeights())
	me := mentee("Data Science", profile.LevelExpert)
	me.Wants = profile.Preferences{JobHelp: true, IndustryKnowledge: true, PairProgramming: true}
	me.BackgroundMatching = true
	me.Background.Underrepresented = true

	mentors := []*profile.Profile{
		mentor("a", "Data", profile.LevelBeginner),
		mentor("b", "data science", profile.LevelExpert),
		mentor("c", "", profile.LevelUnknown),
	}
	mentors[1].Wants = me.Wants
	mentors[1].Background.Underrepresented = true

	for _, mt := range mentors {
		first, err := s.Score(me, mt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first < 0 || first > 1 {
			t.Fatalf("score %v out of range for %s", first, mt.ID)
		}
		second, _ := s.Score(me, mt)
		if first != second {
			t.Fatalf("expected deterministic score for %s: %v != %v", mt.ID, first, second)
		}
	}

	best, _ := s.Score(me, mentors[1])
	if math.Abs(best-1) > 1e-9 {
		t.Fatalf("expected perfect score, got %v", best)
	}
}

func TestScoreRejectsWrongRoles(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultWeights())
	me := mentee("Web", profile.LevelBeginner)
	mt := mentor("m", "Web", profile.LevelBeginner)

	if _, err := s.Score(mt, me); !errors.Is(err, profile.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := s.Score(me, me); !errors.Is(err, profile.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := s.Score(nil, mt); !errors.Is(err, profile.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
