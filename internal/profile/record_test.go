package profile

import (
	"errors"
	"testing"
)

func TestFromRecord(t *testing.T) {
	t.Parallel()

	rec := Record{
		"profile_id":            float64(42),
		"first_name":            "Ada",
		"last_name":             "Lovelace",
		"subject":               " Web ",
		"experience_level":      "Intermediate",
		"city":                  "Ashland",
		"state":                 "Oregon",
		"formerly_incarcerated": "Yes",
		"low_income":            true,
		"list_convictions":      []any{"Felony, Misdemeanor"},
		"job_help":              "yes",
		"pair_programming":      1,
		"background_matching":   true,
	}

	p, err := FromRecord(rec, RoleMentee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID != "42" {
		t.Fatalf("expected id 42, got %q", p.ID)
	}
	if p.Role != RoleMentee {
		t.Fatalf("expected mentee role, got %s", p.Role)
	}
	if p.Level != LevelIntermediate {
		t.Fatalf("expected intermediate level, got %v", p.Level)
	}
	if p.Location.City != "Ashland" || p.Location.State != "Oregon" {
		t.Fatalf("unexpected location: %+v", p.Location)
	}
	if !p.Background.FormerlyIncarcerated || !p.Background.LowIncome || p.Background.Underrepresented {
		t.Fatalf("unexpected background: %+v", p.Background)
	}
	if len(p.Background.Convictions) != 2 {
		t.Fatalf("expected 2 convictions, got %v", p.Background.Convictions)
	}
	if !p.Wants.JobHelp || !p.Wants.PairProgramming || p.Wants.IndustryKnowledge {
		t.Fatalf("unexpected preferences: %+v", p.Wants)
	}
	if !p.AcceptingMentees {
		t.Fatalf("expected accepting mentees default to be true")
	}
	if p.Name() != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", p.Name())
	}
}

func TestFromRecordMentorDefaults(t *testing.T) {
	t.Parallel()

	p, err := FromRecord(Record{"profile_id": "m1", "tech_stack": "Data", "accepting_mentees": "No"}, RoleMentor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Subject != "Data" {
		t.Fatalf("expected tech_stack fallback, got %q", p.Subject)
	}
	if p.AcceptingMentees {
		t.Fatalf("expected accepting mentees to be false")
	}
	if p.Level != LevelUnknown {
		t.Fatalf("expected unknown level, got %v", p.Level)
	}
}

func TestFromRecordRoleMismatch(t *testing.T) {
	t.Parallel()

	_, err := FromRecord(Record{"profile_id": "x", "role": "Mentor"}, RoleMentee)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRecordID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rec    Record
		expect string
	}{
		{name: "profile id", rec: Record{"profile_id": 7, "_id": "abc"}, expect: "7"},
		{name: "mongo id", rec: Record{"_id": "abc", "id": "z"}, expect: "abc"},
		{name: "plain id", rec: Record{"id": " z "}, expect: "z"},
		{name: "json number", rec: Record{"profile_id": float64(1000000)}, expect: "1000000"},
		{name: "large json number", rec: Record{"profile_id": float64(12345678901)}, expect: "12345678901"},
		{name: "missing", rec: Record{"city": "Ashland"}, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rec.ID(); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFromRecordInvalidProfile(t *testing.T) {
	t.Parallel()

	_, err := FromRecord(Record{"profile_id": "e1", "experience_level": map[string]any{"x": 1}}, RoleMentee)
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestGapAndShares(t *testing.T) {
	t.Parallel()

	if Gap(LevelAdvanced, LevelBeginner) != 2 {
		t.Fatalf("expected gap 2")
	}
	if Gap(LevelUnknown, LevelBeginner) != 0 {
		t.Fatalf("unknown level should rank as beginner")
	}

	a := Background{Convictions: []string{"Felony"}}
	b := Background{Convictions: []string{" felony "}}
	if !a.Shares(b) {
		t.Fatalf("expected shared conviction category")
	}
	if a.Shares(Background{LowIncome: true}) {
		t.Fatalf("expected no shared flags")
	}
}
