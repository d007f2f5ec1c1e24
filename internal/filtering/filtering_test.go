package filtering

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

func mentor(id string, accepting bool, state string) *profile.Profile {
	return &profile.Profile{
		ID:               id,
		Role:             profile.RoleMentor,
		Email:            id + "@example.com",
		AcceptingMentees: accepting,
		Location:         profile.Location{Country: "US", State: state},
	}
}

func samplePool() *Pool {
	return NewPool([]*profile.Profile{
		mentor("m3", true, "Oregon"),
		mentor("me", true, "Oregon"),
		mentor("m1", false, "Oregon"),
		mentor("m2", true, "Texas"),
		mentor("m4", true, "oregon"),
	})
}

func TestRunDefaultPipeline(t *testing.T) {
	t.Parallel()

	steps := Default()
	if err := Prepare(&Config{ExcludedMentors: []string{" m4 "}}, steps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The mentee shares an id with mentor m3 but is the person behind mentor "me".
	mentee := &profile.Profile{ID: "m3", Role: profile.RoleMentee, Email: " ME@example.com"}
	got, err := Run(context.Background(), Deps{Mentee: mentee}, steps, samplePool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := got.IDs()
	expect := []string{"m3", "m2"}
	if len(ids) != len(expect) || ids[0] != expect[0] || ids[1] != expect[1] {
		t.Fatalf("expected %v in original order, got %v", expect, ids)
	}
}

func TestLocationFilterOnlyWhenRequired(t *testing.T) {
	t.Parallel()

	steps := []Filter{NewLocation()}
	mentee := &profile.Profile{ID: "me", Location: profile.Location{Country: "us", State: "Oregon"}}

	got, err := Run(context.Background(), Deps{Mentee: mentee}, steps, samplePool())
	if err != nil || got.Len() != 5 {
		t.Fatalf("expected location to be a soft signal, got %d (%v)", got.Len(), err)
	}

	mentee.LocationRequired = true
	got, err = Run(context.Background(), Deps{Mentee: mentee}, steps, samplePool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 4 {
		t.Fatalf("expected Texas mentor to be dropped, got %v", got.IDs())
	}
}

func TestPrepareDisablesByName(t *testing.T) {
	t.Parallel()

	steps := Default()
	if err := Prepare(&Config{Disabled: []string{"accepting"}}, steps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mentee := &profile.Profile{ID: "me", Email: "me@example.com"}
	got, err := Run(context.Background(), Deps{Mentee: mentee}, steps, samplePool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 4 {
		t.Fatalf("expected non-accepting mentor to be kept, got %v", got.IDs())
	}

	statuses := Describe(steps)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if statuses[1].Name != "accepting" || statuses[1].Enabled || statuses[1].Reason == "" {
		t.Fatalf("unexpected status %+v", statuses[1])
	}
}

func TestRunLogsSteps(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	steps := []Filter{NewSelf(), NewAccepting()}
	steps[1].Disable("test")
	if err := Prepare(nil, steps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := Run(context.Background(), Deps{Logger: zap.New(core), Mentee: &profile.Profile{ID: "me", Email: "me@example.com"}}, steps, samplePool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stepLogs := observed.FilterMessage("filter step").All()
	if len(stepLogs) != 1 {
		t.Fatalf("expected 1 step log, got %d", len(stepLogs))
	}
	fields := stepLogs[0].ContextMap()
	if fields["name"] != "self" || fields["dropped"] != int64(1) || fields["left"] != int64(4) {
		t.Fatalf("unexpected step fields %v", fields)
	}

	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled filter to be logged")
	}
}

func TestSelfFilterRequiresMentee(t *testing.T) {
	t.Parallel()

	if _, err := Run(context.Background(), Deps{}, []Filter{NewSelf()}, samplePool()); err == nil {
		t.Fatalf("expected error without mentee")
	}
}

func TestSelfFilterWithoutEmail(t *testing.T) {
	t.Parallel()

	mentee := &profile.Profile{ID: "me"}
	got, err := Run(context.Background(), Deps{Mentee: mentee}, []Filter{NewSelf()}, samplePool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 5 {
		t.Fatalf("expected id alone not to drop a mentor, got %v", got.IDs())
	}
}

func TestExcludedStatusIsSorted(t *testing.T) {
	t.Parallel()

	steps := []Filter{NewExcluded()}
	if err := Prepare(&Config{ExcludedMentors: []string{"m9", "m1", "m5", "m3"}}, steps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		status := Describe(steps)[0]
		if status.Details["mentors"] != "m1,m3,m5,m9" {
			t.Fatalf("expected sorted mentors, got %q", status.Details["mentors"])
		}
	}
}
