package filtering

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

// toggle holds the enable state shared by every built-in filter.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type selfFilter struct{ toggle }

// NewSelf creates a filter that drops a mentor who is the mentee themselves.
// Ids are only unique within a collection, so people are matched by email.
func NewSelf() Filter {
	return &selfFilter{}
}

func (f *selfFilter) Name() string { return "self" }

func (f *selfFilter) Validate(*Config) error { return nil }

func (f *selfFilter) Apply(_ context.Context, deps Deps, pool *Pool) (*Pool, Step, error) {
	initial := pool.Len()
	if deps.Mentee == nil {
		return pool, Step{}, fmt.Errorf("mentee is required")
	}

	email := normalizeEmail(deps.Mentee.Email)
	if email == "" {
		return pool, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	next, dropped := pool.Keep(func(p *profile.Profile) bool {
		return normalizeEmail(p.Email) != email
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding mentor profiles of the mentee",
			zap.Strings("excluded_mentors", dropped),
		)
	}

	return next, Step{Initial: initial, Dropped: len(dropped), Left: next.Len()}, nil
}

func (f *selfFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type acceptingFilter struct{ toggle }

// NewAccepting creates a filter that drops mentors who are not taking new mentees.
func NewAccepting() Filter {
	return &acceptingFilter{}
}

func (f *acceptingFilter) Name() string { return "accepting" }

func (f *acceptingFilter) Validate(*Config) error { return nil }

func (f *acceptingFilter) Apply(_ context.Context, deps Deps, pool *Pool) (*Pool, Step, error) {
	initial := pool.Len()
	next, dropped := pool.Keep(func(p *profile.Profile) bool {
		return p.AcceptingMentees
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding mentors not accepting mentees",
			zap.Strings("excluded_mentors", dropped),
			zap.Int("mentors_left", next.Len()),
		)
	}

	return next, Step{Initial: initial, Dropped: len(dropped), Left: next.Len()}, nil
}

func (f *acceptingFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type excludedFilter struct {
	toggle
	ids map[string]struct{}
}

// NewExcluded creates a filter that removes mentors listed in the configuration.
func NewExcluded() Filter {
	return &excludedFilter{}
}

func (f *excludedFilter) Name() string { return "excluded" }

func (f *excludedFilter) Validate(cfg *Config) error {
	f.ids = make(map[string]struct{})
	if cfg == nil {
		return nil
	}
	for _, id := range cfg.ExcludedMentors {
		if id = strings.TrimSpace(id); id != "" {
			f.ids[id] = struct{}{}
		}
	}
	return nil
}

func (f *excludedFilter) Apply(_ context.Context, deps Deps, pool *Pool) (*Pool, Step, error) {
	initial := pool.Len()
	if len(f.ids) == 0 {
		return pool, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	next, dropped := pool.Keep(func(p *profile.Profile) bool {
		_, excluded := f.ids[p.ID]
		return !excluded
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding mentors by configuration",
			zap.Strings("excluded_mentors", dropped),
			zap.Int("mentors_left", next.Len()),
		)
	}

	return next, Step{Initial: initial, Dropped: len(dropped), Left: next.Len()}, nil
}

func (f *excludedFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		ids := make([]string, 0, len(f.ids))
		for id := range f.ids {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		details["mentors"] = strings.Join(ids, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type locationFilter struct{ toggle }

// NewLocation creates a filter that keeps only mentors in the mentee's
// country and state. It is a no-op unless the mentee requires it.
func NewLocation() Filter {
	return &locationFilter{}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Validate(*Config) error { return nil }

func (f *locationFilter) Apply(_ context.Context, deps Deps, pool *Pool) (*Pool, Step, error) {
	initial := pool.Len()
	if deps.Mentee == nil || !deps.Mentee.LocationRequired {
		return pool, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	want := deps.Mentee.Location
	next, dropped := pool.Keep(func(p *profile.Profile) bool {
		return sameArea(want.Country, p.Location.Country) && sameArea(want.State, p.Location.State)
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding mentors outside the required location",
			zap.String("country", want.Country),
			zap.String("state", want.State),
			zap.Strings("excluded_mentors", dropped),
		)
	}

	return next, Step{Initial: initial, Dropped: len(dropped), Left: next.Len()}, nil
}

func (f *locationFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

// sameArea treats an area the mentee left blank as matching anything.
func sameArea(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
