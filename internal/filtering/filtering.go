// Package filtering narrows the mentor pool before scoring. Filters only
// remove candidates; they never reorder the pool.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

// Filter represents a single filtering step applied to the mentor pool.
// Disable and Validate are only called while the pipeline is being prepared;
// Apply must not mutate the filter so a prepared pipeline can serve
// concurrent requests.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, pool *Pool) (*Pool, Step, error)
}

// Deps carries the per-request inputs shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	Mentee *profile.Profile
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludedMentors []string
	Disabled        []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns every built-in filter in execution order.
func Default() []Filter {
	return []Filter{
		NewSelf(),
		NewAccepting(),
		NewExcluded(),
		NewLocation(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Prepare disables the filters named in cfg and validates the enabled ones.
func Prepare(cfg *Config, steps []Filter) error {
	if cfg != nil {
		for _, name := range cfg.Disabled {
			DisableByName(steps, name, "disabled by configuration")
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return nil
}

// Run executes the prepared filters sequentially and returns the remaining pool.
func Run(ctx context.Context, deps Deps, steps []Filter, pool *Pool) (*Pool, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, pool)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		pool = next
	}

	return pool, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
