package scoring

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned when the configured weights are negative or
// do not sum to 1.
var ErrInvalidWeights = errors.New("invalid match weights")

const weightTolerance = 1e-6

// Weights controls how much each sub-score contributes to the final score.
type Weights struct {
	Subject    float64 `mapstructure:"subject_weight" json:"subject_weight"`
	Experience float64 `mapstructure:"experience_weight" json:"experience_weight"`
	Preference float64 `mapstructure:"preference_weight" json:"preference_weight"`
	Affinity   float64 `mapstructure:"affinity_weight" json:"affinity_weight"`
}

// DefaultWeights favours subject and experience over background affinity.
//
// score = subject*0.4 + experience*0.3 + preference*0.2 + affinity*0.1
func DefaultWeights() Weights {
	return Weights{
		Subject:    0.4,
		Experience: 0.3,
		Preference: 0.2,
		Affinity:   0.1,
	}
}

// Overrides holds configured weights. A nil field keeps the base value, so
// an explicit zero switches a sub-score off.
type Overrides struct {
	Subject    *float64 `mapstructure:"subject_weight"`
	Experience *float64 `mapstructure:"experience_weight"`
	Preference *float64 `mapstructure:"preference_weight"`
	Affinity   *float64 `mapstructure:"affinity_weight"`
}

// Merge applies the set values of override on top of base.
func Merge(base Weights, override *Overrides) Weights {
	if override == nil {
		return base
	}

	result := base
	if override.Subject != nil {
		result.Subject = *override.Subject
	}
	if override.Experience != nil {
		result.Experience = *override.Experience
	}
	if override.Preference != nil {
		result.Preference = *override.Preference
	}
	if override.Affinity != nil {
		result.Affinity = *override.Affinity
	}

	return result
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"subject_weight":    w.Subject,
		"experience_weight": w.Experience,
		"preference_weight": w.Preference,
		"affinity_weight":   w.Affinity,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidWeights, name, v)
		}
	}

	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, want 1", ErrInvalidWeights, sum)
	}

	return nil
}

func (w Weights) Sum() float64 {
	return w.Subject + w.Experience + w.Preference + w.Affinity
}
