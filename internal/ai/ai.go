// Package ai defines optional generative helpers layered on top of the
// deterministic matcher.
package ai

import (
	"context"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

// Introducer writes a short introduction from a mentee to a matched mentor.
// It must not influence which mentors are returned or their order.
type Introducer interface {
	Introduce(ctx context.Context, mentee, mentor *profile.Profile, score float64) (string, error)
}
