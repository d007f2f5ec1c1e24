// Package ranking orders scored match candidates and truncates them to the
// requested count.
package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

// ErrInvalidCount is returned for a negative requested result count.
var ErrInvalidCount = errors.New("invalid result count")

// Candidate is a mentor scored against one mentee within a single request.
type Candidate struct {
	Mentor *profile.Profile
	Score  float64
	// Gap is the experience-level gap between mentee and mentor, used as the
	// first tie-break.
	Gap int
}

// GapKey folds negative gaps to zero: a mentor above the mentee is as good
// as one on the same level.
func (c Candidate) GapKey() int {
	if c.Gap < 0 {
		return 0
	}
	return c.Gap
}

// ValidateCount rejects negative counts.
func ValidateCount(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	return nil
}

// Rank orders candidates by descending score, then lower experience gap, then
// smaller profile id, and returns at most n of them. The input slice is not
// modified.
func Rank(candidates []Candidate, n int) ([]Candidate, error) {
	if err := ValidateCount(n); err != nil {
		return nil, err
	}
	if n == 0 || len(candidates) == 0 {
		return []Candidate{}, nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(sorted[i], sorted[j])
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}

	return sorted, nil
}

// Less reports whether a ranks strictly before b.
func Less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if ga, gb := a.GapKey(), b.GapKey(); ga != gb {
		return ga < gb
	}
	return mentorID(a) < mentorID(b)
}

func mentorID(c Candidate) string {
	if c.Mentor == nil {
		return ""
	}
	return c.Mentor.ID
}
