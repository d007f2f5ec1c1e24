// Package scoring computes the structured compatibility between a mentee and
// a mentor profile.
package scoring

import (
	"fmt"
	"strings"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

const (
	subjectExact   = 1.0
	subjectPartial = 0.5
)

// categories groups subjects under a shared super-category for partial credit.
var categories = map[string]string{
	"web":               "web",
	"frontend":          "web",
	"front end":         "web",
	"backend":           "web",
	"back end":          "web",
	"full stack":        "web",
	"fullstack":         "web",
	"javascript":        "web",
	"react":             "web",
	"data":              "data",
	"data science":      "data",
	"data engineering":  "data",
	"machine learning":  "data",
	"analytics":         "data",
	"python":            "data",
	"mobile":            "mobile",
	"ios":               "mobile",
	"android":           "mobile",
	"devops":            "infrastructure",
	"cloud":             "infrastructure",
	"security":          "infrastructure",
	"cyber security":    "infrastructure",
	"career":            "career",
	"career transition": "career",
}

// Breakdown exposes the individual sub-scores for logging and explanations.
type Breakdown struct {
	Subject    float64
	Experience float64
	Preference float64
	Affinity   float64
	Total      float64
}

// Scorer is safe for concurrent use; it holds no mutable state.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer using the given weights. Callers are expected to
// have validated them.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted compatibility of mentor for mentee in [0, 1].
func (s *Scorer) Score(mentee, mentor *profile.Profile) (float64, error) {
	b, err := s.Breakdown(mentee, mentor)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// Breakdown computes every sub-score along with the weighted total.
func (s *Scorer) Breakdown(mentee, mentor *profile.Profile) (Breakdown, error) {
	if mentee == nil || mentor == nil {
		return Breakdown{}, fmt.Errorf("%w: both profiles are required", profile.ErrInvalidRole)
	}
	if mentee.Role != profile.RoleMentee {
		return Breakdown{}, fmt.Errorf("%w: %s is %q, want mentee", profile.ErrInvalidRole, mentee.ID, mentee.Role)
	}
	if mentor.Role != profile.RoleMentor {
		return Breakdown{}, fmt.Errorf("%w: %s is %q, want mentor", profile.ErrInvalidRole, mentor.ID, mentor.Role)
	}

	b := Breakdown{
		Subject:    SubjectScore(mentee.Subject, mentor.Subject),
		Experience: ExperienceScore(mentee.Level, mentor.Level),
		Preference: PreferenceScore(mentee.Wants, mentor.Wants),
		Affinity:   AffinityScore(mentee, mentor),
	}

	total := b.Subject*s.weights.Subject +
		b.Experience*s.weights.Experience +
		b.Preference*s.weights.Preference +
		b.Affinity*s.weights.Affinity

	b.Total = clamp(total)
	return b, nil
}

// SubjectScore gives full credit to identical subjects and partial credit when
// one contains the other or both fall under the same category.
func SubjectScore(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return subjectExact
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return subjectPartial
	}
	if ca, ok := categories[a]; ok {
		if cb, ok := categories[b]; ok && ca == cb {
			return subjectPartial
		}
	}
	return 0
}

// ExperienceScore is 1 when the mentor is at or above the mentee and decays
// linearly to 0 at two levels below.
func ExperienceScore(mentee, mentor profile.ExperienceLevel) float64 {
	gap := profile.Gap(mentee, mentor)
	switch {
	case gap <= 0:
		return 1
	case gap >= 2:
		return 0
	default:
		return 1 - float64(gap)/2
	}
}

// PreferenceScore is the fraction of requested preferences the mentor offers.
// A mentee requesting nothing has nothing unmet.
func PreferenceScore(requested, offered profile.Preferences) float64 {
	want := 0
	met := 0

	pairs := [][2]bool{
		{requested.JobHelp, offered.JobHelp},
		{requested.IndustryKnowledge, offered.IndustryKnowledge},
		{requested.PairProgramming, offered.PairProgramming},
	}
	for _, p := range pairs {
		if !p[0] {
			continue
		}
		want++
		if p[1] {
			met++
		}
	}

	if want == 0 {
		return 1
	}
	return float64(met) / float64(want)
}

// AffinityScore only applies when the mentee opted in to background matching.
func AffinityScore(mentee, mentor *profile.Profile) float64 {
	if !mentee.BackgroundMatching {
		return 0
	}
	if mentee.Background.Shares(mentor.Background) {
		return 1
	}
	return 0
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
