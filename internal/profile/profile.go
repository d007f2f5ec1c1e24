// Package profile holds the mentee and mentor records consumed by the matcher
// and the generic record type used by search.
package profile

import (
	"errors"
	"strings"
)

const (
	// CollectionMentees is the collection holding mentee profiles.
	CollectionMentees = "Mentees"
	// CollectionMentors is the collection holding mentor profiles.
	CollectionMentors = "Mentors"
)

var (
	// ErrInvalidRole is returned when a profile of the wrong role is supplied.
	ErrInvalidRole = errors.New("invalid profile role")
	// ErrInvalidProfile is returned when a stored document cannot be read as a profile.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Record is a schema-less document as stored in a collection.
type Record map[string]any

type Role string

const (
	RoleMentee Role = "mentee"
	RoleMentor Role = "mentor"
)

// ExperienceLevel is an ordered skill category. LevelUnknown sorts with Beginner.
type ExperienceLevel int

const (
	LevelUnknown ExperienceLevel = iota
	LevelBeginner
	LevelIntermediate
	LevelAdvanced
	LevelExpert
)

var levelNames = map[ExperienceLevel]string{
	LevelUnknown:      "",
	LevelBeginner:     "Beginner",
	LevelIntermediate: "Intermediate",
	LevelAdvanced:     "Advanced",
	LevelExpert:       "Expert",
}

// ParseLevel maps a free-form level label to an ExperienceLevel.
func ParseLevel(s string) ExperienceLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "novice", "entry":
		return LevelBeginner
	case "intermediate", "mid":
		return LevelIntermediate
	case "advanced", "senior":
		return LevelAdvanced
	case "expert":
		return LevelExpert
	default:
		return LevelUnknown
	}
}

func (l ExperienceLevel) String() string {
	return levelNames[l]
}

func (l ExperienceLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *ExperienceLevel) UnmarshalText(b []byte) error {
	*l = ParseLevel(string(b))
	return nil
}

// Rank is the position on the ordered scale used for gap computations.
func (l ExperienceLevel) Rank() int {
	if l == LevelUnknown {
		return int(LevelBeginner)
	}
	return int(l)
}

// Gap returns how many levels the mentor sits below the mentee. Zero or
// negative means the mentor is at or above the mentee.
func Gap(mentee, mentor ExperienceLevel) int {
	return mentee.Rank() - mentor.Rank()
}

type Location struct {
	City    string `mapstructure:"city" json:"city,omitempty"`
	State   string `mapstructure:"state" json:"state,omitempty"`
	Country string `mapstructure:"country" json:"country,omitempty"`
}

// Background flags are only used for opt-in affinity scoring.
type Background struct {
	FormerlyIncarcerated bool     `mapstructure:"formerly_incarcerated" json:"formerly_incarcerated,omitempty"`
	Underrepresented     bool     `mapstructure:"underrepresented_group" json:"underrepresented_group,omitempty"`
	LowIncome            bool     `mapstructure:"low_income" json:"low_income,omitempty"`
	Convictions          []string `mapstructure:"list_convictions" json:"list_convictions,omitempty"`
}

// Shares reports whether both backgrounds declare at least one common flag.
func (b Background) Shares(other Background) bool {
	if (b.FormerlyIncarcerated && other.FormerlyIncarcerated) ||
		(b.Underrepresented && other.Underrepresented) ||
		(b.LowIncome && other.LowIncome) {
		return true
	}

	for _, c := range b.Convictions {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			continue
		}
		for _, o := range other.Convictions {
			if key == strings.ToLower(strings.TrimSpace(o)) {
				return true
			}
		}
	}

	return false
}

// Preferences are requested by mentees and offered by mentors.
type Preferences struct {
	JobHelp           bool `mapstructure:"job_help" json:"job_help,omitempty"`
	IndustryKnowledge bool `mapstructure:"industry_knowledge" json:"industry_knowledge,omitempty"`
	PairProgramming   bool `mapstructure:"pair_programming" json:"pair_programming,omitempty"`
}

// Set returns the names of the enabled preferences.
func (p Preferences) Set() []string {
	out := make([]string, 0, 3)
	if p.JobHelp {
		out = append(out, "job_help")
	}
	if p.IndustryKnowledge {
		out = append(out, "industry_knowledge")
	}
	if p.PairProgramming {
		out = append(out, "pair_programming")
	}
	return out
}

// Profile is a mentee or mentor. Optional fields default to their zero value,
// except AcceptingMentees which defaults to true for mentors.
type Profile struct {
	ID        string `json:"profile_id"`
	Role      Role   `json:"role"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`

	Subject    string          `json:"subject,omitempty"`
	Level      ExperienceLevel `json:"experience_level,omitempty"`
	Location   Location        `json:"location"`
	Background Background      `json:"background"`
	Wants      Preferences     `json:"preferences"`

	// BackgroundMatching is the mentee's opt-in for affinity scoring.
	BackgroundMatching bool `json:"background_matching,omitempty"`
	// LocationRequired turns location into a hard filter for this mentee.
	LocationRequired bool `json:"location_required,omitempty"`
	AcceptingMentees bool `json:"accepting_mentees"`

	OtherInfo string `json:"other_info,omitempty"`
}

// Name joins first and last name.
func (p *Profile) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
