package profile

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// rawProfile mirrors the flat document layout used by the record store.
type rawProfile struct {
	ID        string `mapstructure:"profile_id"`
	Role      string `mapstructure:"role"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Email     string `mapstructure:"email"`

	Subject   string `mapstructure:"subject"`
	TechStack string `mapstructure:"tech_stack"`
	Level     string `mapstructure:"experience_level"`

	Location   `mapstructure:",squash"`
	Background `mapstructure:",squash"`
	Wants      Preferences `mapstructure:",squash"`

	BackgroundMatching bool  `mapstructure:"background_matching"`
	LocationRequired   bool  `mapstructure:"location_required"`
	AcceptingMentees   *bool `mapstructure:"accepting_mentees"`

	OtherInfo string `mapstructure:"other_info"`
}

// FromRecord decodes a stored document into a Profile of the given role.
// A record carrying an explicit role different from the requested one fails
// with ErrInvalidRole.
func FromRecord(rec Record, role Role) (*Profile, error) {
	var raw rawProfile

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       yesNoHook,
		Result:           &raw,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(map[string]any(rec)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, rec.ID(), err)
	}

	if raw.Role != "" && Role(strings.ToLower(strings.TrimSpace(raw.Role))) != role {
		return nil, fmt.Errorf("%w: profile %s is %s, want %s", ErrInvalidRole, rec.ID(), raw.Role, role)
	}

	subject := raw.Subject
	if strings.TrimSpace(subject) == "" {
		subject = raw.TechStack
	}

	accepting := true
	if raw.AcceptingMentees != nil {
		accepting = *raw.AcceptingMentees
	}

	bg := raw.Background
	bg.Convictions = splitList(bg.Convictions)

	return &Profile{
		ID:                 rec.ID(),
		Role:               role,
		FirstName:          raw.FirstName,
		LastName:           raw.LastName,
		Email:              raw.Email,
		Subject:            subject,
		Level:              ParseLevel(raw.Level),
		Location:           raw.Location,
		Background:         bg,
		Wants:              raw.Wants,
		BackgroundMatching: raw.BackgroundMatching,
		LocationRequired:   raw.LocationRequired,
		AcceptingMentees:   accepting,
		OtherInfo:          raw.OtherInfo,
	}, nil
}

// ID returns the record identifier used for ordering and lookup: profile_id,
// then _id, then id. Missing identifiers yield an empty string.
func (r Record) ID() string {
	for _, key := range []string{"profile_id", "_id", "id"} {
		if v, ok := r[key]; ok && v != nil {
			return FormatValue(v)
		}
	}
	return ""
}

// FormatValue renders a scalar document value the way it is written in ids
// and filters. JSON numbers arrive as float64 and are printed without an
// exponent, so 1000000 stays "1000000".
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// yesNoHook accepts the "Yes"/"No" answers collected by the intake forms.
func yesNoHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}

	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off", "":
		return false, nil
	}

	return data, nil
}

// splitList flattens comma separated entries, as stored by older clients.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
