package textrank

import "strings"

const defaultFieldWeight = 1.0

// FieldWeights maps a record field name to its contribution multiplier.
// Fields not listed weigh 1.
type FieldWeights map[string]float64

// DefaultFieldWeights ranks identifying fields highest and free-text notes
// lowest.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{
		"profile_id": 3,
		"first_name": 3,
		"last_name":  3,
		"email":      3,
		"subject":    2,
		"tech_stack": 2,
		"city":       2,
		"state":      2,
		"country":    2,
		"other_info": 0.5,
	}
}

// Merge returns a copy of w with override applied. Keys are case-folded.
// A non-positive override removes the field from search.
func (w FieldWeights) Merge(override map[string]float64) FieldWeights {
	out := make(FieldWeights, len(w)+len(override))
	for k, v := range w {
		out[strings.ToLower(k)] = v
	}
	for k, v := range override {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// Weight returns the multiplier for field and whether the field is searchable.
func (w FieldWeights) Weight(field string) (float64, bool) {
	key := strings.ToLower(field)
	if key == "_id" {
		return 0, false
	}
	v, ok := w[key]
	if !ok {
		return defaultFieldWeight, true
	}
	return v, v > 0
}
