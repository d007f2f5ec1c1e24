package textrank

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Tokenize case-folds s, turns punctuation into whitespace and splits it.
func Tokenize(s string) []string {
	folded := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Fields(folded)
}

// fieldText renders a record value as searchable text. Booleans, nils and
// nested documents are not searchable.
func fieldText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []string:
		return strings.Join(val, " "), true
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if text, ok := fieldText(item); ok {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " "), len(parts) > 0
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}
