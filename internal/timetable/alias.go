package timetable

import (
	"unicode"

	"github.com/nice-timetable/backend/internal/storage/models"
)

// DisplayName resolves the full-size display name for a subject:
// the normal alias when one is set and non-empty, otherwise the raw
// subject name.
func DisplayName(subject string, aliases map[string]models.AliasPair) string {
	if pair, ok := aliases[subject]; ok && pair.Normal != "" {
		return pair.Normal
	}
	return subject
}

// CompactDisplayName resolves the single-cell display name used by the
// smallest widgets. Fallback precedence: the compact alias, the first
// meaningful character of the normal alias, the first meaningful character
// of the raw subject, then "-".
func CompactDisplayName(subject string, aliases map[string]models.AliasPair) string {
	pair, ok := aliases[subject]
	if ok && pair.Compact != "" {
		return pair.Compact
	}
	if ok {
		if ch, found := firstMeaningfulCharacter(pair.Normal); found {
			return string(ch)
		}
	}
	if ch, found := firstMeaningfulCharacter(subject); found {
		return string(ch)
	}
	return "-"
}

// firstMeaningfulCharacter returns the first letter or digit rune,
// skipping punctuation, symbols and whitespace (subject names like
// "[선택] 물리" should compact to the first real character).
func firstMeaningfulCharacter(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r, true
		}
	}
	return 0, false
}
