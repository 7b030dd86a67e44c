package timetable

import (
	"testing"

	"github.com/nice-timetable/backend/internal/storage/models"
)

func TestDisplayName(t *testing.T) {
	aliases := map[string]models.AliasPair{
		"진로활동":    {Normal: "진로", Compact: "진"},
		"통합과학":    {Compact: "과"}, // compact only
		"빈문자열테스트": {Normal: ""},
	}

	tests := []struct {
		subject string
		want    string
	}{
		{"진로활동", "진로"},
		{"통합과학", "통합과학"},    // no normal alias: raw subject
		{"빈문자열테스트", "빈문자열테스트"}, // empty normal alias: raw subject
		{"수학", "수학"},        // no entry at all
	}
	for _, tt := range tests {
		if got := DisplayName(tt.subject, aliases); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}

func TestCompactDisplayName(t *testing.T) {
	aliases := map[string]models.AliasPair{
		"진로활동": {Normal: "진로", Compact: "진"},
		"통합과학": {Normal: "과학"}, // normal only
		"체육":   {},            // empty pair
	}

	tests := []struct {
		subject string
		want    string
	}{
		{"진로활동", "진"},     // compact alias wins
		{"통합과학", "과"},     // first character of the normal alias
		{"체육", "체"},       // first character of the subject itself
		{"수학", "수"},       // no entry: first character of the subject
		{"[선택] 물리", "선"},  // punctuation skipped
		{"", "-"},         // nothing usable
		{"???", "-"},      // only punctuation
	}
	for _, tt := range tests {
		if got := CompactDisplayName(tt.subject, aliases); got != tt.want {
			t.Errorf("CompactDisplayName(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}
