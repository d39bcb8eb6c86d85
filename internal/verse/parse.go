package verse

import (
	"errors"
	"regexp"
	"strings"

	"verselearn/internal/models"
)

var ErrNoUnits = errors.New("no verses found in text")

var (
	// "12) 1. Kor 13:4-7a Die Liebe ist langmütig"
	verseLine   = regexp.MustCompile(`^\d+\)\s*([\p{L}\p{N}_\s.]+?\s*\d+:\d+[\-\d]*[a-z]?)\s+(.*)$`)
	numberedRow = regexp.MustCompile(`^\s*\d+\)\s+`)
)

// Parse reads one unit per line in the form "<n>) <reference> <text>".
// Lines that do not match are ignored. Unit text is whitespace-normalized.
func Parse(raw string) ([]models.Unit, error) {
	var units []models.Unit
	for _, line := range strings.Split(raw, "\n") {
		m := verseLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		text := strings.Join(Tokenize(m[2]), " ")
		units = append(units, models.Unit{
			Ref:  strings.Join(Tokenize(m[1]), " "),
			Text: text,
		})
	}
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	return units, nil
}

// IsFormatLikelyCorrect checks that the first line starts with a verse number
func IsFormatLikelyCorrect(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	first, _, _ := strings.Cut(raw, "\n")
	return numberedRow.MatchString(strings.TrimSpace(first))
}
