package verse

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"verselearn/internal/models"
)

// Verifier judges submitted fragment sequences
type Verifier struct {
	MaxFragments int
}

// NewVerifier creates a verifier using the given fragment budget
func NewVerifier(maxFragments int) *Verifier {
	if maxFragments < 1 {
		maxFragments = DefaultMaxFragments
	}
	return &Verifier{MaxFragments: maxFragments}
}

// Verify reports whether submitted, joined by single spaces, equals correctText.
// On a mismatch the submitted fragments are diffed against the correct
// fragment sequence: matching runs pass through, replaced or inserted runs are
// marked as errors and deleted runs produce nothing.
func (v *Verifier) Verify(submitted []string, correctText string) models.Feedback {
	if strings.Join(submitted, " ") == correctText {
		return models.Feedback{Correct: true, CorrectText: correctText}
	}

	correct := Chunk(Tokenize(correctText), v.MaxFragments)
	matcher := difflib.NewMatcher(correct, submitted)

	var segments []models.DiffSegment
	for _, op := range matcher.GetOpCodes() {
		run := strings.Join(submitted[op.J1:op.J2], " ")
		switch op.Tag {
		case 'e':
			if run != "" {
				segments = append(segments, models.DiffSegment{Text: run})
			}
		case 'r', 'i':
			segments = append(segments, models.DiffSegment{Text: run, Error: true})
		}
	}

	return models.Feedback{
		Correct:     false,
		Segments:    segments,
		CorrectText: correctText,
	}
}
