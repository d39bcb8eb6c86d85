package models

import (
	"strings"
	"time"
)

// Mode is a traversal mode over the units of a text
type Mode string

const (
	ModeLinear Mode = "linear"
	ModeRandom Mode = "random"
)

// ParseMode converts user input into a Mode
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLinear:
		return ModeLinear, true
	case ModeRandom:
		return ModeRandom, true
	}
	return "", false
}

// Supported language codes
const (
	LanguageDE = "DE"
	LanguageEN = "EN"
)

// SupportedLanguages lists every language a text can be filed under
var SupportedLanguages = []string{LanguageDE, LanguageEN}

// IsSupportedLanguage reports whether code names a supported language
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// Unit is one referenceable passage of a text
type Unit struct {
	Ref  string `json:"ref"`
	Text string `json:"text"`
}

// RandomPass is the state of one random-without-replacement pass.
// Order is a permutation of unit indices, Cursor points into Order.
type RandomPass struct {
	Order      []int `json:"order"`
	Cursor     int   `json:"cursor"`
	ShownCount int   `json:"shown_count"`
}

// Progress is the persisted learning position for one text
type Progress struct {
	Mode            Mode       `json:"mode"`
	LastIndex       int        `json:"last_index"`
	CompletedLinear bool       `json:"completed_linear"`
	RandomPass      RandomPass `json:"random_pass"`
}

// Normalize fills defaults for fields missing from older documents
func (p *Progress) Normalize() {
	if _, ok := ParseMode(string(p.Mode)); !ok {
		p.Mode = ModeLinear
	}
	if p.LastIndex < 0 {
		p.LastIndex = 0
	}
	if p.RandomPass.Cursor < 0 {
		p.RandomPass.Cursor = 0
	}
	if p.RandomPass.ShownCount < 0 {
		p.RandomPass.ShownCount = 0
	}
}

// TextRecord is a text owned by one user together with its progress
type TextRecord struct {
	Language         string   `json:"language"`
	Units            []Unit   `json:"units"`
	Progress         Progress `json:"progress"`
	CopiedFromPublic bool     `json:"copied_from_public,omitempty"`
	Contributor      string   `json:"contributor,omitempty"`
}

// NewTextRecord creates a private text starting at the first unit in linear mode
func NewTextRecord(language string, units []Unit) TextRecord {
	return TextRecord{
		Language: language,
		Units:    units,
		Progress: Progress{Mode: ModeLinear},
	}
}

// PublicText is a text in the shared catalog
type PublicText struct {
	Title    string    `json:"title"`
	Language string    `json:"language"`
	Units    []Unit    `json:"units"`
	AddedBy  string    `json:"added_by"`
	AddedAt  time.Time `json:"added_at"`
}

// TextSummary is a list entry for the text picker
type TextSummary struct {
	Title            string `json:"title"`
	Language         string `json:"language"`
	UnitCount        int    `json:"unit_count"`
	Public           bool   `json:"public"`
	Completed        bool   `json:"completed"`
	CopiedFromPublic bool   `json:"copied_from_public"`
	AddedBy          string `json:"added_by,omitempty"`
}
