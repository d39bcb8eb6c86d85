package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"verselearn/internal/models"
)

// partitionVersion is written into every partition document
const partitionVersion = 2

var (
	ErrTitleConflict  = errors.New("a text with this title already exists")
	ErrRecordNotFound = errors.New("text not found")
	errCorrupt        = errors.New("corrupt partition document")
)

// safeFileName maps a username to a file name made of [A-Za-z0-9_-] with a
// hash suffix, so names differing only in case or in stripped characters
// never share a file.
func safeFileName(username string) string {
	var b strings.Builder
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sum := sha256.Sum256([]byte(username))
	return b.String() + "-" + hex.EncodeToString(sum[:4]) + ".json"
}

// readFile returns nil data without error when the file does not exist
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// writeFileAtomic replaces path with data so readers see either the old or
// the new document, never a partial one.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// quarantine moves an unreadable document aside so the next write does not
// destroy it. It returns the new path.
func quarantine(path string) (string, error) {
	dest := fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// userDocument is the on-disk form of one user's partition
type userDocument struct {
	Version   int                                     `json:"version"`
	Languages map[string]map[string]models.TextRecord `json:"languages"`
}

func newUserDocument() *userDocument {
	return &userDocument{
		Version:   partitionVersion,
		Languages: make(map[string]map[string]models.TextRecord),
	}
}

// legacyUnit and legacyRecord describe the flat layout used before documents
// were versioned: lang -> title -> record.
type legacyUnit struct {
	Ref  string `json:"ref"`
	Text string `json:"text"`
}

type legacyRecord struct {
	Verses          []legacyUnit `json:"verses"`
	Mode            string       `json:"mode"`
	LastIndex       int          `json:"last_index"`
	CompletedLinear bool         `json:"completed_linear"`
	Public          bool         `json:"public"`
	Language        string       `json:"language"`
	AddedBy         string       `json:"added_by"`
	Order           []int        `json:"random_pass_indices_order"`
	Cursor          int          `json:"random_pass_current_position"`
	ShownCount      int          `json:"random_pass_shown_count"`
}

func (l legacyRecord) units() []models.Unit {
	units := make([]models.Unit, 0, len(l.Verses))
	for _, v := range l.Verses {
		units = append(units, models.Unit{Ref: v.Ref, Text: strings.Join(strings.Fields(v.Text), " ")})
	}
	return units
}

func (l legacyRecord) textRecord(lang string) models.TextRecord {
	rec := models.TextRecord{
		Language: lang,
		Units:    l.units(),
		Progress: models.Progress{
			Mode:            models.Mode(l.Mode),
			LastIndex:       l.LastIndex,
			CompletedLinear: l.CompletedLinear,
			RandomPass: models.RandomPass{
				Order:      l.Order,
				Cursor:     l.Cursor,
				ShownCount: l.ShownCount,
			},
		},
	}
	rec.Progress.Normalize()
	return rec
}

// isVersioned reports whether data is a versioned document rather than the
// legacy flat layout
func isVersioned(data []byte) (bool, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	_, ok := probe["version"]
	return ok, nil
}

func decodeUserDocument(data []byte) (*userDocument, error) {
	doc := newUserDocument()
	if len(data) == 0 {
		return doc, nil
	}

	versioned, err := isVersioned(data)
	if err != nil {
		return nil, err
	}

	if versioned {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", errCorrupt, err)
		}
		if doc.Version > partitionVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", errCorrupt, doc.Version)
		}
		if doc.Languages == nil {
			doc.Languages = make(map[string]map[string]models.TextRecord)
		}
		for lang, texts := range doc.Languages {
			for title, rec := range texts {
				rec.Progress.Normalize()
				if rec.Language == "" {
					rec.Language = lang
				}
				texts[title] = rec
			}
		}
		doc.Version = partitionVersion
		return doc, nil
	}

	var legacy map[string]map[string]legacyRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	for lang, texts := range legacy {
		out := make(map[string]models.TextRecord, len(texts))
		for title, rec := range texts {
			// Public entries never belonged in a private partition
			if rec.Public {
				continue
			}
			out[title] = rec.textRecord(lang)
		}
		doc.Languages[lang] = out
	}
	return doc, nil
}

func encodeDocument(doc any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return append(data, '\n'), nil
}
