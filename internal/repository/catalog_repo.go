package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/lockmap"
	"verselearn/internal/models"
)

type catalogDocument struct {
	Version   int                                     `json:"version"`
	Languages map[string]map[string]models.PublicText `json:"languages"`
}

func newCatalogDocument() *catalogDocument {
	return &catalogDocument{
		Version:   partitionVersion,
		Languages: make(map[string]map[string]models.PublicText),
	}
}

func decodeCatalogDocument(data []byte) (*catalogDocument, error) {
	doc := newCatalogDocument()
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
		if doc.Languages == nil {
			doc.Languages = make(map[string]map[string]models.PublicText)
		}
		for lang, texts := range doc.Languages {
			for title, text := range texts {
				text.Title = title
				if text.Language == "" {
					text.Language = lang
				}
				texts[title] = text
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
		out := make(map[string]models.PublicText, len(texts))
		for title, rec := range texts {
			out[title] = models.PublicText{
				Title:    title,
				Language: lang,
				Units:    rec.units(),
				AddedBy:  rec.AddedBy,
			}
		}
		doc.Languages[lang] = out
	}
	return doc, nil
}

// CatalogRepository stores the texts shared with every user
type CatalogRepository struct {
	path   string
	logger *zap.Logger
	locks  *lockmap.Map[string]
}

// NewCatalogRepository creates a repository backed by <dataDir>/public_texts.json
func NewCatalogRepository(dataDir string, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		path:   filepath.Join(dataDir, "public_texts.json"),
		logger: logger,
		locks:  lockmap.New[string](),
	}
}

func (r *CatalogRepository) read() *catalogDocument {
	data, err := readFile(r.path)
	if err != nil {
		r.logger.Warn("failed to read public catalog", zap.Error(err))
		return newCatalogDocument()
	}
	doc, err := decodeCatalogDocument(data)
	if err != nil {
		r.logger.Warn("ignoring corrupt public catalog", zap.Error(err))
		return newCatalogDocument()
	}
	return doc
}

func (r *CatalogRepository) readForUpdate() (*catalogDocument, error) {
	data, err := readFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public catalog: %w", err)
	}
	doc, err := decodeCatalogDocument(data)
	if errors.Is(err, errCorrupt) {
		moved, qerr := quarantine(r.path)
		if qerr != nil {
			return nil, fmt.Errorf("failed to move corrupt catalog aside: %w", qerr)
		}
		r.logger.Warn("moved corrupt public catalog aside", zap.String("path", moved))
		return newCatalogDocument(), nil
	}
	return doc, err
}

func (r *CatalogRepository) write(doc *catalogDocument) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		return fmt.Errorf("failed to save public catalog: %w", err)
	}
	return nil
}

// List returns the public texts in lang
func (r *CatalogRepository) List(lang string) map[string]models.PublicText {
	texts := r.read().Languages[lang]
	if texts == nil {
		return map[string]models.PublicText{}
	}
	return texts
}

// Get returns one public text, or nil if none has that title
func (r *CatalogRepository) Get(lang, title string) (*models.PublicText, error) {
	text, ok := r.List(lang)[title]
	if !ok {
		return nil, nil
	}
	return &text, nil
}

// Publish adds a text to the catalog. Titles are unique per language.
func (r *CatalogRepository) Publish(text models.PublicText) error {
	unlock := r.locks.Lock(r.path)
	defer unlock()

	doc, err := r.readForUpdate()
	if err != nil {
		return err
	}
	if _, exists := doc.Languages[text.Language][text.Title]; exists {
		return ErrTitleConflict
	}
	if doc.Languages[text.Language] == nil {
		doc.Languages[text.Language] = make(map[string]models.PublicText)
	}
	if text.AddedAt.IsZero() {
		text.AddedAt = time.Now().UTC()
	}
	doc.Languages[text.Language][text.Title] = text
	return r.write(doc)
}

// Delete removes a public text. Copies already taken by users are kept.
func (r *CatalogRepository) Delete(lang, title string) error {
	unlock := r.locks.Lock(r.path)
	defer unlock()

	doc, err := r.readForUpdate()
	if err != nil {
		return err
	}
	if _, ok := doc.Languages[lang][title]; !ok {
		return ErrRecordNotFound
	}
	delete(doc.Languages[lang], title)
	return r.write(doc)
}

// All returns the whole catalog
func (r *CatalogRepository) All() map[string]map[string]models.PublicText {
	return r.read().Languages
}

// Replace overwrites the whole catalog
func (r *CatalogRepository) Replace(languages map[string]map[string]models.PublicText) error {
	unlock := r.locks.Lock(r.path)
	defer unlock()

	doc := newCatalogDocument()
	for lang, texts := range languages {
		doc.Languages[lang] = texts
	}
	return r.write(doc)
}
