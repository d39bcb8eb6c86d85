package repository

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"verselearn/internal/lockmap"
	"verselearn/internal/models"
)

// ProgressRepository stores each user's private texts and their progress in
// one JSON document per user.
type ProgressRepository struct {
	dir    string
	logger *zap.Logger
	locks  *lockmap.Map[string]
}

// NewProgressRepository creates a repository rooted at <dataDir>/users
func NewProgressRepository(dataDir string, logger *zap.Logger) *ProgressRepository {
	return &ProgressRepository{
		dir:    filepath.Join(dataDir, "users"),
		logger: logger,
		locks:  lockmap.New[string](),
	}
}

func (r *ProgressRepository) path(username string) string {
	return filepath.Join(r.dir, safeFileName(username))
}

// read loads a partition. Unreadable documents yield an empty partition and
// a warning so a damaged file never blocks study.
func (r *ProgressRepository) read(username string) *userDocument {
	path := r.path(username)
	data, err := readFile(path)
	if err != nil {
		r.logger.Warn("failed to read progress partition", zap.String("user", username), zap.Error(err))
		return newUserDocument()
	}
	doc, err := decodeUserDocument(data)
	if err != nil {
		r.logger.Warn("ignoring corrupt progress partition", zap.String("user", username), zap.Error(err))
		return newUserDocument()
	}
	return doc
}

// readForUpdate is read for callers holding the file lock. A corrupt
// document is moved aside before it would be overwritten.
func (r *ProgressRepository) readForUpdate(username string) (*userDocument, error) {
	path := r.path(username)
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress partition: %w", err)
	}
	doc, err := decodeUserDocument(data)
	if errors.Is(err, errCorrupt) {
		moved, qerr := quarantine(path)
		if qerr != nil {
			return nil, fmt.Errorf("failed to move corrupt partition aside: %w", qerr)
		}
		r.logger.Warn("moved corrupt progress partition aside", zap.String("user", username), zap.String("path", moved))
		return newUserDocument(), nil
	}
	return doc, err
}

func (r *ProgressRepository) write(username string, doc *userDocument) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(r.path(username), data); err != nil {
		return fmt.Errorf("failed to save progress for %s: %w", username, err)
	}
	return nil
}

// Load returns every text the user owns in lang. It never fails; missing or
// corrupt partitions read as empty.
func (r *ProgressRepository) Load(username, lang string) map[string]models.TextRecord {
	doc := r.read(username)
	texts := doc.Languages[lang]
	if texts == nil {
		return map[string]models.TextRecord{}
	}
	return texts
}

// Get returns one text, or nil if the user has no text with that title
func (r *ProgressRepository) Get(username, lang, title string) (*models.TextRecord, error) {
	rec, ok := r.Load(username, lang)[title]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Save merges record into the user's partition, preserving all other titles
// and languages.
func (r *ProgressRepository) Save(username, lang, title string, record models.TextRecord) error {
	unlock := r.locks.Lock(r.path(username))
	defer unlock()

	doc, err := r.readForUpdate(username)
	if err != nil {
		return err
	}
	if doc.Languages[lang] == nil {
		doc.Languages[lang] = make(map[string]models.TextRecord)
	}
	record.Language = lang
	doc.Languages[lang][title] = record
	return r.write(username, doc)
}

// Insert stores a new text and fails with ErrTitleConflict if the title is taken
func (r *ProgressRepository) Insert(username, lang, title string, record models.TextRecord) error {
	unlock := r.locks.Lock(r.path(username))
	defer unlock()

	doc, err := r.readForUpdate(username)
	if err != nil {
		return err
	}
	if _, exists := doc.Languages[lang][title]; exists {
		return ErrTitleConflict
	}
	if doc.Languages[lang] == nil {
		doc.Languages[lang] = make(map[string]models.TextRecord)
	}
	record.Language = lang
	doc.Languages[lang][title] = record
	return r.write(username, doc)
}

// Update applies fn to the stored text inside one read-modify-write cycle.
// Nothing is written when fn returns an error.
func (r *ProgressRepository) Update(username, lang, title string, fn func(*models.TextRecord) error) (*models.TextRecord, error) {
	unlock := r.locks.Lock(r.path(username))
	defer unlock()

	doc, err := r.readForUpdate(username)
	if err != nil {
		return nil, err
	}
	rec, ok := doc.Languages[lang][title]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if err := fn(&rec); err != nil {
		return nil, err
	}
	doc.Languages[lang][title] = rec
	if err := r.write(username, doc); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a text. Deleting a missing text is not an error.
func (r *ProgressRepository) Delete(username, lang, title string) error {
	unlock := r.locks.Lock(r.path(username))
	defer unlock()

	doc, err := r.readForUpdate(username)
	if err != nil {
		return err
	}
	if _, ok := doc.Languages[lang][title]; !ok {
		return nil
	}
	delete(doc.Languages[lang], title)
	return r.write(username, doc)
}

// ResetCompletion clears the completed flag and rewinds a linear text
func (r *ProgressRepository) ResetCompletion(username, lang, title string) error {
	_, err := r.Update(username, lang, title, func(rec *models.TextRecord) error {
		rec.Progress.CompletedLinear = false
		rec.Progress.LastIndex = 0
		return nil
	})
	return err
}

// Languages lists the language codes the user has texts in
func (r *ProgressRepository) Languages(username string) []string {
	doc := r.read(username)
	langs := make([]string, 0, len(doc.Languages))
	for lang, texts := range doc.Languages {
		if len(texts) > 0 {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// All returns the user's whole partition
func (r *ProgressRepository) All(username string) map[string]map[string]models.TextRecord {
	return r.read(username).Languages
}

// Replace overwrites the user's whole partition
func (r *ProgressRepository) Replace(username string, languages map[string]map[string]models.TextRecord) error {
	unlock := r.locks.Lock(r.path(username))
	defer unlock()

	doc := newUserDocument()
	for lang, texts := range languages {
		doc.Languages[lang] = texts
	}
	return r.write(username, doc)
}
