package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/repository"
	"verselearn/internal/validation"
	"verselearn/internal/verse"
)

var (
	ErrTextNotFound     = errors.New("text not found")
	ErrInvalidFormat    = errors.New("text does not look like numbered verses, e.g. \"1) Joh 3:16 Denn also...\"")
	ErrForbiddenContent = errors.New("text contains forbidden words")
)

// ContentFilter finds forbidden words in user supplied text
type ContentFilter interface {
	ContainsBadWord(ctx context.Context, text string) (string, bool, error)
}

// TextService manages private texts and the public catalog
type TextService struct {
	progress *repository.ProgressRepository
	catalog  *repository.CatalogRepository
	filter   ContentFilter
	logger   *zap.Logger
}

// NewTextService creates a new text service
func NewTextService(progress *repository.ProgressRepository, catalog *repository.CatalogRepository, filter ContentFilter, logger *zap.Logger) *TextService {
	return &TextService{
		progress: progress,
		catalog:  catalog,
		filter:   filter,
		logger:   logger,
	}
}

// prepare validates a submitted text and splits it into units
func (s *TextService) prepare(ctx context.Context, lang, title, raw string) ([]models.Unit, error) {
	if err := validation.ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := validation.ValidateLanguage(lang); err != nil {
		return nil, err
	}
	if !verse.IsFormatLikelyCorrect(raw) {
		return nil, ErrInvalidFormat
	}
	if s.filter != nil {
		word, found, err := s.filter.ContainsBadWord(ctx, title+"\n"+raw)
		if err != nil {
			return nil, fmt.Errorf("failed to check content: %w", err)
		}
		if found {
			s.logger.Info("rejected text with forbidden word", zap.String("title", title), zap.String("word", word))
			return nil, ErrForbiddenContent
		}
	}
	units, err := verse.Parse(raw)
	if err != nil {
		return nil, err
	}
	return units, nil
}

// AddText stores a new text, either privately for username or in the public
// catalog. Titles must be unique within their scope and language.
func (s *TextService) AddText(ctx context.Context, username, lang, title, raw string, public bool) error {
	title = strings.TrimSpace(title)
	units, err := s.prepare(ctx, lang, title, raw)
	if err != nil {
		return err
	}

	if public {
		err = s.catalog.Publish(models.PublicText{
			Title:    title,
			Language: lang,
			Units:    units,
			AddedBy:  username,
		})
	} else {
		err = s.progress.Insert(username, lang, title, models.NewTextRecord(lang, units))
	}
	if err != nil {
		if errors.Is(err, repository.ErrTitleConflict) {
			return err
		}
		return fmt.Errorf("failed to save text: %w", err)
	}

	s.logger.Info("text added",
		zap.String("user", username),
		zap.String("language", lang),
		zap.String("title", title),
		zap.Int("units", len(units)),
		zap.Bool("public", public))
	return nil
}

// ListTexts returns the user's private texts followed by the public catalog,
// each group sorted by title. Public texts the user already copied are listed
// only once, as the private copy.
func (s *TextService) ListTexts(ctx context.Context, username, lang string) ([]models.TextSummary, error) {
	if err := validation.ValidateLanguage(lang); err != nil {
		return nil, err
	}

	private := s.progress.Load(username, lang)
	out := make([]models.TextSummary, 0, len(private))
	for title, rec := range private {
		out = append(out, models.TextSummary{
			Title:            title,
			Language:         lang,
			UnitCount:        len(rec.Units),
			Completed:        rec.Progress.CompletedLinear,
			CopiedFromPublic: rec.CopiedFromPublic,
			AddedBy:          rec.Contributor,
		})
	}
	sortSummaries(out)

	var public []models.TextSummary
	for title, text := range s.catalog.List(lang) {
		if rec, ok := private[title]; ok && rec.CopiedFromPublic {
			continue
		}
		public = append(public, models.TextSummary{
			Title:     title,
			Language:  lang,
			UnitCount: len(text.Units),
			Public:    true,
			AddedBy:   text.AddedBy,
		})
	}
	sortSummaries(public)

	return append(out, public...), nil
}

func sortSummaries(list []models.TextSummary) {
	sort.Slice(list, func(i, j int) bool { return list[i].Title < list[j].Title })
}

// Select prepares a text for study. Picking a public text copies it into the
// user's partition the first time; later picks reuse that copy.
func (s *TextService) Select(ctx context.Context, username, lang, title string, public bool) (*models.TextRecord, error) {
	if err := validation.ValidateLanguage(lang); err != nil {
		return nil, err
	}

	existing, err := s.progress.Get(username, lang, title)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if !public {
		if existing == nil {
			return nil, ErrTextNotFound
		}
		return existing, nil
	}

	if existing != nil {
		if existing.CopiedFromPublic {
			return existing, nil
		}
		return nil, repository.ErrTitleConflict
	}

	text, err := s.catalog.Get(lang, title)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if text == nil {
		return nil, ErrTextNotFound
	}

	rec := models.NewTextRecord(lang, append([]models.Unit(nil), text.Units...))
	rec.CopiedFromPublic = true
	rec.Contributor = text.AddedBy
	if err := s.progress.Insert(username, lang, title, rec); err != nil {
		if errors.Is(err, repository.ErrTitleConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to copy public text: %w", err)
	}

	s.logger.Info("public text copied",
		zap.String("user", username),
		zap.String("language", lang),
		zap.String("title", title))
	return &rec, nil
}

// DeletePrivate removes one of the user's own texts together with its progress
func (s *TextService) DeletePrivate(ctx context.Context, username, lang, title string) error {
	rec, err := s.progress.Get(username, lang, title)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	if rec == nil {
		return ErrTextNotFound
	}
	if err := s.progress.Delete(username, lang, title); err != nil {
		return fmt.Errorf("failed to delete text: %w", err)
	}
	return nil
}

// ResetCompletion clears the completed flag of a linear text
func (s *TextService) ResetCompletion(ctx context.Context, username, lang, title string) error {
	err := s.progress.ResetCompletion(username, lang, title)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return ErrTextNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}

// DeletePublic removes a text from the catalog. Private copies stay untouched.
func (s *TextService) DeletePublic(ctx context.Context, lang, title string) error {
	err := s.catalog.Delete(lang, title)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return ErrTextNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete public text: %w", err)
	}
	s.logger.Info("public text deleted", zap.String("language", lang), zap.String("title", title))
	return nil
}
