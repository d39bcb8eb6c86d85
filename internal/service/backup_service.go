package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/database"
	"verselearn/internal/models"
	"verselearn/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "2"

// ErrDatabaseNotEmpty is returned when importing into a database that already has users
var ErrDatabaseNotEmpty = errors.New("database already contains users; import requires an empty database")

// BackupData represents the complete backup structure
type BackupData struct {
	Version      string                                             `json:"version"`
	ExportedAt   time.Time                                          `json:"exported_at"`
	DatabaseType string                                             `json:"database_type"`
	Users        []models.User                                      `json:"users"`
	Teams        []models.Team                                      `json:"teams"`
	Progress     map[string]map[string]map[string]models.TextRecord `json:"progress"`
	Catalog      map[string]map[string]models.PublicText            `json:"catalog"`
}

// BackupService handles backup and restore of accounts, teams, progress
// partitions and the public catalog
type BackupService struct {
	db       *database.DB
	userRepo *repository.UserRepository
	teamRepo *repository.TeamRepository
	progress *repository.ProgressRepository
	catalog  *repository.CatalogRepository
	logger   *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(
	db *database.DB,
	userRepo *repository.UserRepository,
	teamRepo *repository.TeamRepository,
	progress *repository.ProgressRepository,
	catalog *repository.CatalogRepository,
	logger *zap.Logger,
) *BackupService {
	return &BackupService{
		db:       db,
		userRepo: userRepo,
		teamRepo: teamRepo,
		progress: progress,
		catalog:  catalog,
		logger:   logger,
	}
}

// Collect gathers everything into one backup document
func (s *BackupService) Collect(ctx context.Context) (*BackupData, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	teams, err := s.teamRepo.GetAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export teams: %w", err)
	}

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
		Users:        users,
		Teams:        teams,
		Progress:     make(map[string]map[string]map[string]models.TextRecord, len(users)),
		Catalog:      s.catalog.All(),
	}
	for _, u := range users {
		if langs := s.progress.All(u.Username); len(langs) > 0 {
			backup.Progress[u.Username] = langs
		}
	}
	return backup, nil
}

// ExportToWriter writes a backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Collect(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("backup exported",
		zap.Int("users", len(backup.Users)),
		zap.Int("teams", len(backup.Teams)),
		zap.Int("partitions", len(backup.Progress)))
	return nil
}

// Export writes a backup to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := s.ExportToWriter(ctx, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// Import restores a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup into an empty database. Rows keep their
// original IDs; partitions and the catalog are written after the database
// transaction commits.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	s.logger.Info("importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt))

	var userCount int
	if err := s.db.GetContext(ctx, &userCount, "SELECT COUNT(*) FROM users"); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount > 0 {
		return ErrDatabaseNotEmpty
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		// teams first, users reference them
		for _, t := range backup.Teams {
			if err := s.teamRepo.RestoreTeam(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, u := range backup.Users {
			if err := s.userRepo.RestoreUser(ctx, tx, u); err != nil {
				return err
			}
		}
		return s.resetSequences(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("failed to import accounts: %w", err)
	}

	for username, langs := range backup.Progress {
		if err := s.progress.Replace(username, langs); err != nil {
			return fmt.Errorf("failed to import progress of %s: %w", username, err)
		}
	}
	if backup.Catalog != nil {
		if err := s.catalog.Replace(backup.Catalog); err != nil {
			return fmt.Errorf("failed to import catalog: %w", err)
		}
	}

	s.logger.Info("backup imported",
		zap.Int("users", len(backup.Users)),
		zap.Int("teams", len(backup.Teams)),
		zap.Int("partitions", len(backup.Progress)))
	return nil
}

// resetSequences moves postgres id sequences past the restored ids. SQLite
// and MySQL track this on their own.
func (s *BackupService) resetSequences(ctx context.Context, tx *database.Tx) error {
	if s.db.Dialect.DriverName() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "teams"} {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}
