package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verselearn/internal/database"
	"verselearn/internal/models"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrUserNotFound  = errors.New("user not found")
)

const userColumns = `id, username, password_hash, points, team_id, team_joined_at,
	learning_time_seconds, total_verses_learned, total_words_learned,
	is_admin, created_at, last_login`

// UserRepository handles database operations for users and sessions
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user. The first user becomes admin.
func (r *UserRepository) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var userCount int
	if err := r.db.GetContext(ctx, &userCount, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	isAdmin := userCount == 0

	query := "INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, username, passwordHash, isAdmin)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now(),
	}, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetAllUsers retrieves all users ordered by ID
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// UpdateLastLogin stamps a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ApplySettlement credits points and learning statistics in one statement
func (r *UserRepository) ApplySettlement(ctx context.Context, userID int64, s models.Settlement) error {
	query := `
		UPDATE users
		SET points = points + ?,
		    learning_time_seconds = learning_time_seconds + ?,
		    total_verses_learned = total_verses_learned + ?,
		    total_words_learned = total_words_learned + ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, s.Points, s.Seconds, s.Verses, s.Words, userID)
	if err != nil {
		return fmt.Errorf("failed to apply settlement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read settlement result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetTeam moves a user into a team, or out of any team when teamID is nil
func (r *UserRepository) SetTeam(ctx context.Context, userID int64, teamID *int64) error {
	var joinedAt interface{}
	if teamID != nil {
		joinedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, "UPDATE users SET team_id = ?, team_joined_at = ? WHERE id = ?", teamID, joinedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update team membership: %w", err)
	}
	return nil
}

// TopUsers returns the users with the most points
func (r *UserRepository) TopUsers(ctx context.Context, limit int) ([]models.UserStanding, error) {
	query := `
		SELECT u.username, u.points, COALESCE(t.name, '') AS team_name
		FROM users u
		LEFT JOIN teams t ON t.id = u.team_id
		ORDER BY u.points DESC, u.username ASC
		LIMIT ?
	`
	var standings []models.UserStanding
	if err := r.db.SelectContext(ctx, &standings, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// RestoreUser inserts a user record with its original ID and statistics
func (r *UserRepository) RestoreUser(ctx context.Context, tx *database.Tx, u models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, points, team_id, team_joined_at,
			learning_time_seconds, total_verses_learned, total_words_learned,
			is_admin, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.Points, u.TeamID, u.TeamJoinedAt,
		u.LearningTimeSeconds, u.TotalVersesLearned, u.TotalWordsLearned, u.IsAdmin, u.CreatedAt, u.LastLogin)
	if err != nil {
		return fmt.Errorf("failed to restore user %s: %w", u.Username, err)
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	now := time.Now().UTC()
	query := "INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, sessionID, userID, expiresAt.UTC(), now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.GetContext(ctx, session, "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted session count: %w", err)
	}
	return n, nil
}
