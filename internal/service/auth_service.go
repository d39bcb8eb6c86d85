package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/repository"
	"verselearn/internal/security"
	"verselearn/internal/validation"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	sessionDuration time.Duration
	logger          *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, sessionDuration time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, username, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password, confirm); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, passwordHash)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := security.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	now := time.Now()
	session, err := s.userRepo.CreateSession(ctx, security.GenerateSessionID(), user.ID, now.Add(s.sessionDuration))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// GetUser returns the user with id, or ErrUserNotFound
func (s *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// ListUsers returns all accounts ordered by ID
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
