package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"verselearn/internal/credentials"
	"verselearn/internal/models"
	"verselearn/internal/repository"
	"verselearn/internal/validation"
)

var (
	ErrTeamNotFound  = errors.New("team not found")
	ErrAlreadyInTeam = errors.New("user already belongs to a team")
	ErrNotInTeam     = errors.New("user does not belong to a team")
)

// joinCodeAttempts bounds retries when a generated join code collides
const joinCodeAttempts = 5

// TeamService handles team membership business logic
type TeamService struct {
	teamRepo *repository.TeamRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

// NewTeamService creates a new team service
func NewTeamService(teamRepo *repository.TeamRepository, userRepo *repository.UserRepository, logger *zap.Logger) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *TeamService) loadUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

// CreateTeam creates a team with a fresh join code and makes the creator its
// first member.
func (s *TeamService) CreateTeam(ctx context.Context, creatorID int64, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateTeamName(name); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if user.HasTeam() {
		return nil, ErrAlreadyInTeam
	}

	for i := 0; i < joinCodeAttempts; i++ {
		code, err := credentials.GenerateJoinCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}
		team, err := s.teamRepo.CreateTeam(ctx, name, code, creatorID)
		if errors.Is(err, repository.ErrJoinCodeTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create team: %w", err)
		}
		s.logger.Info("team created",
			zap.Int64("team_id", team.ID),
			zap.String("name", team.Name),
			zap.Int64("creator_id", creatorID))
		return team, nil
	}
	return nil, fmt.Errorf("failed to create team: %w", repository.ErrJoinCodeTaken)
}

// JoinTeam adds the user to the team with the given join code. Users must
// leave their current team first.
func (s *TeamService) JoinTeam(ctx context.Context, userID int64, code string) (*models.Team, error) {
	code = credentials.NormalizeJoinCode(code)
	if !credentials.IsValidJoinCode(code) {
		return nil, ErrTeamNotFound
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasTeam() {
		return nil, ErrAlreadyInTeam
	}

	team, err := s.teamRepo.GetTeamByJoinCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	if err := s.userRepo.SetTeam(ctx, userID, &team.ID); err != nil {
		return nil, fmt.Errorf("failed to join team: %w", err)
	}
	s.logger.Info("user joined team", zap.Int64("user_id", userID), zap.Int64("team_id", team.ID))
	return team, nil
}

// LeaveTeam removes the user from their team. The team itself is kept, even
// when empty, so its join code stays usable.
func (s *TeamService) LeaveTeam(ctx context.Context, userID int64) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasTeam() {
		return ErrNotInTeam
	}
	if err := s.userRepo.SetTeam(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to leave team: %w", err)
	}
	s.logger.Info("user left team", zap.Int64("user_id", userID), zap.Int64("team_id", *user.TeamID))
	return nil
}

// GetTeam returns a team with its members. Team points are the sum of the
// members' current points.
func (s *TeamService) GetTeam(ctx context.Context, teamID int64) (*models.TeamWithMembers, error) {
	team, err := s.teamRepo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	members, err := s.teamRepo.GetTeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}

	result := &models.TeamWithMembers{Team: *team, Members: members}
	for _, m := range members {
		result.Points += m.Points
	}
	return result, nil
}

// DeleteTeam removes a team; its members become teamless
func (s *TeamService) DeleteTeam(ctx context.Context, teamID int64) error {
	team, err := s.teamRepo.GetTeamByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}
	if err := s.teamRepo.DeleteTeam(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}
