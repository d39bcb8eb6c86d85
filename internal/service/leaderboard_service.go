package service

import (
	"context"
	"fmt"

	"verselearn/internal/models"
	"verselearn/internal/repository"
)

// DefaultLeaderboardSize is used when no size is configured
const DefaultLeaderboardSize = 10

// Leaderboard holds the top users and teams
type Leaderboard struct {
	Users []models.UserStanding `json:"users"`
	Teams []models.TeamStanding `json:"teams"`
}

// LeaderboardService ranks users and teams by points
type LeaderboardService struct {
	userRepo *repository.UserRepository
	teamRepo *repository.TeamRepository
	size     int
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(userRepo *repository.UserRepository, teamRepo *repository.TeamRepository, size int) *LeaderboardService {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &LeaderboardService{userRepo: userRepo, teamRepo: teamRepo, size: size}
}

// Get returns the current standings
func (s *LeaderboardService) Get(ctx context.Context) (*Leaderboard, error) {
	users, err := s.userRepo.TopUsers(ctx, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to get user standings: %w", err)
	}
	teams, err := s.teamRepo.TopTeams(ctx, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to get team standings: %w", err)
	}
	if users == nil {
		users = []models.UserStanding{}
	}
	if teams == nil {
		teams = []models.TeamStanding{}
	}
	return &Leaderboard{Users: users, Teams: teams}, nil
}
