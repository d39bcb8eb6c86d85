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

// ErrJoinCodeTaken is returned when a generated join code collides
var ErrJoinCodeTaken = errors.New("join code already in use")

// TeamRepository handles database operations for teams.
// Membership is the users.team_id column; team points are always summed on read.
type TeamRepository struct {
	db *database.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// CreateTeam creates a team and moves the creator into it
func (r *TeamRepository) CreateTeam(ctx context.Context, name, joinCode string, creatorUserID int64) (*models.Team, error) {
	now := time.Now().UTC()
	var teamID int64

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		id, err := tx.ExecReturningID(ctx,
			"INSERT INTO teams (name, join_code, created_by, created_at) VALUES (?, ?, ?, ?)",
			name, joinCode, creatorUserID, now)
		if err != nil {
			if r.db.Dialect.IsUniqueViolation(err) {
				return ErrJoinCodeTaken
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		teamID = id

		_, err = tx.ExecContext(ctx, "UPDATE users SET team_id = ?, team_joined_at = ? WHERE id = ?", teamID, now, creatorUserID)
		if err != nil {
			return fmt.Errorf("failed to add team member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Team{
		ID:        teamID,
		Name:      name,
		JoinCode:  joinCode,
		CreatedBy: &creatorUserID,
		CreatedAt: now,
	}, nil
}

// GetTeamByID retrieves a team by ID
func (r *TeamRepository) GetTeamByID(ctx context.Context, teamID int64) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.GetContext(ctx, team, "SELECT id, name, join_code, created_by, created_at FROM teams WHERE id = ?", teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// GetTeamByJoinCode retrieves a team by its join code
func (r *TeamRepository) GetTeamByJoinCode(ctx context.Context, code string) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.GetContext(ctx, team, "SELECT id, name, join_code, created_by, created_at FROM teams WHERE join_code = ?", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// GetAllTeams retrieves all teams ordered by ID
func (r *TeamRepository) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.SelectContext(ctx, &teams, "SELECT id, name, join_code, created_by, created_at FROM teams ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	return teams, nil
}

// GetTeamMembers retrieves the members of a team in join order
func (r *TeamRepository) GetTeamMembers(ctx context.Context, teamID int64) ([]models.TeamMember, error) {
	query := `
		SELECT id, username, points, team_joined_at
		FROM users
		WHERE team_id = ?
		ORDER BY team_joined_at ASC, id ASC
	`
	var members []models.TeamMember
	if err := r.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	return members, nil
}

// TopTeams returns teams ordered by the summed points of their members
func (r *TeamRepository) TopTeams(ctx context.Context, limit int) ([]models.TeamStanding, error) {
	query := `
		SELECT t.id, t.name,
		       COALESCE(SUM(u.points), 0) AS points,
		       COUNT(u.id) AS member_count
		FROM teams t
		LEFT JOIN users u ON u.team_id = t.id
		GROUP BY t.id, t.name
		ORDER BY points DESC, t.name ASC
		LIMIT ?
	`
	var standings []models.TeamStanding
	if err := r.db.SelectContext(ctx, &standings, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query team leaderboard: %w", err)
	}
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// DeleteTeam detaches all members and removes the team
func (r *TeamRepository) DeleteTeam(ctx context.Context, teamID int64) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET team_id = NULL, team_joined_at = NULL WHERE team_id = ?", teamID); err != nil {
			return fmt.Errorf("failed to detach team members: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", teamID); err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		return nil
	})
	return err
}

// RestoreTeam inserts a team record with its original ID
func (r *TeamRepository) RestoreTeam(ctx context.Context, tx *database.Tx, t models.Team) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO teams (id, name, join_code, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.Name, t.JoinCode, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to restore team %s: %w", t.Name, err)
	}
	return nil
}
