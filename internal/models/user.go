package models

import "time"

// User represents a learner account
type User struct {
	ID                  int64      `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	PasswordHash        string     `db:"password_hash" json:"password_hash"`
	Points              int64      `db:"points" json:"points"`
	TeamID              *int64     `db:"team_id" json:"team_id,omitempty"`
	TeamJoinedAt        *time.Time `db:"team_joined_at" json:"team_joined_at,omitempty"`
	LearningTimeSeconds int64      `db:"learning_time_seconds" json:"learning_time_seconds"`
	TotalVersesLearned  int64      `db:"total_verses_learned" json:"total_verses_learned"`
	TotalWordsLearned   int64      `db:"total_words_learned" json:"total_words_learned"`
	IsAdmin             bool       `db:"is_admin" json:"is_admin"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	LastLogin           *time.Time `db:"last_login" json:"last_login,omitempty"`
}

// HasTeam reports whether the user currently belongs to a team
func (u *User) HasTeam() bool {
	return u.TeamID != nil
}

// Session represents an authenticated session
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Settlement is the statistics delta credited for one solved unit
type Settlement struct {
	Points  int64
	Seconds int64
	Verses  int64
	Words   int64
}

// UserStanding is one row of the user leaderboard
type UserStanding struct {
	Rank     int    `db:"-" json:"rank"`
	Username string `db:"username" json:"username"`
	Points   int64  `db:"points" json:"points"`
	TeamName string `db:"team_name" json:"team_name,omitempty"`
}
