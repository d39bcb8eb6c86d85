package models

import "time"

// Team represents a group of learners pooling their points
type Team struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	JoinCode  string    `db:"join_code" json:"join_code"`
	CreatedBy *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeamMember is a user as seen from a team
type TeamMember struct {
	UserID   int64      `db:"id" json:"user_id"`
	Username string     `db:"username" json:"username"`
	Points   int64      `db:"points" json:"points"`
	JoinedAt *time.Time `db:"team_joined_at" json:"joined_at,omitempty"`
}

// TeamWithMembers combines a team with its members ordered by join time.
// Points is always derived from the members.
type TeamWithMembers struct {
	Team    Team
	Members []TeamMember
	Points  int64
}

// TeamStanding is one row of the team leaderboard
type TeamStanding struct {
	Rank        int    `db:"-" json:"rank"`
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Points      int64  `db:"points" json:"points"`
	MemberCount int    `db:"member_count" json:"member_count"`
}
