package handlers

import (
	"time"

	"verselearn/internal/models"
	"verselearn/internal/service"
)

// UserView is the public part of an account
type UserView struct {
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	Points              int64      `json:"points"`
	LearningTimeSeconds int64      `json:"learning_time_seconds"`
	TotalVersesLearned  int64      `json:"total_verses_learned"`
	TotalWordsLearned   int64      `json:"total_words_learned"`
	IsAdmin             bool       `json:"is_admin"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:                  u.ID,
		Username:            u.Username,
		Points:              u.Points,
		LearningTimeSeconds: u.LearningTimeSeconds,
		TotalVersesLearned:  u.TotalVersesLearned,
		TotalWordsLearned:   u.TotalWordsLearned,
		IsAdmin:             u.IsAdmin,
		LastLogin:           u.LastLogin,
	}
}

// SessionView answers login and registration
type SessionView struct {
	User      UserView  `json:"user"`
	CSRFToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeView is the dashboard of the current user
type MeView struct {
	User      UserView  `json:"user"`
	Team      *TeamView `json:"team,omitempty"`
	CSRFToken string    `json:"csrf_token"`
}

// TextView is one entry of the text picker. Label carries the display markers.
type TextView struct {
	models.TextSummary
	Label string `json:"label"`
}

func newTextView(s models.TextSummary) TextView {
	label := s.Title
	switch {
	case s.Public:
		label += " [Öffentlich]"
		if s.AddedBy != "" {
			label += " (von " + s.AddedBy + ")"
		}
	case s.CopiedFromPublic:
		label += " [Kopie]"
	}
	if s.Completed {
		label = "✅ " + label
	}
	return TextView{TextSummary: s, Label: label}
}

// TurnView is a study turn with the auto-advance pause in milliseconds
type TurnView struct {
	*service.Turn
	AdvanceAfterMS int64 `json:"advance_after_ms,omitempty"`
}

func newTurnView(t *service.Turn) TurnView {
	v := TurnView{Turn: t}
	if t.Solved {
		v.AdvanceAfterMS = t.AdvanceAfter.Milliseconds()
	}
	return v
}

// TeamView is a team with its members. The join code is only shown to members.
type TeamView struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	JoinCode string              `json:"join_code,omitempty"`
	Points   int64               `json:"points"`
	Members  []models.TeamMember `json:"members"`
}

func newTeamView(t *models.TeamWithMembers, viewer *models.User) TeamView {
	v := TeamView{
		ID:      t.Team.ID,
		Name:    t.Team.Name,
		Points:  t.Points,
		Members: t.Members,
	}
	if v.Members == nil {
		v.Members = []models.TeamMember{}
	}
	if viewer != nil && (viewer.IsAdmin || (viewer.TeamID != nil && *viewer.TeamID == t.Team.ID)) {
		v.JoinCode = t.Team.JoinCode
	}
	return v
}
