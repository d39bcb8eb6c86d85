package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"verselearn/internal/service"
)

// TeamHandler handles team membership and the leaderboard
type TeamHandler struct {
	teamService        *service.TeamService
	leaderboardService *service.LeaderboardService
	logger             *zap.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *service.TeamService, leaderboardService *service.LeaderboardService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamService:        teamService,
		leaderboardService: leaderboardService,
		logger:             logger,
	}
}

type teamRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *TeamHandler) respondTeam(w http.ResponseWriter, r *http.Request, teamID int64, status int) {
	team, err := h.teamService.GetTeam(r.Context(), teamID)
	if err != nil {
		respondWithServiceError(h.logger, w, "Error loading team", err)
		return
	}
	// membership just changed, so the cached user is stale
	viewer := *currentUser(r)
	viewer.TeamID = &teamID
	respondJSON(w, status, newTeamView(team, &viewer))
}

// Create founds a new team with the current user as first member
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	team, err := h.teamService.CreateTeam(r.Context(), currentUser(r).ID, req.Name)
	if err != nil {
		respondWithServiceError(h.logger, w, "Error creating team", err)
		return
	}
	h.respondTeam(w, r, team.ID, http.StatusCreated)
}

// Join adds the current user to a team by join code
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	team, err := h.teamService.JoinTeam(r.Context(), currentUser(r).ID, req.Code)
	if err != nil {
		respondWithServiceError(h.logger, w, "Error joining team", err)
		return
	}
	h.respondTeam(w, r, team.ID, http.StatusOK)
}

// Leave removes the current user from their team
func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.teamService.LeaveTeam(r.Context(), currentUser(r).ID); err != nil {
		respondWithServiceError(h.logger, w, "Error leaving team", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get shows a team with its members
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, "Invalid team ID", "", err)
		return
	}
	team, err := h.teamService.GetTeam(r.Context(), id)
	if err != nil {
		respondWithServiceError(h.logger, w, "Error loading team", err)
		return
	}
	respondJSON(w, http.StatusOK, newTeamView(team, currentUser(r)))
}

// Leaderboard returns the top users and teams
func (h *TeamHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.leaderboardService.Get(r.Context())
	if err != nil {
		respondWithServiceError(h.logger, w, "Error loading leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}
