package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/security"
	"verselearn/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	teamService *service.TeamService
	signer      *security.TokenSigner
	csrf        *security.CSRFGenerator
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *service.AuthService,
	teamService *service.TeamService,
	signer *security.TokenSigner,
	csrf *security.CSRFGenerator,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		teamService: teamService,
		signer:      signer,
		csrf:        csrf,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// startSession logs the user in and sets the signed session cookie
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, username, password string, status int) {
	session, user, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		respondWithServiceError(h.logger, w, "Error logging in", err)
		return
	}

	token, err := h.signer.Sign(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, ErrInternalServerError, "Error signing session", err)
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, token, session.ExpiresAt))

	respondJSON(w, status, SessionView{
		User:      newUserView(user),
		CSRFToken: h.csrf.GenerateToken(session.ID),
		ExpiresAt: session.ExpiresAt,
	})
}

// Register creates an account and logs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Username, req.Password, req.Confirm); err != nil {
		respondWithServiceError(h.logger, w, "Error registering user", err)
		return
	}
	h.startSession(w, r, req.Username, req.Password, http.StatusCreated)
}

// Login handles a login request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	h.startSession(w, r, req.Username, req.Password, http.StatusOK)
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), GetSessionIDFromContext(r.Context())); err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, ErrInternalServerError, "Error logging out", err)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current user's statistics and team
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	view := MeView{
		User:      newUserView(user),
		CSRFToken: h.csrf.GenerateToken(GetSessionIDFromContext(r.Context())),
	}

	if user.TeamID != nil {
		team, err := h.teamService.GetTeam(r.Context(), *user.TeamID)
		switch {
		case errors.Is(err, service.ErrTeamNotFound):
		case err != nil:
			respondWithServiceError(h.logger, w, "Error loading team", err)
			return
		default:
			tv := newTeamView(team, user)
			view.Team = &tv
		}
	}

	respondJSON(w, http.StatusOK, view)
}

// currentUser is shorthand used by handlers behind RequireAuth
func currentUser(r *http.Request) *models.User {
	return GetUserFromContext(r.Context())
}
