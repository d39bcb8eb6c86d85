package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/service"
)

// AdminHandler handles administrative HTTP requests
type AdminHandler struct {
	authService   *service.AuthService
	textService   *service.TextService
	teamService   *service.TeamService
	backupService *service.BackupService
	logger        *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	authService *service.AuthService,
	textService *service.TextService,
	teamService *service.TeamService,
	backupService *service.BackupService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		textService:   textService,
		teamService:   teamService,
		backupService: backupService,
		logger:        logger,
	}
}

// ListUsers returns every account with its statistics
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(h.logger, w, "Error listing users", err)
		return
	}
	views := make([]UserView, len(users))
	for i := range users {
		views[i] = newUserView(&users[i])
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

// DeletePublicText removes a text from the public catalog
func (h *AdminHandler) DeletePublicText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lang := strings.ToUpper(q.Get("lang"))
	title := q.Get("title")
	if err := h.textService.DeletePublic(r.Context(), lang, title); err != nil {
		respondWithServiceError(h.logger, w, "Error deleting public text", err)
		return
	}
	h.logger.Info("public text deleted by admin",
		zap.String("admin", currentUser(r).Username),
		zap.String("language", lang),
		zap.String("title", title))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTeam dissolves a team
func (h *AdminHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, "Invalid team ID", "", err)
		return
	}
	if err := h.teamService.DeleteTeam(r.Context(), id); err != nil {
		respondWithServiceError(h.logger, w, "Error deleting team", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportBackup streams a JSON backup for download
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("verselearn_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(r.Context(), w); err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, "Failed to export backup", "Error exporting backup", err)
		return
	}
	h.logger.Info("backup exported by admin", zap.String("admin", currentUser(r).Username))
}
