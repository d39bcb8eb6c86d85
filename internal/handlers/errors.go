package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/repository"
	"verselearn/internal/service"
	"verselearn/internal/traversal"
	"verselearn/internal/validation"
	"verselearn/internal/verse"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(logger *zap.Logger, w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			logger.Error(logMsg, zap.Int("status", status), zap.Error(err))
		} else {
			logger.Debug(logMsg, zap.Int("status", status), zap.Error(err))
		}
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps domain errors to a status code and message.
// Anything unknown is a 500 and gets logged.
func respondWithServiceError(logger *zap.Logger, w http.ResponseWriter, logMsg string, err error) {
	var vErr validation.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Message, Field: vErr.Field})
		return
	}

	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		respondWithError(logger, w, status, ErrInternalServerError, logMsg, err)
		return
	}
	respondWithError(logger, w, status, msg, logMsg, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidFormat),
		errors.Is(err, service.ErrForbiddenContent),
		errors.Is(err, verse.ErrNoUnits),
		errors.Is(err, models.ErrFragmentOutOfRange),
		errors.Is(err, models.ErrFragmentUsed),
		errors.Is(err, traversal.ErrUnknownMode),
		errors.Is(err, traversal.ErrAtFirstUnit),
		errors.Is(err, traversal.ErrBackUnsupported):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrTextNotFound),
		errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrTitleConflict),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrAlreadyInTeam),
		errors.Is(err, service.ErrNotInTeam),
		errors.Is(err, models.ErrSelectionComplete):
		return http.StatusConflict, err.Error()
	case errors.Is(err, traversal.ErrNoContent):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrSettlementNotPersisted):
		return http.StatusServiceUnavailable, ErrPointsNotSaved
	}
	return http.StatusInternalServerError, ErrInternalServerError
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
