package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/service"
)

// StudyHandler exposes the learning loop
type StudyHandler struct {
	studyService *service.StudyService
	textService  *service.TextService
	defaultLang  string
	logger       *zap.Logger
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(studyService *service.StudyService, textService *service.TextService, defaultLang string, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		textService:  textService,
		defaultLang:  defaultLang,
		logger:       logger,
	}
}

type studyRequest struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Public   bool   `json:"public"`
	Index    *int   `json:"index"`
	Mode     string `json:"mode"`
}

func (h *StudyHandler) studyContext(r *http.Request, lang, title string) service.StudyContext {
	user := currentUser(r)
	lang = strings.ToUpper(strings.TrimSpace(lang))
	if lang == "" {
		lang = h.defaultLang
	}
	return service.StudyContext{
		UserID:   user.ID,
		Username: user.Username,
		Language: lang,
		Title:    title,
	}
}

func (h *StudyHandler) decode(w http.ResponseWriter, r *http.Request) (*studyRequest, service.StudyContext, bool) {
	var req studyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return nil, service.StudyContext{}, false
	}
	if strings.TrimSpace(req.Title) == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required", Field: "title"})
		return nil, service.StudyContext{}, false
	}
	return &req, h.studyContext(r, req.Language, req.Title), true
}

func (h *StudyHandler) respondTurn(w http.ResponseWriter, turn *service.Turn, err error, logMsg string) {
	if err != nil {
		respondWithServiceError(h.logger, w, logMsg, err)
		return
	}
	respondJSON(w, http.StatusOK, newTurnView(turn))
}

// Select picks a text to study, copying public texts on first use
func (h *StudyHandler) Select(w http.ResponseWriter, r *http.Request) {
	req, sc, ok := h.decode(w, r)
	if !ok {
		return
	}
	if _, err := h.textService.Select(r.Context(), sc.Username, sc.Language, sc.Title, req.Public); err != nil {
		respondWithServiceError(h.logger, w, "Error selecting text", err)
		return
	}
	h.studyService.Abandon(sc.UserID)

	turn, err := h.studyService.Current(r.Context(), sc)
	h.respondTurn(w, turn, err, "Error loading study turn")
}

// Current returns the unit to study
func (h *StudyHandler) Current(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("title")) == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required", Field: "title"})
		return
	}
	turn, err := h.studyService.Current(r.Context(), h.studyContext(r, q.Get("lang"), q.Get("title")))
	h.respondTurn(w, turn, err, "Error loading study turn")
}

// Choose selects one fragment
func (h *StudyHandler) Choose(w http.ResponseWriter, r *http.Request) {
	req, sc, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Index == nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "index is required", Field: "index"})
		return
	}
	turn, err := h.studyService.Choose(r.Context(), sc, *req.Index)
	h.respondTurn(w, turn, err, "Error choosing fragment")
}

// Undo removes the last chosen fragment
func (h *StudyHandler) Undo(w http.ResponseWriter, r *http.Request) {
	_, sc, ok := h.decode(w, r)
	if !ok {
		return
	}
	turn, err := h.studyService.Undo(r.Context(), sc)
	h.respondTurn(w, turn, err, "Error undoing selection")
}

// Next skips to the next unit
func (h *StudyHandler) Next(w http.ResponseWriter, r *http.Request) {
	_, sc, ok := h.decode(w, r)
	if !ok {
		return
	}
	turn, err := h.studyService.Next(r.Context(), sc)
	h.respondTurn(w, turn, err, "Error skipping unit")
}

// Previous goes back one unit
func (h *StudyHandler) Previous(w http.ResponseWriter, r *http.Request) {
	_, sc, ok := h.decode(w, r)
	if !ok {
		return
	}
	turn, err := h.studyService.Previous(r.Context(), sc)
	h.respondTurn(w, turn, err, "Error going back")
}

// Mode switches between linear and random traversal
func (h *StudyHandler) Mode(w http.ResponseWriter, r *http.Request) {
	req, sc, ok := h.decode(w, r)
	if !ok {
		return
	}
	mode, valid := models.ParseMode(req.Mode)
	if !valid {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "mode must be linear or random", Field: "mode"})
		return
	}
	turn, err := h.studyService.SwitchMode(r.Context(), sc, mode)
	h.respondTurn(w, turn, err, "Error switching mode")
}
