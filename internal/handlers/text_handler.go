package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"verselearn/internal/service"
)

// TextHandler handles the text picker and text submission
type TextHandler struct {
	textService *service.TextService
	defaultLang string
	logger      *zap.Logger
}

// NewTextHandler creates a new text handler
func NewTextHandler(textService *service.TextService, defaultLang string, logger *zap.Logger) *TextHandler {
	return &TextHandler{textService: textService, defaultLang: defaultLang, logger: logger}
}

func (h *TextHandler) language(r *http.Request) string {
	if lang := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("lang"))); lang != "" {
		return lang
	}
	return h.defaultLang
}

// List returns the private and public texts of one language
func (h *TextHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	summaries, err := h.textService.ListTexts(r.Context(), user.Username, h.language(r))
	if err != nil {
		respondWithServiceError(h.logger, w, "Error listing texts", err)
		return
	}

	views := make([]TextView, len(summaries))
	for i, s := range summaries {
		views[i] = newTextView(s)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"texts": views})
}

type addTextRequest struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Public   bool   `json:"public"`
}

// Add stores a new private or public text
func (h *TextHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(h.logger, w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	lang := strings.ToUpper(strings.TrimSpace(req.Language))
	if lang == "" {
		lang = h.defaultLang
	}

	user := currentUser(r)
	if err := h.textService.AddText(r.Context(), user.Username, lang, req.Title, req.Text, req.Public); err != nil {
		respondWithServiceError(h.logger, w, "Error adding text", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"title": strings.TrimSpace(req.Title), "language": lang})
}

// Delete removes one of the user's private texts
func (h *TextHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	title := r.URL.Query().Get("title")
	if err := h.textService.DeletePrivate(r.Context(), user.Username, h.language(r), title); err != nil {
		respondWithServiceError(h.logger, w, "Error deleting text", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
