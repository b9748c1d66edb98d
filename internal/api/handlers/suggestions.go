package handlers

import (
	"net/http"

	"github.com/cloo-solutions/folio/internal/api"
)

type Suggester interface {
	Suggest() []string
}

type SuggestionsHandler struct {
	suggester Suggester
}

func NewSuggestionsHandler(suggester Suggester) *SuggestionsHandler {
	return &SuggestionsHandler{suggester: suggester}
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// List returns starter questions for the chat widget.
func (h *SuggestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	suggestions := h.suggester.Suggest()
	if suggestions == nil {
		suggestions = []string{}
	}
	api.Success(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}
