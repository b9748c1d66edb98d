package handlers

import (
	"net/http"

	"github.com/cloo-solutions/folio/internal/api"
	"github.com/cloo-solutions/folio/internal/service"
)

type CorpusStatus interface {
	Stats() (service.CorpusStats, error)
}

type StatusHandler struct {
	corpus CorpusStatus
}

func NewStatusHandler(corpus CorpusStatus) *StatusHandler {
	return &StatusHandler{corpus: corpus}
}

// Health reports that the process is up.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports the published corpus, or 503 until one is built.
func (h *StatusHandler) Ready(w http.ResponseWriter, r *http.Request) {
	stats, err := h.corpus.Stats()
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}
