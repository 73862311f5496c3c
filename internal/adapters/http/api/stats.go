package api

import (
	"errors"
	"net/http"
)

// StatsProvider reports the swing service's runtime state: worker and queue
// sizing, queue depth and ranked players.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler backed by provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the service snapshot as JSON. Only GET is allowed.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("stats is read-only"))
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
