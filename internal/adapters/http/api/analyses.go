package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/pose"
)

// analysisRequest is the body of POST /analyses.
type analysisRequest struct {
	AnalysisID string             `json:"analysis_id"`
	PlayerID   string             `json:"player_id"`
	Frames     []pose.RawFrame    `json:"frames"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (a analysisRequest) validate() error {
	switch {
	case strings.TrimSpace(a.PlayerID) == "":
		return errors.New("missing player_id")
	case len(a.Frames) == 0:
		return errors.New("missing frames")
	}
	return nil
}

type ackResponse struct {
	Status     string `json:"status"`
	AnalysisID string `json:"analysis_id"`
	Duplicate  bool   `json:"duplicate"`
}

// AnalysesHandler handles swing submissions and result lookups.
type AnalysesHandler struct {
	deps AnalysisDependencies
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps AnalysisDependencies) *AnalysesHandler {
	return &AnalysesHandler{deps: deps}
}

// HandlePostAnalysis handles POST /analyses.
func (h *AnalysesHandler) HandlePostAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req analysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", Wrap(op, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.Submit(r.Context(), model.Submission{
		AnalysisID: strings.TrimSpace(req.AnalysisID),
		PlayerID:   strings.TrimSpace(req.PlayerID),
		Sequence:   pose.BuildSequence(req.Frames),
		Overrides:  req.Metrics,
	})
	if err != nil {
		writeClassified(w, Wrap(op, err))
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", AnalysisID: receipt.AnalysisID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", AnalysisID: receipt.AnalysisID})
}

// HandleGetAnalysis handles GET /analyses/{id}.
func (h *AnalysesHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/analyses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	a, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeClassified(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
