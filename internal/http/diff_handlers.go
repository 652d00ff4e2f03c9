package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"schema_diff_planner/internal/diff"
	"schema_diff_planner/internal/render"
	"schema_diff_planner/internal/schema"
)

type DiffHandler struct {
	logger requestLogger
}

func NewDiffHandler(logger requestLogger) *DiffHandler {
	return &DiffHandler{logger: logger}
}

type diffRequest struct {
	Old     schema.Snapshot `json:"old"`
	New     schema.Snapshot `json:"new"`
	Reverse bool            `json:"reverse"`
}

type diffResponse struct {
	Operations []string `json:"operations"`
	Script     string   `json:"script"`
}

// Diff computes the operation list between two inline snapshots.
func (h *DiffHandler) Diff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidBody, "malformed diff request")
		return
	}
	if err := req.Old.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidSnapshot, err.Error())
		return
	}
	if err := req.New.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidSnapshot, err.Error())
		return
	}

	ops, err := diff.DiffSchema(req.New, req.Old, req.Reverse)
	if err != nil {
		writeDiffError(w, r, err)
		return
	}
	rendered, err := render.Operations(ops)
	if err != nil {
		writeDiffError(w, r, err)
		return
	}
	script, err := render.Script(ops)
	if err != nil {
		writeDiffError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diffResponse{Operations: rendered, Script: script})
}

// writeDiffError maps the engine's error taxonomy onto HTTP statuses.
func writeDiffError(w http.ResponseWriter, r *http.Request, err error) {
	var cfgErr *schema.ConfigurationError
	if errors.As(err, &cfgErr) {
		writeError(w, r, http.StatusUnprocessableEntity, codeConfiguration, cfgErr.Error())
		return
	}
	var cycleErr *diff.CyclicDependencyError
	if errors.As(err, &cycleErr) {
		writeError(w, r, http.StatusUnprocessableEntity, codeCyclicDependency, cycleErr.Error())
		return
	}
	writeError(w, r, http.StatusInternalServerError, codeDiffFailed, err.Error())
}
