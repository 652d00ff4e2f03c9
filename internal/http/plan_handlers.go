package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schema_diff_planner/internal/apply"
	"schema_diff_planner/internal/auth"
	"schema_diff_planner/internal/db"
	"schema_diff_planner/internal/plan"
	"schema_diff_planner/internal/schema"
	"schema_diff_planner/internal/sqlgen"
	"schema_diff_planner/internal/storage"
)

type PlanHandler struct {
	storageDir string
	runner     apply.Runner
	logger     requestLogger
}

func NewPlanHandler(storageDir string, runner apply.Runner, logger requestLogger) *PlanHandler {
	return &PlanHandler{storageDir: storageDir, runner: runner, logger: logger}
}

type dbTarget struct {
	Provider string `json:"provider"`
	DSN      string `json:"dsn"`
	Schema   string `json:"schema,omitempty"`
}

type planRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Desired     dbTarget `json:"desired"`
	Current     dbTarget `json:"current"`
}

type planResponse struct {
	Plan     storage.PlanRecord `json:"plan"`
	Script   string             `json:"script"`
	Rollback string             `json:"rollback,omitempty"`
}

// Create reflects the desired and current databases, diffs them and
// stores the resulting plan with its SQL translation for the current
// target's dialect.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidBody, "malformed plan request")
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, codeInvalidBody, "plan name is required")
		return
	}

	desired, err := fetchSnapshot(r.Context(), req.Desired)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, codeReflectionFailed, err.Error())
		return
	}
	current, err := fetchSnapshot(r.Context(), req.Current)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, codeReflectionFailed, err.Error())
		return
	}

	content, err := plan.BuildContent(desired, current, sqlgen.Dialect(req.Current.Provider))
	if err != nil {
		writeDiffError(w, r, err)
		return
	}

	record, err := storage.StorePlan(h.storageDir, req.Name, req.Current.Provider, content, req.Description)
	if err != nil {
		status, code := storeErrorStatus(err)
		writeError(w, r, status, code, err.Error())
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.logger.Info("plan created", "plan", record.Name, "plan_id", record.ID, "actor", user.Email)
	}
	writeJSON(w, http.StatusCreated, planResponse{Plan: record, Script: content.Forward, Rollback: content.Rollback})
}

// List returns stored plan manifests.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := storage.ListPlanRecords(h.storageDir)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, codeListFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": records})
}

// Get returns one plan with its script contents.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	record, content, err := storage.LoadPlan(h.storageDir, name)
	if err != nil {
		writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: record, Script: content.Forward, Rollback: content.Rollback})
}

type applyRequest struct {
	Target       dbTarget `json:"target"`
	AutoRollback bool     `json:"auto_rollback"`
}

// Apply runs a stored plan's SQL against the given target.
func (h *PlanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidBody, "malformed apply request")
		return
	}

	record, content, err := storage.LoadPlan(h.storageDir, name)
	if err != nil {
		writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
		return
	}

	adapter, err := db.Open(req.Target.Provider, req.Target.DSN)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidTarget, err.Error())
		return
	}
	defer adapter.Close()

	if err := h.runner.Apply(r.Context(), adapter, record, content, req.AutoRollback); err != nil {
		writeError(w, r, http.StatusBadGateway, codeApplyFailed, err.Error())
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.logger.Info("plan applied", "plan", record.Name, "plan_id", record.ID, "actor", user.Email)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "applied", "plan": record.Name})
}

// storeErrorStatus maps storage failures onto API statuses: duplicate
// names conflict, unsafe names are the caller's fault, anything else is
// server side.
func storeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrPlanExists):
		return http.StatusConflict, codePlanExists
	case errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest, codeInvalidPlanName
	default:
		return http.StatusInternalServerError, codeStoreFailed
	}
}

func fetchSnapshot(ctx context.Context, target dbTarget) (schema.Snapshot, error) {
	adapter, err := db.Open(target.Provider, target.DSN)
	if err != nil {
		return schema.Snapshot{}, err
	}
	defer adapter.Close()
	return adapter.FetchSnapshot(ctx, target.Schema)
}
