package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// API error codes. Handlers pick from this set so clients can switch on
// stable identifiers instead of matching message text.
const (
	codeInvalidBody      = "invalid_body"
	codeInvalidSnapshot  = "invalid_snapshot"
	codeConfiguration    = "configuration_error"
	codeCyclicDependency = "cyclic_dependency"
	codeDiffFailed       = "diff_failed"
	codeUnauthorized     = "unauthorized"
	codeSessionError     = "session_error"
	codeReflectionFailed = "reflection_failed"
	codePlanExists       = "plan_exists"
	codeInvalidPlanName  = "invalid_plan_name"
	codeStoreFailed      = "store_failed"
	codeListFailed       = "list_failed"
	codeNotFound         = "not_found"
	codeInvalidTarget    = "invalid_target"
	codeApplyFailed      = "apply_failed"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError emits the planner's error envelope, echoing the request id
// so operators can match API failures against the server log.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body := errorBody{RequestID: middleware.GetReqID(r.Context())}
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}
