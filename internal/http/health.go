package httpserver

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
