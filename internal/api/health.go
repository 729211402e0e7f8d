package api

import (
	"net/http"

	"github.com/examgen/examgen-api/internal/api/shared"
)

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
