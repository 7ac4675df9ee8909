package http

import (
	"net/http"
	"time"

	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// LivezHandler answers 200 whenever the process is running.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, dirapi.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
