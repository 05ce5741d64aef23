package handlers

import (
	"net/http"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, nil, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, r, nil, http.StatusOK, map[string]string{"status": "ok"})
}
