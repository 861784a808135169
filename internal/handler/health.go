package handler

import "net/http"

// HandleHealth is the liveness probe. No auth, no dependencies — if the
// process can serve this, it's up.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "ok", nil)
}
