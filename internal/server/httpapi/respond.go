package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/techroad/techroad/internal/common"
)

const contentTypeJSON = "application/json; charset=utf-8"

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondError maps the service error taxonomy onto HTTP status codes. The
// Error message is already user-facing for 4xx kinds and generic for 5xx;
// server-side kinds are additionally logged with the request path.
func (h *Handler) respondError(r *http.Request, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch common.KindOf(err) {
	case common.KindValidation:
		status = http.StatusBadRequest
	case common.KindUnauthorized:
		status = http.StatusUnauthorized
	case common.KindNotFound:
		status = http.StatusNotFound
	case common.KindConflict:
		status = http.StatusConflict
	case common.KindUnavailable, common.KindInternal:
		status = http.StatusInternalServerError
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
