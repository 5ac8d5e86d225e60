package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"weekly-quiz-service/internal/domain"
)

type errorPayload struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.Kind(err)
	if kind == "" {
		kind = "internal"
	}
	writeJSON(w, statusFor(err), errorPayload{
		Kind:      kind,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, errorPayload{
		Kind:      "validation",
		Message:   msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch domain.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "conflict", "already_completed":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	case "storage":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
