// Package api renders the JSON envelope shared by every route: successes
// as {success:true, ...} and failures as {success:false, message, error?}.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rmachado/storefront/internal/domain"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// OK writes a success envelope. The payload keys are merged next to
// "success": true.
func OK(w http.ResponseWriter, logger *slog.Logger, status int, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	body["success"] = true
	for k, v := range payload {
		body[k] = v
	}
	WriteJSON(w, logger, status, body)
}

// Fail maps err onto the HTTP status for its domain error kind and writes
// the failure envelope. Unrecognised errors become a generic 500; their
// detail is only exposed when dev is set.
func Fail(w http.ResponseWriter, logger *slog.Logger, dev bool, err error) {
	status := StatusOf(err)

	body := map[string]any{"success": false}
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
		body["message"] = "internal server error"
		if dev {
			body["error"] = err.Error()
		}
	} else {
		body["message"] = err.Error()
	}

	WriteJSON(w, logger, status, body)
}

// StatusOf resolves the HTTP status for a domain error kind.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
