package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/garnizeh/bidwright/internal/bidgen"
	"github.com/garnizeh/bidwright/pkg/repository"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, messageResponse{Message: msg}, status)
}

// apiError is an error that already knows its HTTP status.
type apiError struct {
	status int
	msg    string
	err    error
}

func (e *apiError) Error() string { return e.msg }
func (e *apiError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func missingField(name string) error {
	return badRequest("Missing required field: %s", name)
}

// internalError is an upstream or persistence failure: a generic prefix plus
// the underlying detail.
func internalError(prefix string, err error) error {
	return &apiError{status: http.StatusInternalServerError, msg: prefix + ": " + err.Error(), err: err}
}

// writeFailure maps err onto the error taxonomy and writes it.
func writeFailure(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, msg := http.StatusInternalServerError, "Internal Server Error"

	var ae *apiError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &ae):
		status, msg = ae.status, ae.msg
	case errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "Bid not found"
	case errors.Is(err, bidgen.ErrDocument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.As(err, &tooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "Request body too large"
	}

	attrs := []any{
		slog.String("action", action),
		slog.Int("status", status),
		slog.String("request_id", requestID(r.Context())),
		slog.Any("err", err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("action failed", attrs...)
	} else {
		logger.Info("action rejected", attrs...)
	}

	writeError(w, status, msg)
}
