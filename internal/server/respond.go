package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON sends v with status; encoding or write failures can only be logged once the header is out
func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response", "status", status, "error", err)
	}
}

// StatusFor maps a repository error to an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidEntity), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStopped), errors.Is(err, models.ErrChannelClosed), errors.Is(err, models.ErrCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *resource) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, h.logger, status, errorBody{Error: err.Error()})
}

// pathID parses the {id} path value
func pathID(r *http.Request) (models.ID, error) {
	id, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		return models.ID{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return id, nil
}

// decode reads a JSON body into v, rejecting unknown fields and trailing data
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", shared.ErrInvalidInput, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body must contain a single JSON value", shared.ErrInvalidInput)
	}
	return nil
}
