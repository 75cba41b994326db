package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/spektr-org/sockenstudie/votes"
)

// APIError is the JSON error body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

func (e *APIError) withDetails(details any) *APIError {
	out := *e
	out.Details = details
	return &out
}

var (
	errInvalidParameter = newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value")
	errInvalidVoter     = newAPIError(http.StatusBadRequest, "INVALID_VOTER", "Voter or subject id is missing")
	errNotFound         = newAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	errUnknownSubject   = newAPIError(http.StatusNotFound, "UNKNOWN_SUBJECT", "No drawing with this id")
	errMethodNotAllowed = newAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	errLoadFailed       = newAPIError(http.StatusBadGateway, "LOAD_FAILED", "Survey data could not be loaded")
	errInternal         = newAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
)

// toAPIError maps boundary errors onto API errors.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, votes.ErrInvalidVoter):
		return errInvalidVoter
	default:
		return errInternal
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
		)
	}
	_ = render.Render(w, r, apiErr)
}
