package httpapi

import (
	"errors"
	"net/http"

	"github.com/cardops/cardtrack/internal/errs"
)

// Error names exposed in the response envelope. Clients branch on these, so
// they are part of the API contract.
const (
	errValidation    = "ValidationError"
	errNotFound      = "NotFoundError"
	errAlreadyExists = "AlreadyExistsError"
	errUnauthorized  = "UnauthorizedError"
	errStorage       = "StorageError"
	errInternal      = "InternalError"
)

// apiResponse is the uniform envelope for every endpoint.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(w http.ResponseWriter, status int, msg string, data any) {
	toJSON(w, status, apiResponse{Success: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, name, msg string) {
	toJSON(w, status, apiResponse{Success: false, Error: name, Message: msg})
}

// failErr maps a service/store error onto the HTTP status and error name of
// the failure taxonomy. Messages from the service layer pass through; raw
// storage errors are summarized so internals never leak to the caller.
func failErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalid):
		fail(w, http.StatusBadRequest, errValidation, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		fail(w, http.StatusNotFound, errNotFound, "Card not found")
	case errors.Is(err, errs.ErrConflict):
		// Duplicate creation is a client error on this API.
		fail(w, http.StatusBadRequest, errAlreadyExists, "Card already exists")
	case errors.Is(err, errs.ErrUnauthorized):
		fail(w, http.StatusUnauthorized, errUnauthorized, "Invalid or missing API key")
	case errors.Is(err, errs.ErrStorage):
		fail(w, http.StatusInternalServerError, errStorage, "Storage failure")
	default:
		fail(w, http.StatusInternalServerError, errInternal, "Internal server error")
	}
}
