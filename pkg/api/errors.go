package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/plantbuddy/plantbuddy/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeInvalidInitData = "invalid_init_data"
	ErrorCodeExpiredInitData = "expired_init_data"
	ErrorCodeInvalidToken    = "invalid_token"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeConflict        = "conflict"
	ErrorCodeServerError     = "server_error"
)

// Error is the wire error shape shared by the server and clients. Descriptions
// are deliberately generic for auth failures: they never echo payloads or say
// which part of a signature check failed beyond its broad category.
type Error struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

var (
	ErrInvalidRequest = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidJSONBody = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "request body must be valid JSON",
	}

	ErrMissingInitData = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidInitData,
		Description: "init data is missing",
	}

	ErrInvalidInitData = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidInitData,
		Description: "init data verification failed",
	}

	ErrExpiredInitData = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeExpiredInitData,
		Description: "init data is too old",
	}

	ErrInvalidSessionToken = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "session token is invalid or expired",
	}

	ErrUnauthorized = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "authentication required",
	}

	ErrPlantNotFound = &Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "plant not found",
	}

	ErrPlantNameTaken = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "a plant with that name already exists",
	}

	ErrInvalidPlantName = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "plant name must not be blank",
	}

	ErrInvalidInterval = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "watering interval must be a positive number of days",
	}

	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an internal error occurred",
	}
)
