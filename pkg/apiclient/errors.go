package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for an unusable Config
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrNetwork is returned when the server could not be reached or the
	// request timed out
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for a 401 on a request that carried a token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned when login is rejected
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInsufficientStock is returned when a requested quantity exceeds stock
	ErrInsufficientStock = errors.New("quantity exceeds available stock")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrServer     = errors.New("server error")
)

// Error codes returned by the storefront API in the "error" field.
const (
	CodeInsufficientStock  = "CART_INSUFFICIENT_STOCK"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
)

// APIError carries the decoded error body of a non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d %s", e.Status, e.Code)
}

// Message returns the server-provided message for err, or "" when err did
// not come from a server response.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsUnauthorized reports whether err ends the current session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
