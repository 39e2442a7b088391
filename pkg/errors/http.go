package errors

import (
	"errors"
	"net/http"
)

// HTTPError represents an HTTP error response body.
type HTTPError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for an error.
// It maps error codes to appropriate HTTP status codes.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return HTTPStatus(customErr.Code())
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNoStorageBackend):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}

// ToHTTPError converts any error into an HTTPError suitable for a JSON
// response body.
func ToHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return &HTTPError{
			Status:  StatusCode(err),
			Code:    customErr.Code(),
			Message: customErr.Message(),
		}
	}

	return &HTTPError{
		Status:  StatusCode(err),
		Code:    CodeOf(err),
		Message: err.Error(),
	}
}
