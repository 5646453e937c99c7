package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is used when we want a specific error message and StatusCode.
// Handlers return the sentinel values below, optionally wrapped with WithCause
// so the caller sees the underlying reason next to the generic message.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

// Is matches copies produced by WithCause against their sentinel
func (r *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	return t.StatusCode == r.StatusCode && errors.Is(r.Err, t.Err)
}

// Message is the text returned to the caller
func (r *RequestError) Message() string {
	if r.Err == nil {
		return http.StatusText(r.StatusCode)
	}
	return r.Err.Error()
}

// WithCause returns a copy of r whose message includes cause. errors.Is still
// matches the original sentinel.
func (r *RequestError) WithCause(cause error) *RequestError {
	if cause == nil {
		return r
	}
	return &RequestError{
		StatusCode: r.StatusCode,
		Err:        fmt.Errorf("%w: %w", r.Err, cause),
	}
}

var (
	ErrConfiguration = &RequestError{Err: errors.New("server is not configured correctly"), StatusCode: 500}

	ErrMissingAuth     = &RequestError{Err: errors.New("unauthorized: missing or invalid token"), StatusCode: 401}
	ErrInvalidFormat   = &RequestError{Err: errors.New("unauthorized: missing or invalid token"), StatusCode: 401}
	ErrUnauthenticated = &RequestError{Err: errors.New("unauthorized: invalid token"), StatusCode: 401}

	ErrInvalidRequest = &RequestError{Err: errors.New("invalid request: 'history' is required"), StatusCode: 400}

	ErrQuotaExceeded = &RequestError{Err: errors.New("you have reached your daily limit of questions"), StatusCode: 429}

	ErrStore = &RequestError{Err: errors.New("database error"), StatusCode: 500}

	ErrUpstreamUnavailable = &RequestError{Err: errors.New("AI service connection error"), StatusCode: 502}
	ErrUpstreamProtocol    = &RequestError{Err: errors.New("invalid response from AI service"), StatusCode: 500}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}
)

// AsRequestError maps any error onto a RequestError, defaulting to a 500
func AsRequestError(err error) *RequestError {
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr
	}
	return ErrInternalServerError.WithCause(err)
}
