package viswiz

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey    = errors.New("missing API key value")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrFileNotFound     = errors.New("file not found")
	ErrNoImages         = errors.New("no image files found in image directory")
	ErrProjectNotFound  = errors.New("project not found")
)

// MissingParamError reports a required parameter that was not supplied.
// It is returned before any request is sent.
type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return ErrMissingParameter.Error() + ": " + e.Name
}

func (e *MissingParamError) Unwrap() error {
	return ErrMissingParameter
}

func missingParam(name string) error {
	return &MissingParamError{Name: name}
}

// APIError is returned for any non-2xx response. Body holds the raw
// response payload.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

// maxErrorBody caps how much of the response body is echoed in Error.
const maxErrorBody = 256

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	body := bytes.TrimSpace(e.Body)
	if len(body) == 0 {
		return msg
	}
	if len(body) > maxErrorBody {
		body = append(body[:maxErrorBody:maxErrorBody], "..."...)
	}
	return msg + ": " + string(body)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not
// an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
