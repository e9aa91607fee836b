package github

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTokenRequired    = errors.New("GitHub token required")
	ErrHeadRequired     = errors.New("Head branch required")
	ErrPathRequired     = errors.New("File path required")
	ErrNotAFile         = errors.New("path is not a file")
	ErrUndecodable      = errors.New("file content is not valid UTF-8 text")
	ErrResponseTooLarge = errors.New("response body too large")
)

// APIError is a non-2xx answer from the GitHub API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github %s: status %d: %s", e.Op, e.Status, e.Message)
}

// IsUnauthorized reports a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports a missing or inaccessible repository or path.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
