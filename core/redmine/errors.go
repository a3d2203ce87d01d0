package redmine

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the Redmine REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("redmine API returned status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a Redmine 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
