package assetclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/muurk/assetdesk/internal/loginform"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Body       string // plain-text error body, trimmed
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRetryable reports whether a read that failed with err is worth
// repeating: timeouts, refused connections and server-side failures.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	var reqErr *loginform.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Type {
		case loginform.ErrTypeTimeout, loginform.ErrTypeConnectionRefused:
			return true
		}
	}
	return false
}
