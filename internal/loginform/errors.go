package loginform

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrSubmitInFlight is returned when a submit arrives while the submit
// control is still disabled by an earlier attempt.
var ErrSubmitInFlight = errors.New("login already in progress")

// ErrorType represents the category of a login failure
type ErrorType int

const (
	// ErrTypeValidation indicates an empty required field (no request was sent)
	ErrTypeValidation ErrorType = iota
	// ErrTypeHTTP indicates the server answered with a non-2xx status
	ErrTypeHTTP
	// ErrTypeNetwork indicates the request never completed
	ErrTypeNetwork
	// ErrTypeTimeout indicates the request timed out
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the server refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the server host could not be resolved
	ErrTypeDNS
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ValidationError lists the required fields that were empty after trimming.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required field(s) empty: " + strings.Join(e.Fields, ", ")
}

// RequestError is a failed login request: either a non-2xx response or a
// transport failure.
type RequestError struct {
	Type       ErrorType
	Message    string // text shown in the error banner
	StatusCode int    // HTTP status (0 for transport failures)
	Body       string // trimmed response body, if any
	Err        error  // transport cause, if any
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %d: %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the transport cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates an error for a non-2xx login response.
func NewHTTPError(statusCode int, body, message string) *RequestError {
	return &RequestError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewNetworkError creates a transport error, classified by cause.
func NewNetworkError(message string, err error) *RequestError {
	return &RequestError{
		Type:    classifyTransport(err),
		Message: message,
		Err:     err,
	}
}

func classifyTransport(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrTypeTimeout
	}
	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTypeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrTypeDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrTypeConnectionRefused
	}

	return ErrTypeNetwork
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsHTTPError reports whether err is a non-2xx login response.
func IsHTTPError(err error) bool {
	var r *RequestError
	return errors.As(err, &r) && r.Type == ErrTypeHTTP
}

// IsNetworkError reports whether err is a transport failure of any kind.
func IsNetworkError(err error) bool {
	var r *RequestError
	if !errors.As(err, &r) {
		return false
	}
	switch r.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// ShortMessage returns a one-line description suitable for a status line.
func ShortMessage(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return "Please fill in: " + strings.Join(v.Fields, ", ")
	}
	var r *RequestError
	if !errors.As(err, &r) {
		return err.Error()
	}
	switch r.Type {
	case ErrTypeTimeout:
		return "Server not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Server refused connection - is assetdesk-server running?"
	case ErrTypeDNS:
		return "Cannot resolve server hostname"
	case ErrTypeHTTP:
		return fmt.Sprintf("%s (HTTP %d)", r.Message, r.StatusCode)
	default:
		return r.Message
	}
}

// TroubleshootingTips returns advice lines for a failed login.
func TroubleshootingTips(err error) []string {
	var r *RequestError
	if !errors.As(err, &r) {
		return nil
	}

	switch r.Type {
	case ErrTypeHTTP:
		switch {
		case r.StatusCode == 401:
			return []string{"Check the username and password", "Passwords are case sensitive"}
		case r.StatusCode == 403:
			return []string{"The server rejected the CSRF token", "Reload the login page and try again"}
		case r.StatusCode >= 500:
			return []string{"The server failed to process the login", "Check the assetdesk-server logs"}
		}
		return []string{fmt.Sprintf("The server answered HTTP %d", r.StatusCode)}
	case ErrTypeTimeout:
		return []string{"The server did not answer in time", "Check the server is reachable and not overloaded"}
	case ErrTypeConnectionRefused:
		return []string{"Nothing is listening at the server address", "Start assetdesk-server or check --server"}
	case ErrTypeDNS:
		return []string{"Use an IP address instead of a hostname", "Try 'assetdesk discover' to find servers on the LAN"}
	default:
		return []string{"Check your network connection", "Verify the server URL"}
	}
}
