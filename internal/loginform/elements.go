package loginform

import (
	"context"
	"net/http"
)

// DOM contract of the login page. The server renders these ids and the
// client inspects them.
const (
	FormID         = "login-form"
	UsernameID     = "username"
	PasswordID     = "password"
	ErrorMessageID = "error-message"
	LoadingID      = "loading"
	CSRFMetaName   = "csrf-token"
	CSRFHeader     = "X-CSRF-Token"

	// CSRFField carries the token in a plain form post, for browsers
	// that submit the form without the login script.
	CSRFField = "csrf_token"
)

// Field is an input whose value is read at submit time.
type Field interface {
	Value() string
	SetInvalid(invalid bool)
}

// Button is the form's submit control.
type Button interface {
	Label() string
	SetLabel(label string)
	SetDisabled(disabled bool)
}

// Indicator is the loading indicator shown while a request is in flight.
type Indicator interface {
	Show()
	Hide()
}

// Banner displays transient error text.
type Banner interface {
	Show(message string)
	Hide()
}

// Navigator moves the user to another page after a successful login.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the anti-forgery token echoed in the X-CSRF-Token
// header. An absent token is the empty string.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

// Token returns the fixed value.
func (t StaticToken) Token(context.Context) string { return string(t) }

// Elements groups the element handles the controller drives.
type Elements struct {
	Username Field
	Password Field
	Submit   Button
	Loading  Indicator
	Error    Banner
}

func (e Elements) missing() []string {
	var ids []string
	if e.Username == nil {
		ids = append(ids, UsernameID)
	}
	if e.Password == nil {
		ids = append(ids, PasswordID)
	}
	if e.Submit == nil {
		ids = append(ids, "submit")
	}
	if e.Loading == nil {
		ids = append(ids, LoadingID)
	}
	if e.Error == nil {
		ids = append(ids, ErrorMessageID)
	}
	return ids
}
