// Package loginform implements the login form controller.
//
// A Controller owns no UI. It is handed the form's element handles
// (two text fields, the submit button, a loading indicator and an error
// banner) and drives them through one login attempt:
//
//	ctrl, err := loginform.New(loginform.Config{
//	    Elements:  elems,
//	    Navigator: nav,
//	    Tokens:    &loginform.MetaTokenSource{Client: client, PageURL: base + urls.Login},
//	    Client:    client,
//	    Options:   loginform.Options{BaseURL: base},
//	})
//	out := ctrl.Submit(ctx)
//
// Empty fields (after trimming) are marked invalid and nothing is sent.
// Otherwise the credentials are POSTed form-encoded to /login with the page's
// CSRF token in X-CSRF-Token. A 2xx answer navigates to /assets. Anything else
// shows the response body (or a fallback) in the banner, and a transport
// failure shows a generic network message; either banner hides itself after
// five seconds. The submit button and loading indicator are restored on every
// path.
//
// Only one attempt runs at a time; Submit returns ErrSubmitInFlight while
// the button is disabled.
package loginform
