// Package server implements the assetdesk HTTP server.
//
// The server renders the login page that carries the login form contract,
// checks credentials posted to it, and serves the asset register.
//
// # Routes
//
//	GET    /              redirect to /login
//	GET    /login         login page (form ids, optional csrf-token meta tag)
//	POST   /login         credential check: 200 "OK", 401 "Invalid credentials"
//	GET    /assets        asset list: HTML, or JSON with Accept: application/json
//	GET    /assets/list   asset list as JSON
//	POST   /assets        create, or edit with action=edit&id=N
//	DELETE /assets?id=N   delete
//
// /asset-entry accepts the same POST and DELETE requests as /assets.
//
// Error responses are plain text bodies written with http.Error; the login
// client displays them verbatim.
//
// # CSRF
//
// When csrf_token is configured it is rendered into
// <meta name="csrf-token"> and POST /login must echo it in X-CSRF-Token,
// otherwise the request is refused with 403 "Invalid CSRF token". The token
// is static configuration.
//
// # Usage Example
//
//	config, err := server.LoadConfig("/etc/assetdesk/server.yaml")
//	if err != nil {
//	    return err
//	}
//	srv, err := server.New(config, assets.NewMemoryStore())
//	if err != nil {
//	    return err
//	}
//	// Start blocks until SIGINT/SIGTERM or a serve error.
//	return srv.Start()
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server withdraws its mDNS advertisement, stops
// accepting connections and waits up to 10 seconds for in-flight requests.
package server
