package urls

import "strings"

// Endpoint paths shared by the login client and the asset server.
// The login form contract depends on these staying fixed.
const (
	// Login serves the login page (GET) and checks credentials (POST).
	Login = "/login"

	// Assets is where the client navigates after a successful login.
	Assets = "/assets"

	// AssetsList is the JSON listing endpoint kept for older front-ends.
	AssetsList = "/assets/list"

	// AssetEntry reads (GET), creates or edits (POST) and deletes (DELETE)
	// a single asset.
	AssetEntry = "/asset-entry"

	// LoginScript is the browser controller for the login page.
	LoginScript = "/static/login.js"
)

// Documentation URLs for guides and troubleshooting.

// GettingStarted is the quick start guide for new users.
const GettingStarted = "https://muurk.github.io/assetdesk/getting-started/"

// TroubleshootingLogin covers rejected credentials, CSRF mismatches and
// unreachable servers.
const TroubleshootingLogin = "https://muurk.github.io/assetdesk/troubleshooting/login/"

// Join appends path to base, keeping any path prefix base already has:
// Join("http://h/desk/", "/login") is "http://h/desk/login".
func Join(base, path string) string {
	if path == "" {
		return strings.TrimRight(base, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
