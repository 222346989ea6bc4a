// Package urls provides centralized constants for endpoint paths and
// documentation URLs used throughout the application.
//
// Usage:
//
//	import "github.com/muurk/assetdesk/internal/urls"
//
//	target := urls.Join(baseURL, urls.Login)
package urls
