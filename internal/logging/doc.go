// Package logging provides structured logging for assetdesk.
//
// This package wraps a package-global zap logger with convenience functions
// for the patterns used by both binaries: the login client and the asset
// server.
//
// # Log Levels
//
//   - Debug: request bodies sizes, token lookups, cache reloads
//   - Info: served requests, accepted logins, server lifecycle
//   - Warn: rejected logins, login transport failures
//   - Error: startup failures, store errors
//
// # Silent by Default
//
// The client renders its own terminal UI, so logging stays silent unless
// ASSETDESK_LOG_LEVEL (or --log-level) is set:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in zap's console encoding.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and
// SetLogger are meant to be called once during startup or in tests.
package logging
