// Package ui provides terminal output components for the assetdesk CLI.
//
// Components are built with Lipgloss and follow a "render once" pattern:
// command headers, success and failure boxes, and the asset table. The
// interactive login screen lives in package tui.
//
// ConsoleForm is the non-interactive login form. It implements the
// loginform element handles on top of an io.Writer so the same controller
// drives both the terminal UI and plain line output (pipes, CI, --no-tui).
//
// # Logging Integration
//
// Logging is controlled via the ASSETDESK_LOG_LEVEL environment variable.
// When unset or empty, zap logging is silent so the curated output is
// displayed cleanly. Set it to "debug", "info", "warn", or "error" to enable
// log output.
package ui
