// Package tui is the interactive terminal front-end of the assetdesk client.
//
// It has two screens built with Bubble Tea:
//
//   - Picker lists servers found over mDNS and accepts a typed URL
//   - Login is the login form, driven by a loginform.Controller
//
// The controller runs in a tea.Cmd goroutine and mutates a shared, locked
// form state through the loginform element interfaces. Each mutation sends a
// redraw message to the program so the screen follows the controller
// (button label, spinner, error banner) without polling.
package tui
