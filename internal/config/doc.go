// Package config manages the assetdesk client configuration file.
//
// The file holds saved server profiles (base URL, username, last login) and
// client preferences. It follows OS-specific conventions for its location:
//   - Linux: $XDG_CONFIG_HOME/assetdesk/config.yaml or $HOME/.config/assetdesk/config.yaml
//   - macOS: $HOME/.config/assetdesk/config.yaml
//   - Windows: %LOCALAPPDATA%\assetdesk\config.yaml
//
// ASSETDESK_CONFIG overrides the location.
//
// # Security
//
// Passwords are NEVER written to the file. They are always prompted.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	registry.SetServer("office", "https://assets.example.com", "alice")
//	if err := registry.Save(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for initialization. File writes are
// serialized by a mutex and are atomic (write then rename).
package config
