package config

import (
	"sort"
	"strings"
	"time"
)

// Registry represents the entire user configuration file.
// It stores known assetdesk servers and client preferences.
type Registry struct {
	Version       int                `yaml:"version"`
	DefaultServer string             `yaml:"default_server,omitempty"`
	Servers       map[string]*Server `yaml:"servers,omitempty"` // Keyed by profile name
	Preferences   *Preferences       `yaml:"preferences,omitempty"`
}

// Server is a saved login profile.
// Passwords are NEVER stored; the client always prompts for them.
type Server struct {
	BaseURL      string    `yaml:"base_url"`
	Username     string    `yaml:"username,omitempty"`
	LoginPath    string    `yaml:"login_path,omitempty"`    // Empty means /login
	SuccessPath  string    `yaml:"success_path,omitempty"`  // Empty means /assets
	DiscoveredAs string    `yaml:"discovered_as,omitempty"` // mDNS instance name, if found by discovery
	LastLogin    time.Time `yaml:"last_login,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	Interactive     bool `yaml:"interactive"`      // Use the terminal UI when stdin is a terminal
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	ErrorDisplay    int  `yaml:"error_display"`    // Seconds a login error stays on screen
	RequestTimeout  int  `yaml:"request_timeout"`  // Login request timeout in seconds
}

func defaultPreferences() *Preferences {
	return &Preferences{
		Interactive:     true,
		DiscoverTimeout: 5,
		ErrorDisplay:    5,
		RequestTimeout:  30,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Servers:     make(map[string]*Server),
		Preferences: defaultPreferences(),
	}
}

// GetServer retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetServer(name string) *Server {
	return r.Servers[name]
}

// ResolveServer returns the named profile, or the default profile when name
// is empty. The returned name is the one actually used.
func (r *Registry) ResolveServer(name string) (string, *Server) {
	if name == "" {
		name = r.DefaultServer
	}
	if name == "" && len(r.Servers) == 1 {
		for only := range r.Servers {
			name = only
		}
	}
	return name, r.Servers[name]
}

// EnsureServer ensures a profile entry exists in the registry.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureServer(name string) *Server {
	if r.Servers == nil {
		r.Servers = make(map[string]*Server)
	}

	if server, exists := r.Servers[name]; exists {
		return server
	}

	server := &Server{}
	r.Servers[name] = server
	return server
}

// SetServer creates or updates a profile. The first profile saved becomes
// the default. An empty username keeps the stored one.
func (r *Registry) SetServer(name, baseURL, username string) *Server {
	server := r.EnsureServer(name)
	server.BaseURL = strings.TrimRight(baseURL, "/")
	if username != "" {
		server.Username = username
	}
	if r.DefaultServer == "" {
		r.DefaultServer = name
	}
	return server
}

// TouchLogin records a successful login for a profile.
func (r *Registry) TouchLogin(name, username string, at time.Time) {
	server := r.EnsureServer(name)
	server.LastLogin = at
	if username != "" {
		server.Username = username
	}
}

// RemoveServer deletes a profile, clearing the default if it pointed there.
func (r *Registry) RemoveServer(name string) bool {
	if _, ok := r.Servers[name]; !ok {
		return false
	}
	delete(r.Servers, name)
	if r.DefaultServer == name {
		r.DefaultServer = ""
	}
	return true
}

// Names returns the profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Servers))
	for name := range r.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DiscoverTimeout returns the discovery timeout preference.
func (r *Registry) DiscoverTimeout() time.Duration {
	return seconds(r.prefs().DiscoverTimeout, 5)
}

// ErrorDisplay returns how long a login error stays visible.
func (r *Registry) ErrorDisplay() time.Duration {
	return seconds(r.prefs().ErrorDisplay, 5)
}

// RequestTimeout returns the login request timeout preference.
func (r *Registry) RequestTimeout() time.Duration {
	return seconds(r.prefs().RequestTimeout, 30)
}

func (r *Registry) prefs() *Preferences {
	if r.Preferences == nil {
		return defaultPreferences()
	}
	return r.Preferences
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
