package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance represents an assetdesk server found over mDNS
type Instance struct {
	// Name is the advertised instance name, e.g. "assetdesk on nas"
	Name string

	// Host is the advertised host name without the trailing dot
	Host string

	// IP is the address used to reach the server, IPv4 when available
	IP string

	// Port is the HTTP(S) port
	Port int

	// Metadata holds the TXT records (path, version, scheme)
	Metadata map[string]string

	// DiscoveredAt is when the advertisement was seen
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the instance
func (i *Instance) String() string {
	if v := i.GetMetadata(TXTVersion); v != "" {
		return fmt.Sprintf("%s (%s) at %s [%s]", i.Name, i.Host, i.BaseURL(), v)
	}
	return fmt.Sprintf("%s (%s) at %s", i.Name, i.Host, i.BaseURL())
}

// BaseURL returns the server root URL. The scheme TXT record selects
// https; anything else is plain http.
func (i *Instance) BaseURL() string {
	scheme := "http"
	if i.GetMetadata(TXTScheme) == "https" {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(i.IP, strconv.Itoa(i.Port))
}

// LoginPath returns the advertised login path, "/login" when absent.
func (i *Instance) LoginPath() string {
	if p := i.GetMetadata(TXTPath); p != "" {
		return p
	}
	return "/login"
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
