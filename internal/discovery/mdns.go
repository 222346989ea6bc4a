package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type assetdesk servers advertise.
	ServiceType = "_assetdesk._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an advertisement carries no port.
	DefaultPort = 80
)

// TXT record keys published by the server.
const (
	TXTPath    = "path"
	TXTVersion = "version"
	TXTScheme  = "scheme"
)

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for advertisements
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for assetdesk servers until the timeout or ctx expires.
// Results are sorted by instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan []*Instance, 1)
	go func() {
		seen := make(map[string]*Instance)
		for entry := range entries {
			if inst := parseServiceEntry(entry, time.Now()); inst != nil {
				seen[inst.Name] = inst
			}
		}
		found := make([]*Instance, 0, len(seen))
		for _, inst := range seen {
			found = append(found, inst)
		}
		sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
		done <- found
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once ctx is done.
	return <-done, nil
}

// Find waits for the named instance and returns as soon as it is seen.
func (s *Scanner) Find(ctx context.Context, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Instance, 1)
	go func() {
		for entry := range entries {
			inst := parseServiceEntry(entry, time.Now())
			if inst != nil && inst.Name == name {
				found <- inst
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case inst := <-found:
		return inst, nil
	case <-ctx.Done():
		select {
		case inst := <-found:
			return inst, nil
		default:
		}
		return nil, fmt.Errorf("server %q not found within %s", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil if the entry has no name or no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry, now time.Time) *Instance {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Instance{
		Name:         entry.Instance,
		Host:         strings.TrimSuffix(entry.HostName, "."),
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: now,
	}
}

// parseTXT splits "key=value" records. A bare key maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	return metadata
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan(ctx context.Context) ([]*Instance, error) {
	scanner := NewScanner()
	scanner.Timeout = 2 * time.Second
	return scanner.Scan(ctx)
}
