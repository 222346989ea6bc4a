package discovery

import (
	"fmt"
	"sort"

	"github.com/grandcat/zeroconf"
)

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers name as an assetdesk server on port. meta becomes the
// TXT record set, written in key order.
func Advertise(name string, port int, meta map[string]string) (*Advertisement, error) {
	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txtRecords(meta), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement. Safe to call more than once.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}

func txtRecords(meta map[string]string) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]string, 0, len(keys))
	for _, k := range keys {
		records = append(records, k+"="+meta[k])
	}
	return records
}
