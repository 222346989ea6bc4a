// Package discovery finds assetdesk servers on the local network over mDNS
// and lets a server advertise itself.
//
// Servers register the "_assetdesk._tcp" service type with TXT records:
//
//	path=/login      login page path
//	version=1.2.0    server version
//	scheme=https     "https" when TLS is enabled, otherwise "http"
//
// # Usage Example
//
//	instances, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, inst := range instances {
//	    fmt.Println(inst.Name, inst.BaseURL()+inst.LoginPath())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
