package discovery

import (
	"fmt"
	"time"
)

// Peer represents a lookaround server found through mDNS
type Peer struct {
	// Instance is the DNS-SD instance name (the server's nickname or hostname)
	Instance string

	// Hostname is the mDNS hostname (e.g., "desk.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 if the peer announced no IPv4 address
	IP string

	// Port is the discovery port the server listens on (typically 9040)
	Port int

	// MAC is the colon-hex MAC from the "mac" TXT record, empty if unknown
	MAC string

	// Nickname is the announced nickname from the "nickname" TXT record
	Nickname string

	// Metadata contains every TXT record as key/value pairs
	Metadata map[string]string

	// DiscoveredAt is when the peer was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the peer
func (p *Peer) String() string {
	mac := p.MAC
	if mac == "" {
		mac = "<Unknown>"
	}
	if p.Nickname == "" {
		return fmt.Sprintf("%s = %s", mac, p.IP)
	}
	return fmt.Sprintf("%s = %s `%s`", mac, p.IP, p.Nickname)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Peer) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
