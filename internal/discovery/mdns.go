package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/lookaround/lookaround/internal/message"
)

const (
	// ServiceType is the DNS-SD service type lookaround servers advertise
	ServiceType = "_lookaround._udp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for an mDNS browse
	DefaultScanTimeout = 3 * time.Second

	// ProtocolVersion is advertised in the "proto" TXT record
	ProtocolVersion = "1"
)

// TXT record keys
const (
	txtMAC      = "mac"
	txtNickname = "nickname"
	txtProto    = "proto"
)

// Announcement describes what a server advertises over mDNS
type Announcement struct {
	Nickname string
	MAC      *message.MAC
	Port     int
}

// Announcer is a running mDNS advertisement
type Announcer interface {
	Shutdown()
}

// Announce registers the server as a DNS-SD service until Shutdown is called
func Announce(a Announcement) (Announcer, error) {
	instance := a.Nickname
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to determine hostname: %w", err)
		}
		instance = host
	}

	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, a.Port, a.txtRecords(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return srv, nil
}

func (a Announcement) txtRecords() []string {
	txt := []string{txtProto + "=" + ProtocolVersion}
	if a.MAC != nil {
		txt = append(txt, txtMAC+"="+a.MAC.String())
	}
	if a.Nickname != "" {
		txt = append(txt, txtNickname+"="+a.Nickname)
	}
	return txt
}

// Scanner browses for lookaround servers over mDNS
type Scanner struct {
	// Timeout is the maximum time to wait for announcements
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForPeers browses until the timeout and returns every peer seen
func (s *Scanner) ScanForPeers(ctx context.Context) ([]*Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	var peers []*Peer

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if peer := parseServiceEntry(entry); peer != nil {
					peers = append(peers, peer)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-done
	return peers, nil
}

// parseServiceEntry converts a zeroconf service entry to a Peer.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Peer {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	peer := &Peer{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Nickname:     metadata[txtNickname],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
	if mac, err := message.ParseMAC(metadata[txtMAC]); err == nil {
		peer.MAC = mac.String()
	}
	return peer
}

// ScanForPeers is a convenience function to browse with a custom timeout
func ScanForPeers(ctx context.Context, timeout time.Duration) ([]*Peer, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForPeers(ctx)
}
