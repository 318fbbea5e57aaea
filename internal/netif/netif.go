package netif

import (
	"errors"
	"fmt"
	"net"

	"github.com/lookaround/lookaround/internal/message"
)

// ServerPort is the well-known port servers bind and clients send to
const ServerPort = 9040

// MulticastGroup is the group every client and server joins
var MulticastGroup = net.IPv4(225, 100, 99, 98).To4()

// ErrNoInterface is returned when no local interface owns an address
var ErrNoInterface = errors.New("no interface owns address")

// LocalMAC returns the hardware address of the first up, non-loopback
// interface that has a 6-byte address. It returns nil, nil if there is none.
func LocalMAC() (*message.MAC, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := message.MACFromHardwareAddr(iface.HardwareAddr); mac != nil && *mac != (message.MAC{}) {
			return mac, nil
		}
	}
	return nil, nil
}

// LocalIPv4Addrs returns the IPv4 addresses of all up interfaces, loopback
// included and link-local excluded, without duplicates.
func LocalIPv4Addrs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ip := ipv4Of(addr)
			if ip == nil || ip.IsLinkLocalUnicast() {
				continue
			}
			ips = appendUnique(ips, ip)
		}
	}
	return ips, nil
}

// InterfaceByIP returns the interface that has ip assigned
func InterfaceByIP(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if local := ipv4Of(addr); local != nil && local.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoInterface, ip)
}

// ParseIPv4 parses a dotted-quad bind address
func ParseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return ip.To4(), nil
}

// ParseIPv4List parses every address, failing on the first bad one
func ParseIPv4List(addrs []string) ([]net.IP, error) {
	ips := make([]net.IP, 0, len(addrs))
	for _, s := range addrs {
		ip, err := ParseIPv4(s)
		if err != nil {
			return nil, err
		}
		ips = append(ips, ip)
	}
	return ips, nil
}

func ipv4Of(addr net.Addr) net.IP {
	var ip net.IP
	switch v := addr.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	case *net.UDPAddr:
		ip = v.IP
	default:
		return nil
	}
	return ip.To4()
}

func appendUnique(ips []net.IP, ip net.IP) []net.IP {
	for _, existing := range ips {
		if existing.Equal(ip) {
			return ips
		}
	}
	return append(ips, ip)
}
