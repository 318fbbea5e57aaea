package netif

import (
	"errors"
	"fmt"
	"net"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/lookaround/lookaround/internal/logging"
)

// ListenGroup opens a listener on group:port that receives the group's
// traffic arriving on the interface owning ifaceIP. The socket is bound to
// the wildcard address with address reuse, so one listener per interface can
// share the port.
func ListenGroup(ifaceIP, group net.IP, port int) (*GroupConn, error) {
	iface, err := InterfaceByIP(ifaceIP)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenMulticastUDP("udp4", iface, &net.UDPAddr{IP: group, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s:%d via %s: %w", group, port, iface.Name, err)
	}

	gc := newGroupConn(conn, iface.Index)

	// Lets a client on the same host hear this listener's replies and vice versa
	if err := gc.pc.SetMulticastLoopback(true); err != nil {
		logging.LogInterfaceEvent("multicast_loopback_failed", ifaceIP, err)
	}
	if !gc.filtering {
		logging.LogInterfaceEvent("arrival_filter_unavailable", ifaceIP, errors.New("interface control messages not supported"))
	}
	return gc, nil
}

// GroupConn is a listener socket bound to one interface. Sockets sharing the
// group port can be handed datagrams that arrived on other interfaces (Linux
// delivers group traffic to every member socket); ReadFrom drops those so
// each interface's listener answers only its own traffic.
type GroupConn struct {
	*net.UDPConn
	pc        *ipv4.PacketConn
	ifIndex   int
	filtering bool
}

func newGroupConn(conn *net.UDPConn, ifIndex int) *GroupConn {
	c := &GroupConn{UDPConn: conn, pc: ipv4.NewPacketConn(conn), ifIndex: ifIndex}
	c.filtering = c.pc.SetControlMessage(ipv4.FlagInterface, true) == nil
	return c
}

// ReadFrom returns the next datagram that arrived on the conn's interface
func (c *GroupConn) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		n, cm, from, err := c.pc.ReadFrom(b)
		if err != nil {
			return n, from, err
		}
		if c.accepts(cm) {
			return n, from, nil
		}
		logging.Debug("Dropping datagram from another interface",
			zap.Stringer("remote_addr", from),
			zap.Int("if_index", cm.IfIndex),
			zap.Int("want_if_index", c.ifIndex),
		)
	}
}

// accepts reports whether a datagram with control message cm belongs to this
// conn. Without interface information every datagram is accepted.
func (c *GroupConn) accepts(cm *ipv4.ControlMessage) bool {
	if cm == nil || cm.IfIndex == 0 || c.ifIndex == 0 {
		return true
	}
	return cm.IfIndex == c.ifIndex
}

// GroupSender sends datagrams to a multicast group out of every joined interface
type GroupSender struct {
	conn   net.PacketConn
	pc     *ipv4.PacketConn
	ifaces []*net.Interface
}

// JoinAll joins group on the interface owning each ip. Failures are
// collected and returned alongside a sender for the interfaces that did join,
// so partial coverage is still usable.
func JoinAll(conn net.PacketConn, group net.IP, ips []net.IP) (*GroupSender, error) {
	s := &GroupSender{conn: conn, pc: ipv4.NewPacketConn(conn)}
	if err := s.pc.SetMulticastLoopback(true); err != nil {
		logging.Debug("Failed to enable multicast loopback")
	}

	var errs error
	for _, ip := range ips {
		iface, err := InterfaceByIP(ip)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if s.joined(iface) {
			continue
		}
		if err := s.pc.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("join %s on %s: %w", group, iface.Name, err))
			continue
		}
		logging.LogInterfaceEvent("joined", ip, nil)
		s.ifaces = append(s.ifaces, iface)
	}
	return s, errs
}

// Interfaces returns the interfaces the group was joined on
func (s *GroupSender) Interfaces() []*net.Interface {
	return s.ifaces
}

// Send writes b to dst once per joined interface, or once via the default
// route when no interface joined. It returns the first error, after trying
// every interface.
func (s *GroupSender) Send(b []byte, dst net.Addr) error {
	if len(s.ifaces) == 0 {
		_, err := s.conn.WriteTo(b, dst)
		return err
	}

	var errs error
	for _, iface := range s.ifaces {
		if _, err := s.pc.WriteTo(b, &ipv4.ControlMessage{IfIndex: iface.Index}, dst); err != nil {
			// Control messages are not supported everywhere
			if err := s.pc.SetMulticastInterface(iface); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if _, err := s.pc.WriteTo(b, nil, dst); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("send via %s: %w", iface.Name, err))
			}
		}
	}
	return errs
}

func (s *GroupSender) joined(iface *net.Interface) bool {
	for _, existing := range s.ifaces {
		if existing.Index == iface.Index {
			return true
		}
	}
	return false
}
