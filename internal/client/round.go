package client

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/lookaround/lookaround/internal/message"
	"github.com/lookaround/lookaround/internal/nickname"
)

// PeerRecord is what one sender address has told us during a round
type PeerRecord struct {
	MAC      *message.MAC
	Nickname *string // as announced, before resolution
}

// PeerReport is one line of a discovery report
type PeerReport struct {
	Addr     net.Addr
	MAC      *message.MAC
	Nickname *string // resolved against the local overrides
}

// IP returns the peer's IP address, or nil if Addr is not an IP address
func (p PeerReport) IP() net.IP {
	switch a := p.Addr.(type) {
	case *net.UDPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	}
	return nil
}

// String formats the report line:
//
//	02:00:5e:10:20:30 = 192.168.1.50 `desk`
//	02:00:5e:10:20:30 = 192.168.1.50
//	<Unknown> = 192.168.1.50:9040
func (p PeerReport) String() string {
	if p.MAC == nil {
		return fmt.Sprintf("<Unknown> = %s", p.Addr)
	}
	host := p.Addr.String()
	if ip := p.IP(); ip != nil {
		host = ip.String()
	}
	if p.Nickname == nil {
		return fmt.Sprintf("%s = %s", p.MAC, host)
	}
	return fmt.Sprintf("%s = %s `%s`", p.MAC, host, *p.Nickname)
}

type peerEntry struct {
	addr   net.Addr
	record PeerRecord
}

// Round accumulates the replies of one discovery round, keyed by sender address
type Round struct {
	IdemID    message.IdemToken
	overrides map[message.MAC]string
	peers     map[string]*peerEntry
}

// NewRound starts an empty round for the given request token
func NewRound(idem message.IdemToken, overrides map[message.MAC]string) *Round {
	return &Round{
		IdemID:    idem,
		overrides: overrides,
		peers:     make(map[string]*peerEntry),
	}
}

// Observe records a decoded datagram from a sender. Each field present in
// the datagram overwrites the sender's previous value; absent fields keep it.
// It returns the sender's updated report.
func (r *Round) Observe(from net.Addr, msgs []message.Message) PeerReport {
	key := from.String()
	entry, ok := r.peers[key]
	if !ok {
		entry = &peerEntry{addr: from}
		r.peers[key] = entry
	}

	for _, msg := range msgs {
		switch m := msg.(type) {
		case message.ResponseMAC:
			entry.record.MAC = m.MAC
		case message.ResponseNickname:
			nick := m.Nickname
			entry.record.Nickname = &nick
		}
	}
	return r.report(entry)
}

// Len returns the number of distinct senders seen
func (r *Round) Len() int {
	return len(r.peers)
}

// Report returns every peer, nicknames resolved, sorted by MAC with unknown
// MACs first and ties broken by address.
func (r *Round) Report() []PeerReport {
	reports := make([]PeerReport, 0, len(r.peers))
	for _, entry := range r.peers {
		reports = append(reports, r.report(entry))
	}
	SortReports(reports)
	return reports
}

func (r *Round) report(entry *peerEntry) PeerReport {
	return PeerReport{
		Addr:     entry.addr,
		MAC:      entry.record.MAC,
		Nickname: nickname.Resolve(r.overrides, entry.record.MAC, entry.record.Nickname),
	}
}

// SortReports orders reports by MAC (absent first), then by address
func SortReports(reports []PeerReport) {
	slices.SortStableFunc(reports, func(a, b PeerReport) int {
		if c := message.CompareMAC(a.MAC, b.MAC); c != 0 {
			return c
		}
		return strings.Compare(a.Addr.String(), b.Addr.String())
	})
}
