package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/lookaround/lookaround/internal/message"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantIP       string
		wantMAC      string
		wantNickname string
	}{
		{
			name: "server with mac and nickname",
			entry: &zeroconf.ServiceEntry{
				HostName: "desk.local.",
				Port:     9040,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
				Text:     []string{"proto=1", "mac=02:00:5E:10:20:30", "nickname=desk"},
			},
			wantIP:       "192.168.4.16",
			wantMAC:      "02:00:5e:10:20:30",
			wantNickname: "desk",
		},
		{
			name: "server without mac",
			entry: &zeroconf.ServiceEntry{
				HostName: "nas.local.",
				Port:     9040,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{"proto=1"},
			},
			wantIP: "10.0.0.5",
		},
		{
			name: "malformed mac is dropped",
			entry: &zeroconf.ServiceEntry{
				HostName: "odd.local.",
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.6")},
				Text:     []string{"mac=zz:zz"},
			},
			wantIP: "10.0.0.6",
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "v6.local.",
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP: "fe80::1",
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "ghost.local.",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peer := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if peer != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", peer)
				}
				return
			}
			if peer == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil peer")
			}
			if peer.IP != tt.wantIP {
				t.Errorf("peer.IP = %v, want %v", peer.IP, tt.wantIP)
			}
			if peer.MAC != tt.wantMAC {
				t.Errorf("peer.MAC = %v, want %v", peer.MAC, tt.wantMAC)
			}
			if peer.Nickname != tt.wantNickname {
				t.Errorf("peer.Nickname = %v, want %v", peer.Nickname, tt.wantNickname)
			}
			if time.Since(peer.DiscoveredAt) > time.Second {
				t.Errorf("peer.DiscoveredAt is not recent: %v", peer.DiscoveredAt)
			}
		})
	}
}

func TestAnnouncement_TXTRecords(t *testing.T) {
	mac := message.MAC{0x02, 0x00, 0x5E, 0x10, 0x20, 0x30}

	got := Announcement{Nickname: "desk", MAC: &mac, Port: 9040}.txtRecords()
	want := []string{"proto=1", "mac=02:00:5e:10:20:30", "nickname=desk"}
	if len(got) != len(want) {
		t.Fatalf("txtRecords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("txtRecords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	bare := Announcement{Port: 9040}.txtRecords()
	if len(bare) != 1 || bare[0] != "proto=1" {
		t.Errorf("txtRecords() without mac/nickname = %v, want [proto=1]", bare)
	}
}

func TestPeer_String(t *testing.T) {
	tests := []struct {
		name string
		peer *Peer
		want string
	}{
		{
			name: "full",
			peer: &Peer{MAC: "02:00:5e:10:20:30", IP: "10.0.0.5", Nickname: "desk"},
			want: "02:00:5e:10:20:30 = 10.0.0.5 `desk`",
		},
		{
			name: "no nickname",
			peer: &Peer{MAC: "02:00:5e:10:20:30", IP: "10.0.0.5"},
			want: "02:00:5e:10:20:30 = 10.0.0.5",
		},
		{
			name: "no mac",
			peer: &Peer{IP: "10.0.0.5"},
			want: "<Unknown> = 10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.peer.String(); got != tt.want {
				t.Errorf("Peer.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeer_GetMetadata_NilMap(t *testing.T) {
	peer := &Peer{}
	if got := peer.GetMetadata("anything"); got != "" {
		t.Errorf("Peer.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Live mDNS browsing needs a multicast-capable network and is exercised by
// running `lookaround browse` against a `lookaround server --mdns`.
