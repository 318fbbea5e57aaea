// Package discovery advertises and browses lookaround servers over mDNS
// (DNS-SD).
//
// This is an optional companion to the native multicast protocol: a server
// started with --mdns registers a "_lookaround._udp" service whose TXT
// records carry its MAC address and nickname, so generic mDNS tooling and
// `lookaround browse` can find it too.
//
// # TXT Records
//
//   - proto=1: protocol version
//   - mac=02:00:5e:10:20:30: the server's MAC, when known
//   - nickname=desk: the configured nickname, when set
//
// # Usage Example
//
//	peers, err := discovery.ScanForPeers(ctx, 3*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, peer := range peers {
//	    fmt.Println(peer)
//	}
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
