// Package netif answers questions about the local host's network interfaces
// and sets up the multicast sockets used by the discovery client and server.
//
// It provides the local MAC address, the list of local IPv4 addresses used
// when no bind address is configured, and helpers to listen on, join and send
// to the discovery multicast group on specific interfaces.
package netif
