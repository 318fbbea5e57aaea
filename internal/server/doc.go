// Package server answers lookaround discovery requests.
//
// A Server runs one Listener per local IPv4 interface. Every listener binds
// the well-known port, joins the discovery multicast group on its interface
// and answers each new Request with a single datagram carrying the host's MAC
// address and configured nickname.
//
// # Request Handling
//
// For every datagram a listener:
//  1. Decodes it; undecodable datagrams are logged and dropped
//  2. Ignores it unless the first message is a broadcast Request (MAC filter unset)
//  3. Drops it if the request's idempotency token was seen recently
//  4. Otherwise records the token and replies to the sender
//
// Clients retransmit every request ten times, so the recent-token check is
// what keeps a server from replying ten times. Each listener remembers the
// last 30 tokens.
//
// Requests that carry a MAC filter are reserved for targeted queries and are
// currently dropped, not answered.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Nickname: "desk"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// Bind failures skip that interface; Run fails only if no interface could be
// listened on. Receive, decode and send errors are logged and the listener
// keeps serving.
//
// # Thread Safety
//
// Listeners run in their own goroutines and share no mutable state.
package server
