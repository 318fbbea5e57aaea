// Package client runs lookaround discovery rounds.
//
// A round picks a fresh idempotency token, sends the same Request to the
// multicast group several times in the background and meanwhile collects
// replies until the timeout elapses. Replies are keyed by sender address so
// retransmissions collapse into one peer:
//
//	c, err := client.New(&client.Config{Timeout: 2 * time.Second})
//	if err != nil {
//	    return err
//	}
//	peers, err := c.Discover(ctx)
//	for _, p := range peers {
//	    fmt.Println(p)
//	}
//
// FindNickname runs the same round but returns as soon as a peer's resolved
// nickname matches.
package client
