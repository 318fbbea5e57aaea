package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookaround/lookaround/internal/message"
	"github.com/lookaround/lookaround/internal/server"
)

var loopback = net.IPv4(127, 0, 0, 1).To4()

// startServer runs a listener on a loopback socket and returns its port
func startServer(t *testing.T, mac *message.MAC, nick string) int {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	l, err := server.NewListener(conn, mac, nick)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return conn.LocalAddr().(*net.UDPAddr).Port
}

func newLoopbackClient(t *testing.T, port int, timeout time.Duration, overrides map[message.MAC]string) *Client {
	t.Helper()
	c, err := New(&Config{
		BindAddrs:     []net.IP{loopback},
		Timeout:       timeout,
		Group:         loopback,
		Port:          port,
		Overrides:     overrides,
		Retries:       5,
		RetryInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(&Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.Equal(t, DefaultRetries, c.config.Retries)
	assert.Equal(t, DefaultRetryInterval, c.config.RetryInterval)
	assert.Equal(t, "225.100.99.98:9040", c.ServerAddr())
}

func TestNew_NegativeTimeout(t *testing.T) {
	_, err := New(&Config{Timeout: -time.Second})
	assert.Error(t, err)
}

func TestDiscover_CollectsOneReportPerServer(t *testing.T) {
	port := startServer(t, &macA, "snowflake")
	c := newLoopbackClient(t, port, 500*time.Millisecond, nil)

	var replies int
	reports, err := c.DiscoverFunc(context.Background(), func(PeerReport) { replies++ })
	require.NoError(t, err)

	require.Len(t, reports, 1, "retransmissions and duplicate replies collapse to one peer")
	assert.Equal(t, &macA, reports[0].MAC)
	require.NotNil(t, reports[0].Nickname)
	assert.Equal(t, "snowflake", *reports[0].Nickname)
	assert.True(t, reports[0].IP().Equal(loopback))
	assert.Equal(t, 1, replies, "server suppresses retransmitted requests")
}

func TestDiscover_AppliesOverrides(t *testing.T) {
	port := startServer(t, &macB, "")
	c := newLoopbackClient(t, port, 300*time.Millisecond, map[message.MAC]string{macB: "printer"})

	reports, err := c.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Nickname)
	assert.Equal(t, "printer", *reports[0].Nickname)
	assert.Equal(t, "02:00:00:00:00:0b = 127.0.0.1 `printer`", reports[0].String())
}

func TestDiscover_NoServers(t *testing.T) {
	// Nothing listens on the port of a closed socket
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())

	c := newLoopbackClient(t, port, 200*time.Millisecond, nil)

	start := time.Now()
	reports, err := c.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestFindNickname_StopsEarly(t *testing.T) {
	port := startServer(t, &macA, "desk")
	c := newLoopbackClient(t, port, 5*time.Second, nil)

	start := time.Now()
	ip, err := c.FindNickname(context.Background(), "desk")
	require.NoError(t, err)

	assert.True(t, ip.Equal(loopback))
	assert.Less(t, time.Since(start), 2*time.Second, "returns on the first match instead of waiting out the timeout")
}

func TestFindNickname_NotFound(t *testing.T) {
	port := startServer(t, &macA, "desk")
	c := newLoopbackClient(t, port, 200*time.Millisecond, nil)

	_, err := c.FindNickname(context.Background(), "laptop")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscover_ParentCancel(t *testing.T) {
	port := startServer(t, &macA, "desk")
	c := newLoopbackClient(t, port, 5*time.Second, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Discover(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
