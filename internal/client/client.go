package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lookaround/lookaround/internal/logging"
	"github.com/lookaround/lookaround/internal/message"
	"github.com/lookaround/lookaround/internal/netif"
)

const (
	// DefaultTimeout is the collection window of one discovery round
	DefaultTimeout = 2 * time.Second

	// DefaultRetries is how many times a round's request is sent
	DefaultRetries = 10

	// DefaultRetryInterval is the pause between request sends
	DefaultRetryInterval = 100 * time.Millisecond
)

// ErrNotFound is returned by FindNickname when no peer answered with the nickname
var ErrNotFound = errors.New("no peer answered with that nickname")

// Config holds the client configuration
type Config struct {
	BindAddrs     []net.IP               // Interfaces to query on (empty = auto-detect)
	Timeout       time.Duration          // Collection window (0 = DefaultTimeout)
	Group         net.IP                 // Destination group (nil = netif.MulticastGroup)
	Port          int                    // Destination port (0 = netif.ServerPort)
	Overrides     map[message.MAC]string // Local nickname overrides
	Retries       int                    // Request sends per round (0 = DefaultRetries)
	RetryInterval time.Duration          // Pause between sends (0 = DefaultRetryInterval)
}

// Client runs discovery rounds
type Client struct {
	config *Config
}

// Seams for tests
var (
	detectAddrs = netif.LocalIPv4Addrs
	newIdem     = message.NewIdemToken
)

// New validates config and fills in defaults. No sockets are opened.
func New(config *Config) (*Client, error) {
	cfg := *config
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Group == nil {
		cfg.Group = netif.MulticastGroup
	}
	if cfg.Port == 0 {
		cfg.Port = netif.ServerPort
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	return &Client{config: &cfg}, nil
}

// Discover runs one round and returns every peer that answered within the
// timeout, sorted by MAC.
func (c *Client) Discover(ctx context.Context) ([]PeerReport, error) {
	return c.DiscoverFunc(ctx, nil)
}

// DiscoverFunc is Discover with a callback invoked as each reply arrives.
// The callback sees the sender's report so far and runs on the collecting
// goroutine, one call at a time.
func (c *Client) DiscoverFunc(ctx context.Context, onReply func(PeerReport)) ([]PeerReport, error) {
	round, _, err := c.run(ctx, func(p PeerReport) bool {
		if onReply != nil {
			onReply(p)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return round.Report(), nil
}

// FindNickname runs a round and returns the IP of the first peer whose
// resolved nickname equals target, stopping as soon as one answers.
func (c *Client) FindNickname(ctx context.Context, target string) (net.IP, error) {
	_, found, err := c.run(ctx, func(p PeerReport) bool {
		return p.Nickname != nil && *p.Nickname == target
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, target)
	}
	return found.IP(), nil
}

// run sends the round's request in the background while collecting replies
// until the timeout elapses or stop returns true for a reply.
func (c *Client) run(ctx context.Context, stop func(PeerReport) bool) (*Round, *PeerReport, error) {
	idem, err := newIdem()
	if err != nil {
		return nil, nil, err
	}
	request, err := message.Encode(message.Request{IdemID: idem})
	if err != nil {
		return nil, nil, err
	}

	conn, err := c.listen()
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	sender, err := c.join(conn)
	if err != nil {
		return nil, nil, err
	}

	logging.Debug("Starting discovery round",
		zap.Stringer("idem", idem),
		zap.Stringer("local_addr", conn.LocalAddr()),
		zap.Duration("timeout", c.config.Timeout),
	)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	round := NewRound(idem, c.config.Overrides)
	dst := &net.UDPAddr{IP: c.config.Group, Port: c.config.Port}

	var found *PeerReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.broadcast(gctx, sender, request, dst)
		return nil
	})
	g.Go(func() error {
		found = collect(gctx, conn, round, stop)
		if found != nil {
			cancel()
		}
		return nil
	})
	_ = g.Wait()

	logging.Debug("Discovery round finished", zap.Stringer("idem", idem), zap.Int("peers", round.Len()))
	return round, found, nil
}

func (c *Client) listen() (net.PacketConn, error) {
	host := "0.0.0.0"
	if len(c.config.BindAddrs) == 1 {
		host = c.config.BindAddrs[0].String()
	}
	conn, err := net.ListenPacket("udp4", net.JoinHostPort(host, "0"))
	if err != nil {
		return nil, fmt.Errorf("failed to bind client socket on %s: %w", host, err)
	}
	return conn, nil
}

// join subscribes conn to the group on every bind address. Interfaces that
// fail to join are logged and skipped. A non-multicast destination is sent
// to directly.
func (c *Client) join(conn net.PacketConn) (*netif.GroupSender, error) {
	if !c.config.Group.IsMulticast() {
		sender, _ := netif.JoinAll(conn, c.config.Group, nil)
		return sender, nil
	}

	ips := c.config.BindAddrs
	if len(ips) == 0 {
		addrs, err := detectAddrs()
		if err != nil {
			return nil, fmt.Errorf("failed to detect local addresses: %w", err)
		}
		ips = addrs
	}

	sender, err := netif.JoinAll(conn, c.config.Group, ips)
	for _, e := range multierr.Errors(err) {
		logging.Warn("Failed to join multicast group", zap.Error(e))
	}
	return sender, nil
}

func (c *Client) broadcast(ctx context.Context, sender *netif.GroupSender, request []byte, dst net.Addr) {
	ticker := time.NewTicker(c.config.RetryInterval)
	defer ticker.Stop()

	for i := 0; i < c.config.Retries; i++ {
		if err := sender.Send(request, dst); err != nil {
			logging.Warn("Failed to send request", zap.Int("attempt", i+1), zap.Error(err))
		} else {
			logging.LogDatagram("send", dst, request)
		}

		if i == c.config.Retries-1 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// collect reads replies into round until ctx is done or stop accepts one
func collect(ctx context.Context, conn net.PacketConn, round *Round, stop func(PeerReport) bool) *PeerReport {
	// Unblocks the pending read once the window closes
	release := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer release()

	buf := make([]byte, message.MaxDatagramSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Warn("Failed to read reply", zap.Error(err))
			continue
		}
		logging.LogDatagram("recv", from, buf[:n])

		msgs, err := message.DecodeMany(buf[:n])
		if err != nil {
			logging.Debug("Ignoring undecodable datagram", zap.Stringer("from", from), zap.Error(err))
			continue
		}

		report := round.Observe(from, msgs)
		if stop != nil && stop(report) {
			return &report
		}
	}
}

// ServerAddr formats the destination of a round for display
func (c *Client) ServerAddr() string {
	return net.JoinHostPort(c.config.Group.String(), strconv.Itoa(c.config.Port))
}

// Timeout returns the effective collection window
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}
