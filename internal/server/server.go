package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lookaround/lookaround/internal/discovery"
	"github.com/lookaround/lookaround/internal/logging"
	"github.com/lookaround/lookaround/internal/message"
	"github.com/lookaround/lookaround/internal/netif"
)

// ErrNoListeners is returned when no bind address could be listened on
var ErrNoListeners = errors.New("no interface could be listened on")

// Config holds the server configuration
type Config struct {
	BindAddrs []net.IP     // Interface addresses to answer on (empty = auto-detect)
	Nickname  string       // Announced display name
	LocalMAC  *message.MAC // Announced MAC (nil = detect)
	Group     net.IP       // Multicast group (nil = netif.MulticastGroup)
	Port      int          // Server port (0 = netif.ServerPort)
	MDNS      bool         // Also advertise over mDNS
}

// Server runs one Listener per local interface
type Server struct {
	config    *Config
	mu        sync.Mutex
	listeners []*Listener
}

// Seams for tests
var (
	detectMAC   = netif.LocalMAC
	detectAddrs = netif.LocalIPv4Addrs
	listenGroup = func(ifaceIP, group net.IP, port int) (net.PacketConn, error) {
		conn, err := netif.ListenGroup(ifaceIP, group, port)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
)

// New validates config and fills in defaults. No sockets are opened.
func New(config *Config) (*Server, error) {
	if err := ValidateNickname(config.Nickname); err != nil {
		return nil, err
	}

	cfg := *config
	if cfg.Group == nil {
		cfg.Group = netif.MulticastGroup
	}
	if cfg.Port == 0 {
		cfg.Port = netif.ServerPort
	}

	return &Server{config: &cfg}, nil
}

// Start runs the server until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := s.Run(ctx)
	logging.Info("Server stopped")
	logging.Sync()
	return err
}

// Run binds a listener per interface and serves until ctx is cancelled.
// A bind failure on one interface is logged and that interface is skipped.
func (s *Server) Run(ctx context.Context) error {
	if s.config.LocalMAC == nil {
		mac, err := detectMAC()
		if err != nil {
			logging.Warn("MAC detection failed", zap.Error(err))
		}
		s.config.LocalMAC = mac
	}
	if s.config.LocalMAC == nil {
		logging.Warn("Can't find our own MAC address, replies will not carry one")
	}

	bindAddrs := s.config.BindAddrs
	if len(bindAddrs) == 0 {
		logging.Info("No bind addresses given, auto-detecting all local IPs")
		addrs, err := detectAddrs()
		if err != nil {
			return fmt.Errorf("failed to detect local addresses: %w", err)
		}
		bindAddrs = addrs
	}

	for _, ip := range bindAddrs {
		conn, err := listenGroup(ip, s.config.Group, s.config.Port)
		if err != nil {
			logging.LogInterfaceEvent("bind_failed", ip, err)
			continue
		}
		if err := s.addListener(conn); err != nil {
			_ = conn.Close()
			return err
		}
		logging.LogInterfaceEvent("listening", ip, nil)
	}

	return s.serve(ctx)
}

// Serve answers requests on already-open sockets until ctx is cancelled.
// It is used when the caller manages sockets itself, e.g. in tests.
func (s *Server) Serve(ctx context.Context, conns ...net.PacketConn) error {
	for _, conn := range conns {
		if err := s.addListener(conn); err != nil {
			return err
		}
	}
	return s.serve(ctx)
}

func (s *Server) addListener(conn net.PacketConn) error {
	l, err := NewListener(conn, s.config.LocalMAC, s.config.Nickname)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
	return nil
}

func (s *Server) serve(ctx context.Context) error {
	s.mu.Lock()
	listeners := append([]*Listener(nil), s.listeners...)
	s.mu.Unlock()

	if len(listeners) == 0 {
		return ErrNoListeners
	}

	if s.config.MDNS {
		announcer, err := discovery.Announce(discovery.Announcement{
			Nickname: s.config.Nickname,
			MAC:      s.config.LocalMAC,
			Port:     s.config.Port,
		})
		if err != nil {
			logging.Warn("mDNS announcement failed", zap.Error(err))
		} else {
			defer announcer.Shutdown()
		}
	}

	// Listeners share nothing; one failing does not cancel the others
	var g errgroup.Group
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			if err := l.Serve(ctx); err != nil {
				logging.Error("Listener stopped", zap.Stringer("local_addr", l.LocalAddr()), zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// ListenerCount returns the number of listeners started
func (s *Server) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
