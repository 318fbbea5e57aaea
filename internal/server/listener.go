package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/lookaround/lookaround/internal/logging"
	"github.com/lookaround/lookaround/internal/message"
)

// Listener answers discovery requests arriving on one socket.
// Its RecentIdemSet is the only state kept between requests.
type Listener struct {
	conn     net.PacketConn
	localMAC *message.MAC
	nickname string
	recent   *RecentIdemSet
}

// NewListener wraps conn. The listener takes ownership of conn and closes it
// when Serve returns.
func NewListener(conn net.PacketConn, localMAC *message.MAC, nickname string) (*Listener, error) {
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}
	recent, err := NewRecentIdemSet(DefaultRecentCapacity)
	if err != nil {
		return nil, err
	}
	return &Listener{
		conn:     conn,
		localMAC: localMAC,
		nickname: nickname,
		recent:   recent,
	}, nil
}

// LocalAddr returns the address the listener's socket is bound to
func (l *Listener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Handle runs one step of the request state machine for a received datagram.
// It returns the encoded reply and true if the datagram should be answered.
func (l *Listener) Handle(data []byte, from net.Addr) ([]byte, bool) {
	msgs, err := message.DecodeMany(data)
	if err != nil {
		logging.Debug("Ignoring undecodable datagram",
			zap.Stringer("remote_addr", from),
			zap.Error(err),
		)
		return nil, false
	}
	if len(msgs) == 0 {
		logging.Debug("Ignoring empty datagram", zap.Stringer("remote_addr", from))
		return nil, false
	}

	req, ok := msgs[0].(message.Request)
	if !ok {
		logging.Debug("Ignoring non-request message",
			zap.Stringer("remote_addr", from),
			zap.Stringer("message", msgs[0]),
		)
		return nil, false
	}
	if req.MAC != nil {
		// Targeted queries are reserved; they are dropped rather than answered
		logging.Debug("Ignoring MAC-filtered request",
			zap.Stringer("remote_addr", from),
			zap.Stringer("mac", req.MAC),
		)
		return nil, false
	}

	if !l.recent.Accept(req.IdemID) {
		logging.Debug("Suppressing duplicate request",
			zap.Stringer("remote_addr", from),
			zap.Stringer("idem_id", req.IdemID),
		)
		return nil, false
	}

	reply, err := message.EncodeMany([]message.Message{
		message.ResponseMAC{MAC: l.localMAC},
		message.ResponseNickname{IdemID: req.IdemID, Nickname: l.nickname},
	})
	if err != nil {
		logging.Error("Failed to encode reply", zap.Error(err))
		return nil, false
	}
	return reply, true
}

// Serve reads datagrams until ctx is cancelled or the socket is closed.
// Receive, decode and send errors are logged and never stop the loop.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.Close()
	})
	defer stop()
	defer l.conn.Close()

	logging.Info("Listening for requests", zap.Stringer("local_addr", l.conn.LocalAddr()))

	buf := make([]byte, message.MaxDatagramSize)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener socket closed: %w", err)
			}
			logging.Warn("Error while receiving datagram", zap.Error(err))
			continue
		}

		data := buf[:n]
		logging.LogDatagram("received", from, data)

		reply, ok := l.Handle(data, from)
		if !ok {
			continue
		}

		if _, err := l.conn.WriteTo(reply, from); err != nil {
			logging.Warn("Error while sending reply",
				zap.Stringer("remote_addr", from),
				zap.Error(err),
			)
			continue
		}
		logging.LogDatagram("sent", from, reply)
		logging.Info("Answered request", zap.Stringer("remote_addr", from))
	}
}

// ValidateNickname checks that a nickname can be put on the wire
func ValidateNickname(nickname string) error {
	_, err := message.Encode(message.ResponseNickname{Nickname: nickname})
	if err != nil {
		return fmt.Errorf("invalid nickname: %w", err)
	}
	return nil
}
