package gateway

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/smazurov/videohubd/internal/videohub"
)

// SessionState is the lifecycle state of a controller connection.
type SessionState int32

// Session states.
const (
	SessionConnecting SessionState = iota // accepted, not yet serving
	SessionActive                         // status dump sent, merging events
	SessionClosing                        // event stream ended
	SessionClosed                         // socket closed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventKind distinguishes the two event sources merged by a session.
type EventKind int

// Event kinds.
const (
	EventOutbound EventKind = iota + 1 // broadcast queued by another session
	EventCommand                       // block read from the socket
)

// Event is one item of a session's merged event stream.
type Event struct {
	Kind    EventKind
	Message string
	Command videohub.Command
}

// Session is one controller connection. It merges the peer's outbound queue
// with command blocks framed from the socket into a single ordered stream.
// Outbound messages take priority: Next always drains the outbox before
// returning a command, even one that completed first.
type Session struct {
	conn    net.Conn
	address string
	outbox  *Outbox
	logger  *slog.Logger

	blocks  chan []string
	done    chan struct{}
	readErr error
	pending []string

	state     atomic.Int32
	startOnce sync.Once
	closeOnce sync.Once
}

// NewSession wraps an accepted connection. The socket is not read until Activate.
func NewSession(conn net.Conn, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	address := conn.RemoteAddr().String()
	return &Session{
		conn:    conn,
		address: address,
		outbox:  NewOutbox(),
		logger:  logger.With("peer", address),
		blocks:  make(chan []string, 1),
		done:    make(chan struct{}),
	}
}

// Address returns the peer's network address.
func (s *Session) Address() string { return s.address }

// Outbox returns the queue other sessions broadcast into.
func (s *Session) Outbox() *Outbox { return s.outbox }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Activate starts framing socket input and moves the session to Active.
func (s *Session) Activate() {
	s.startOnce.Do(func() {
		s.state.CompareAndSwap(int32(SessionConnecting), int32(SessionActive))
		go s.readLoop()
	})
}

// readLoop frames socket lines into blocks. readErr is written before blocks
// is closed, so Next observes it after seeing the close.
func (s *Session) readLoop() {
	defer close(s.blocks)

	reader := videohub.NewBlockReader(s.conn)
	for {
		block, err := reader.ReadBlock()
		if err != nil {
			s.readErr = err
			return
		}
		select {
		case s.blocks <- block:
		case <-s.done:
			s.readErr = net.ErrClosed
			return
		}
	}
}

// Next returns the next event. It returns io.EOF when the controller closed
// the connection, the decode error when framing failed, or ctx.Err().
func (s *Session) Next(ctx context.Context) (Event, error) {
	for {
		if msg, ok := s.outbox.Pop(); ok {
			return Event{Kind: EventOutbound, Message: msg}, nil
		}
		if s.pending != nil {
			block := s.pending
			s.pending = nil
			return Event{Kind: EventCommand, Command: videohub.ParseCommand(block)}, nil
		}

		select {
		case <-s.outbox.Ready():
		case block, ok := <-s.blocks:
			if !ok {
				s.state.Store(int32(SessionClosing))
				if s.readErr == nil {
					return Event{}, io.EOF
				}
				return Event{}, s.readErr
			}
			// re-check the outbox before handing out the command
			s.pending = block
		case <-ctx.Done():
			s.state.Store(int32(SessionClosing))
			return Event{}, ctx.Err()
		}
	}
}

// Write sends text to the controller. Only the session's own loop writes.
func (s *Session) Write(text string) error {
	_, err := io.WriteString(s.conn, text)
	return err
}

// Close closes the socket and rejects further broadcasts. Safe to call twice.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.state.Store(int32(SessionClosing))
		close(s.done)
		s.outbox.Close()
		err = s.conn.Close()
		s.state.Store(int32(SessionClosed))
	})
	return err
}
