package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// DefaultAddr is the conventional Videohub control address.
const DefaultAddr = "127.0.0.1:9990"

// Server accepts Videohub controller connections.
type Server struct {
	registry   *Registry
	dispatcher *Dispatcher
	listener   net.Listener
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	mu         sync.Mutex
}

// NewServer creates a server over registry.
func NewServer(registry *Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		registry:   registry,
		dispatcher: NewDispatcher(registry, logger),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins listening on addr. Bind failures are returned to the caller.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.closed = false
	s.mu.Unlock()

	s.logger.Info("Videohub server started", "addr", ln.Addr().String())

	go s.acceptLoop(ln)

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// acceptLoop accepts incoming connections. It never exits because of a
// session failure.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()

			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Failed to accept connection", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		sessionsTotal.Inc()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn runs one session: register, serve, deregister exactly once.
func (s *Server) handleConn(conn net.Conn) {
	sess := NewSession(conn, s.logger)
	logger := s.logger.With("peer", sess.Address())
	registered := false

	// a session stuck writing to a stalled client never reaches Next, so
	// Stop closes its socket directly
	stopClose := context.AfterFunc(s.ctx, func() { _ = sess.Close() })

	defer func() {
		stopClose()
		if r := recover(); r != nil {
			logger.Error("Session panicked", "panic", r)
		}
		if registered && s.registry.UnregisterPeer(sess.Address()) {
			logger.Info("Controller disconnected")
		}
		_ = sess.Close()
	}()

	if err := s.registry.RegisterPeer(sess.Address(), sess.Outbox()); err != nil {
		logger.Error("Failed to register controller", "error", err)
		return
	}
	registered = true
	logger.Info("Controller connected")

	err := s.dispatcher.Serve(s.ctx, sess)
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed):
		logger.Debug("Session ended", "reason", err)
	default:
		logger.Warn("Session failed", "error", err)
	}
}

// Stop closes the listener, ends every session and waits for them.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	s.cancel()

	var err error
	if ln != nil {
		err = ln.Close()
	}

	s.wg.Wait()

	s.logger.Info("Videohub server stopped")
	return err
}
