package streaming

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/AlexxIT/go2rtc/pkg/rtsp"
	"github.com/smazurov/videohubd/internal/logging"
)

// DefaultAddr is the relay's RTSP listen address.
const DefaultAddr = ":8554"

// Server is the relay's RTSP front end. Sources push with ANNOUNCE/RECORD
// and viewers pull a source or an output path with DESCRIBE/PLAY.
type Server struct {
	hub    *Hub
	logger logging.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	stopping bool
	wg       sync.WaitGroup
}

// NewServer creates a relay server publishing into hub.
func NewServer(hub *Hub, logger logging.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Start listens on addr, DefaultAddr when empty.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rtsp relay: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.stopping = false
	s.mu.Unlock()

	s.logger.Info("RTSP relay started", "addr", ln.Addr().String())
	go s.serve(ln)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Failed to accept RTSP connection", "error", err)
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		go func() {
			defer s.untrack(conn)
			newRelayConn(s.hub, conn, s.logger).run()
		}()
	}
}

// track registers conn unless the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	_ = conn.Close()
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

// Stop closes the listener and every open connection, including ones
// still negotiating, then waits for their goroutines.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.stopping = true
	ln := s.listener
	open := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		open = append(open, c)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.hub.Stop()
	for _, c := range open {
		_ = c.Close()
	}
	s.wg.Wait()

	s.logger.Info("RTSP relay stopped")
	return err
}

// relayConn is one RTSP connection. It becomes a producer on ANNOUNCE or a
// consumer on DESCRIBE, and is removed from the hub under that role on exit.
type relayConn struct {
	hub    *Hub
	conn   *rtsp.Conn
	remote string
	logger logging.Logger

	produces string
	consumes string
}

func newRelayConn(hub *Hub, conn net.Conn, logger logging.Logger) *relayConn {
	remote := conn.RemoteAddr().String()
	return &relayConn{
		hub:    hub,
		conn:   rtsp.NewServer(conn),
		remote: remote,
		logger: logger,
	}
}

func (c *relayConn) run() {
	c.conn.Listen(c.onMessage)
	defer c.release()

	// OPTIONS, ANNOUNCE/DESCRIBE, SETUP, PLAY/RECORD
	if err := c.conn.Accept(); err != nil {
		c.logEnd("RTSP handshake ended", err)
		return
	}
	c.logEnd("RTSP session ended", c.conn.Handle())
}

func (c *relayConn) onMessage(msg any) {
	switch msg {
	case rtsp.MethodAnnounce:
		name, ok := streamName(c.conn)
		if !ok {
			return
		}
		c.produces = name
		c.hub.AddProducer(name, c.conn, c.remote)
		relayConnections.WithLabelValues("producer").Inc()

	case rtsp.MethodDescribe:
		path, ok := streamName(c.conn)
		if !ok {
			return
		}
		if err := c.hub.WireConsumer(path, c.conn); err != nil {
			c.logger.Warn("Failed to wire RTSP consumer", "path", path, "remote", c.remote, "error", err)
			return
		}
		c.consumes = path
		relayConnections.WithLabelValues("consumer").Inc()
		c.logger.Info("RTSP consumer connected", "path", path, "remote", c.remote)
	}
}

func (c *relayConn) release() {
	if c.produces != "" {
		c.hub.RemoveProducer(c.produces, c.conn)
	}
	if c.consumes != "" {
		c.hub.RemoveConsumer(c.consumes, c.conn)
	}
}

func (c *relayConn) logEnd(msg string, err error) {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return
	}
	c.logger.Debug(msg, "remote", c.remote, "error", err)
}

// streamName is the request path without its leading slash.
func streamName(c *rtsp.Conn) (string, bool) {
	if c.URL == nil || len(c.URL.Path) <= 1 {
		return "", false
	}
	return c.URL.Path[1:], true
}
