package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Server accepts connections and runs one Session per connection.
type Server struct {
	addr     string
	logger   *slog.Logger
	sessions SessionConfig
	listener net.Listener

	// mu orders Handle's wg.Add against Stop's cancel.
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer builds a server around an existing registry and router, both
// carried in cfg and shared by every session.
func NewServer(addr string, cfg SessionConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Router == nil {
		cfg.Router = NewRouter(nil, cfg.Logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		logger:   cfg.Logger,
		sessions: cfg,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start binds the listening socket and serves it in the background.
// A bind failure is returned to the caller, which should treat it as fatal.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every live session, then waits for them.
func (s *Server) Stop() {
	s.logger.Info("shutting down")

	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()

	s.logger.Info("shutdown complete")
}

// Handle runs a session for conn in its own goroutine.
func (s *Server) Handle(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		_ = conn.Close()
		return
	}
	sess := NewSession(conn, s.sessions)
	s.logger.Info("client connected", "addr", conn.RemoteAddr(), "session", sess.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sess.Run(s.ctx)
	}()
}

func (s *Server) acceptLoop(ln net.Listener) {
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				return
			}
			backoff = nextBackoff(backoff)
			s.logger.Error("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
				continue
			case <-s.ctx.Done():
				return
			}
		}
		backoff = 0
		s.Handle(NewTCPConn(conn))
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
