package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// drainTimeout bounds how long a closing session waits for queued lines to
// reach its client before the connection is torn down.
const drainTimeout = time.Second

// Session drives one connection through name negotiation and the chat loop.
type Session struct {
	ID string

	conn       Conn
	out        *Outbox
	reg        *Registry
	router     *Router
	maxNameLen int
	logger     *slog.Logger

	name  string
	state State
}

// SessionConfig carries what every session shares.
type SessionConfig struct {
	Registry      *Registry
	Router        *Router
	OutboxSize    int
	MaxNameLength int
	Logger        *slog.Logger
}

func NewSession(conn Conn, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		ID:         id,
		conn:       conn,
		out:        NewOutbox(cfg.OutboxSize),
		reg:        cfg.Registry,
		router:     cfg.Router,
		maxNameLen: cfg.MaxNameLength,
		logger:     logger.With("session", id, "remote", conn.RemoteAddr()),
		state:      StateNegotiating,
	}
}

// Name is the bound screen name, empty while negotiating.
func (s *Session) Name() string { return s.name }

func (s *Session) State() State { return s.state }

// Run blocks until the client goes away or ctx is cancelled. The name is
// released and the connection closed on every exit path.
func (s *Session) Run(ctx context.Context) {
	writerDone := StartOutboundWriter(s.conn, s.out)
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })

	var reason error
	defer func() {
		if p := recover(); p != nil {
			reason = fmt.Errorf("panic: %v", p)
		}
		stop()
		s.terminate(writerDone, reason)
	}()

	if reason = s.negotiate(); reason != nil {
		return
	}
	reason = s.chat()
}

func (s *Session) negotiate() error {
	for {
		if err := s.out.Send(LineSubmitName); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		name, err := s.conn.ReadLine()
		if err != nil {
			return err
		}
		if err := ValidateName(name, s.maxNameLen); err != nil {
			s.reject(name, err)
			continue
		}
		if err := s.reg.Register(name, s.out, LineNameAccepted); err != nil {
			if !errors.Is(err, ErrNameTaken) {
				return err
			}
			s.reject(name, err)
			continue
		}
		s.name = name
		s.state = StateActive
		s.logger = s.logger.With("name", name)
		s.logger.Info("name accepted")
		return nil
	}
}

func (s *Session) reject(name string, reason error) {
	NameRejections.WithLabelValues(rejectionLabel(reason)).Inc()
	s.logger.Debug("name rejected", "proposed", name, "reason", reason)
}

func (s *Session) chat() error {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return err
		}
		s.router.Route(s.name, s.out, ParseMessage(line), s.reg)
	}
}

func (s *Session) terminate(writerDone <-chan struct{}, reason error) {
	s.state = StateTerminated
	if s.name != "" {
		s.reg.Unregister(s.name)
	}
	s.out.Close()
	select {
	case <-writerDone:
	case <-time.After(drainTimeout):
	}
	_ = s.conn.Close()

	switch {
	case reason == nil, errors.Is(reason, io.EOF):
		s.logger.Info("session ended", "reason", "disconnected")
	default:
		s.logger.Info("session ended", "reason", reason.Error())
	}
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ErrNameEmpty):
		return "empty"
	case errors.Is(err, ErrNameHasSpace):
		return "whitespace"
	case errors.Is(err, ErrNameTooLong):
		return "too_long"
	case errors.Is(err, ErrNameTaken):
		return "taken"
	default:
		return "other"
	}
}
