// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package telnet serves the login and registration forms over a
// line-oriented telnet session.
package telnet

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/internal/netutil"
)

// ConnectionType is the metrics label for telnet connections.
const ConnectionType = "telnet"

// Metrics receives submit outcomes and connection counts.
type Metrics interface {
	forms.Observer
	ObserveConnection(kind string)
}

// Option configures a Server or ConnectionHandler.
type Option func(*settings)

type settings struct {
	logger     *slog.Logger
	metrics    Metrics
	onRegister forms.CompletionHandler[forms.ValidatedRegistration]
	onLogin    forms.CompletionHandler[forms.ValidatedLogin]
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&s)
	}
	if s.onRegister == nil {
		s.onRegister = forms.LogRegistration(s.logger)
	}
	if s.onLogin == nil {
		s.onLogin = forms.LogLogin(s.logger)
	}
	return s
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithRegistrationHandler sets the handler run for each accepted registration.
func WithRegistrationHandler(fn forms.CompletionHandler[forms.ValidatedRegistration]) Option {
	return func(s *settings) {
		s.onRegister = fn
	}
}

// WithLoginHandler sets the handler run for each accepted login.
func WithLoginHandler(fn forms.CompletionHandler[forms.ValidatedLogin]) Option {
	return func(s *settings) {
		s.onLogin = fn
	}
}

// Server is a telnet server.
type Server struct {
	addr     string
	opts     []Option
	logger   *slog.Logger
	metrics  Metrics
	listener net.Listener
	mu       sync.RWMutex
	conns    sync.WaitGroup
}

// NewServer creates a new telnet server.
func NewServer(addr string, opts ...Option) *Server {
	s := newSettings(opts)
	return &Server{
		addr:    addr,
		opts:    opts,
		logger:  s.logger,
		metrics: s.metrics,
	}
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until ctx is cancelled and every
// connection handler has returned.
func (s *Server) Run(ctx context.Context) error {
	listener, err := netutil.Listen(ctx, s.addr)
	if err != nil {
		return oops.With("server", "telnet").Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("telnet server started", "addr", listener.Addr().String())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("error closing listener", "error", err)
		}
	}()

	defer s.conns.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.logger.Info("telnet server stopped")
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return oops.Code("TELNET_LISTENER_CLOSED").Wrap(err)
			}
			s.logger.Error("telnet accept failed", "error", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.ObserveConnection(ConnectionType)
		}
		handler := NewConnectionHandler(conn, s.opts...)
		s.logger.Debug("telnet connection accepted",
			"conn_id", handler.ID().String(),
			"remote", conn.RemoteAddr().String(),
		)
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			handler.Handle(ctx)
		}()
	}
}
