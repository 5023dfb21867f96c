// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/holomush/formgate/internal/observability"
	"github.com/holomush/formgate/internal/telnet"
	"github.com/holomush/formgate/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// WebServerFactory creates the HTTP form server.
	// Default: web.NewServer
	WebServerFactory func(addr string, handler http.Handler, logger *slog.Logger) BackgroundServer

	// TelnetServerFactory creates the telnet form server.
	// Default: telnet.NewServer
	TelnetServerFactory func(addr string, opts ...telnet.Option) TelnetServer
}

// BackgroundServer wraps servers that start in the background.
type BackgroundServer interface {
	Start(ctx context.Context) (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	BackgroundServer
	Metrics() *observability.Metrics
}

// TelnetServer interface wraps the methods used from telnet.Server.
type TelnetServer interface {
	Run(ctx context.Context) error
	Addr() string
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.WebServerFactory == nil {
		out.WebServerFactory = func(addr string, handler http.Handler, logger *slog.Logger) BackgroundServer {
			return web.NewServer(addr, handler, logger)
		}
	}
	if out.TelnetServerFactory == nil {
		out.TelnetServerFactory = func(addr string, opts ...telnet.Option) TelnetServer {
			return telnet.NewServer(addr, opts...)
		}
	}
	return &out
}
