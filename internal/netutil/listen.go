// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package netutil provides listener helpers shared by the formgate servers.
package netutil

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default retry policy for binding a listener.
const (
	DefaultListenAttempts = 5
	DefaultListenBackoff  = 100 * time.Millisecond
)

// ListenConfig controls Listen retries.
type ListenConfig struct {
	// Attempts is the total number of bind attempts. Zero means DefaultListenAttempts.
	Attempts uint64
	// Backoff is the initial exponential backoff. Zero means DefaultListenBackoff.
	Backoff time.Duration
}

// Listen binds a TCP listener on addr. Bind failures caused by the address
// still being in use are retried with exponential backoff; other failures
// are returned immediately.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	return ListenWithConfig(ctx, addr, ListenConfig{})
}

// ListenWithConfig is Listen with an explicit retry policy.
func ListenWithConfig(ctx context.Context, addr string, cfg ListenConfig) (net.Listener, error) {
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = DefaultListenAttempts
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultListenBackoff
	}

	var lc net.ListenConfig
	var listener net.Listener
	policy := retry.WithMaxRetries(attempts-1, retry.NewExponential(backoff))

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		l, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				slog.Debug("listen address in use, retrying", "addr", addr)
				return retry.RetryableError(err)
			}
			return err
		}
		listener = l
		return nil
	})
	if err != nil {
		return nil, oops.Code("NET_LISTEN_FAILED").
			With("addr", addr).
			With("attempts", attempts).
			Wrap(err)
	}
	return listener, nil
}
