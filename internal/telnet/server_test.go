// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/formgate/internal/observability"
	"github.com/holomush/formgate/pkg/errutil"
)

// startServer runs srv until the test ends and waits for Run to return.
func startServer(t *testing.T, srv *Server) (cancel context.CancelFunc, runErr <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	return cancel, errCh
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\r\n")
}

func TestServer_AcceptsConnections(t *testing.T) {
	defer goleak.VerifyNone(t)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	srv := NewServer("127.0.0.1:0", WithMetrics(metrics))
	cancel, runErr := startServer(t, srv)

	conn, reader := dial(t, srv.Addr())
	assert.Equal(t, "Welcome to formgate!", readLine(t, reader))
	for range welcomeLines - 1 {
		readLine(t, reader)
	}

	_, err := conn.Write([]byte("fill\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Email:", readLine(t, reader))
	_, err = conn.Write([]byte("carol@example.com\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Password:", readLine(t, reader))
	_, err = conn.Write([]byte("letmein\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Logged in as carol@example.com.", readLine(t, reader))

	_ = conn.Close()
	cancel()
	require.NoError(t, <-runErr)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ConnectionsTotal.WithLabelValues(ConnectionType)), 0)
}

func TestServer_ShutdownClosesActiveConnections(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := NewServer("127.0.0.1:0")
	cancel, runErr := startServer(t, srv)

	conn, reader := dial(t, srv.Addr())
	defer func() { _ = conn.Close() }()
	for range welcomeLines {
		readLine(t, reader)
	}

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err := reader.ReadString('\n')
	assert.Error(t, err, "server side of the connection is closed")
}

func TestServer_ListenFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = taken.Close() }()

	srv := NewServer(taken.Addr().String())
	err = srv.Run(context.Background())
	errutil.AssertErrorCode(t, err, "NET_LISTEN_FAILED")
	errutil.AssertErrorContext(t, err, "server", "telnet")
	assert.Empty(t, srv.Addr())
}
