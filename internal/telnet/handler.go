// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package telnet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/pkg/errutil"
)

// ConnectionHandler handles a single telnet connection.
type ConnectionHandler struct {
	conn     net.Conn
	reader   *bufio.Reader
	settings settings
	logger   *slog.Logger
	connID   ulid.ULID
	views    map[string]formView
	current  string
	pending  []string
	quitting bool
}

// NewConnectionHandler creates a new handler. The login view is active first.
func NewConnectionHandler(conn net.Conn, opts ...Option) *ConnectionHandler {
	s := newSettings(opts)
	connID := ulid.Make()
	logger := s.logger.With("conn_id", connID.String())

	formOpts := []forms.Option{forms.WithLogger(logger)}
	if s.metrics != nil {
		formOpts = append(formOpts, forms.WithObserver(s.metrics))
	}

	return &ConnectionHandler{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		settings: s,
		logger:   logger,
		connID:   connID,
		views: map[string]formView{
			viewLogin:    newLoginView(s.onLogin, formOpts...),
			viewRegister: newRegisterView(s.onRegister, formOpts...),
		},
		current: viewLogin,
	}
}

// ID returns the connection ID.
func (h *ConnectionHandler) ID() ulid.ULID {
	return h.connID
}

// Handle processes the connection until it is closed, the client quits or
// ctx is cancelled.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	done := make(chan struct{})
	defer func() {
		close(done)
		if err := h.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", "error", err)
		}
	}()

	h.send("Welcome to formgate!")
	h.showView()

	lineCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lineCh <- strings.TrimRight(line, "\r\n"):
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("connection read error", "error", err)
			}
			return

		case line := <-lineCh:
			h.processLine(ctx, line)
			if h.quitting {
				return
			}
		}
	}
}

func (h *ConnectionHandler) view() formView {
	return h.views[h.current]
}

func (h *ConnectionHandler) processLine(ctx context.Context, line string) {
	if len(h.pending) > 0 {
		h.acceptPrompt(ctx, strings.TrimSpace(line))
		return
	}

	cmd, arg := parseCommand(line)

	switch cmd {
	case "login":
		h.switchView(viewLogin)
	case "register":
		h.switchView(viewRegister)
	case "set":
		h.handleSet(arg)
	case "fill":
		h.handleFill()
	case "submit":
		h.handleSubmit(ctx)
	case "show":
		h.handleShow()
	case "help":
		h.handleHelp()
	case "quit":
		h.handleQuit()
	default:
		if cmd != "" {
			h.send("Unknown command: " + cmd + ". Type 'help' for commands.")
		}
	}
}

func (h *ConnectionHandler) switchView(name string) {
	h.current = name
	h.showView()
}

func (h *ConnectionHandler) showView() {
	v := h.view()
	h.send("== " + v.title() + " ==")
	h.send("Fields: " + strings.Join(v.fields(), ", "))
	h.send(v.hint())
	h.send("Type 'help' for commands.")
}

func (h *ConnectionHandler) handleSet(arg string) {
	if arg == "" {
		h.send("Usage: set <field> <value>")
		return
	}
	field, value := splitFieldValue(arg)
	if err := h.view().set(field, value); err != nil {
		if errutil.Code(err) == forms.CodeUnknownField {
			h.send(fmt.Sprintf("Unknown field: %s. Fields: %s", field, strings.Join(h.view().fields(), ", ")))
			return
		}
		errutil.LogError(h.logger, "set field failed", err)
		h.send("Error: could not set field.")
		return
	}
	h.send("OK.")
}

func (h *ConnectionHandler) handleFill() {
	h.pending = append([]string(nil), h.view().fields()...)
	h.prompt()
}

func (h *ConnectionHandler) prompt() {
	h.send(fieldPrompts[h.pending[0]] + ":")
}

func (h *ConnectionHandler) acceptPrompt(ctx context.Context, value string) {
	field := h.pending[0]
	h.pending = h.pending[1:]
	if err := h.view().set(field, value); err != nil {
		errutil.LogError(h.logger, "fill field failed", err)
	}
	if len(h.pending) > 0 {
		h.prompt()
		return
	}
	h.handleSubmit(ctx)
}

func (h *ConnectionHandler) handleSubmit(ctx context.Context) {
	v := h.view()
	msg, ok := v.submit(ctx)
	if ok {
		h.send(msg)
		return
	}
	h.send("Please fix the following:")
	errs := v.currentErrors()
	for _, field := range v.fields() {
		if m, has := errs[field]; has {
			h.send(fmt.Sprintf("  %s: %s", field, m))
		}
	}
}

func (h *ConnectionHandler) handleShow() {
	v := h.view()
	errs := v.currentErrors()
	h.send("== " + v.title() + " ==")
	for _, field := range v.fields() {
		val := v.value(field)
		if isSecret(field) {
			val = strings.Repeat("*", utf8.RuneCountInString(val))
		}
		line := fmt.Sprintf("  %s: %s", field, val)
		if m, has := errs[field]; has {
			line += " (" + m + ")"
		}
		h.send(line)
	}
}

func (h *ConnectionHandler) handleHelp() {
	h.send("Commands:")
	h.send("  login                 switch to the login form")
	h.send("  register              switch to the registration form")
	h.send("  set <field> <value>   set a field")
	h.send("  fill                  enter each field in turn, then submit")
	h.send("  submit                validate the current form")
	h.send("  show                  show field values and errors")
	h.send("  quit                  disconnect")
}

func (h *ConnectionHandler) handleQuit() {
	h.send("Goodbye!")
	h.quitting = true
}

func (h *ConnectionHandler) send(msg string) {
	if _, err := fmt.Fprintln(h.conn, msg); err != nil {
		h.logger.Debug("failed to send message to client", "error", err)
	}
}
