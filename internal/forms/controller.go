// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package forms

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/formgate/internal/schema"
)

// CodeUnknownField is returned by BindField for names the form does not declare.
const CodeUnknownField = "FORM_UNKNOWN_FIELD"

// Definition describes a form: its name, field rules and how raw values
// become a validated record.
type Definition[T any] struct {
	Name     string
	Schema   *schema.ObjectSchema
	Validate func(schema.Values) Result[T]
}

// CompletionHandler receives the validated record after a successful submit.
type CompletionHandler[T any] func(ctx context.Context, value T)

// Observer is notified of every submit outcome.
type Observer interface {
	ObserveSubmit(form string, errs schema.Errors)
}

// State is the lifecycle position of a controller.
type State int

// Controller states.
const (
	StateIdle State = iota
	StateValidating
	StateIdleWithErrors
	StateIdleWithSuccess
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateIdleWithErrors:
		return "idle_with_errors"
	case StateIdleWithSuccess:
		return "idle_with_success"
	default:
		return "unknown"
	}
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger sets the logger used for submit outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets an observer notified on every submit.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Controller binds the fields of one form instance to its definition.
type Controller[T any] struct {
	id         ulid.ULID
	def        Definition[T]
	values     schema.Values
	errors     schema.Errors
	state      State
	onComplete CompletionHandler[T]
	logger     *slog.Logger
	observer   Observer
}

// NewController creates a controller for def. onComplete may be nil.
func NewController[T any](def Definition[T], onComplete CompletionHandler[T], opts ...Option) *Controller[T] {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	id := ulid.Make()
	return &Controller[T]{
		id:         id,
		def:        def,
		values:     schema.Values{},
		onComplete: onComplete,
		logger:     o.logger.With("form", def.Name, "form_id", id.String()),
		observer:   o.observer,
	}
}

// NewRegistrationController creates a controller for the registration form.
func NewRegistrationController(onComplete CompletionHandler[ValidatedRegistration], opts ...Option) *Controller[ValidatedRegistration] {
	return NewController(Registration, onComplete, opts...)
}

// NewLoginController creates a controller for the login form.
func NewLoginController(onComplete CompletionHandler[ValidatedLogin], opts ...Option) *Controller[ValidatedLogin] {
	return NewController(Login, onComplete, opts...)
}

// ID returns the controller instance ID.
func (c *Controller[T]) ID() ulid.ULID {
	return c.id
}

// FormName returns the name of the form definition.
func (c *Controller[T]) FormName() string {
	return c.def.Name
}

// Fields returns the form's field names in display order.
func (c *Controller[T]) Fields() []string {
	return c.def.Schema.FieldNames()
}

// State returns the current lifecycle state.
func (c *Controller[T]) State() State {
	return c.state
}

// BindField returns the handle for the named field.
func (c *Controller[T]) BindField(name string) (*Field, error) {
	if !c.def.Schema.HasField(name) {
		return nil, oops.Code(CodeUnknownField).
			With("form", c.def.Name).
			With("field", name).
			Errorf("form %q has no field %q", c.def.Name, name)
	}
	return &Field{name: name, store: c}, nil
}

// Submit validates the current field values. On success it clears errors,
// calls the completion handler and returns the record with true. On failure
// it replaces the current errors and returns false. Field values are kept
// in both cases.
func (c *Controller[T]) Submit(ctx context.Context) (T, bool) {
	c.state = StateValidating
	values := make(schema.Values, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	res := c.def.Validate(values)

	if c.observer != nil {
		c.observer.ObserveSubmit(c.def.Name, res.Errors)
	}

	if !res.OK() {
		c.errors = res.Errors
		c.state = StateIdleWithErrors
		c.logger.DebugContext(ctx, "form rejected", "fields", res.Errors.Fields())
		var zero T
		return zero, false
	}

	c.errors = nil
	c.state = StateIdleWithSuccess
	c.logger.DebugContext(ctx, "form accepted")
	if c.onComplete != nil {
		c.onComplete(ctx, res.Value)
	}
	return res.Value, true
}

// CurrentErrors returns the field messages of the last failed submit.
func (c *Controller[T]) CurrentErrors() map[string]string {
	if len(c.errors) == 0 {
		return map[string]string{}
	}
	return c.errors.Messages()
}

// Issues returns the full issues of the last failed submit.
func (c *Controller[T]) Issues() schema.Errors {
	out := make(schema.Errors, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

func (c *Controller[T]) value(name string) string {
	return c.values[name]
}

func (c *Controller[T]) setValue(name, value string) {
	c.values[name] = value
}

func (c *Controller[T]) errorFor(name string) string {
	return c.errors[name].Message
}

type fieldStore interface {
	value(name string) string
	setValue(name, value string)
	errorFor(name string) string
}

// Field is a bound form field.
type Field struct {
	name  string
	store fieldStore
}

// Name returns the field name.
func (f *Field) Name() string {
	return f.name
}

// Set records an edit.
func (f *Field) Set(value string) {
	f.store.setValue(f.name, value)
}

// Value returns the current value.
func (f *Field) Value() string {
	return f.store.value(f.name)
}

// Error returns the field's message from the last failed submit, or "".
func (f *Field) Error() string {
	return f.store.errorFor(f.name)
}
