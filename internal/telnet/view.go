// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package telnet

import (
	"context"

	"github.com/holomush/formgate/internal/forms"
)

const (
	viewLogin    = "login"
	viewRegister = "register"
)

// formView adapts a typed forms.Controller to the line protocol.
type formView interface {
	title() string
	hint() string
	fields() []string
	set(field, value string) error
	value(field string) string
	submit(ctx context.Context) (message string, ok bool)
	currentErrors() map[string]string
}

type controllerView[T any] struct {
	ctrl     *forms.Controller[T]
	heading  string
	footer   string
	accepted func(T) string
}

func (v *controllerView[T]) title() string {
	return v.heading
}

func (v *controllerView[T]) hint() string {
	return v.footer
}

func (v *controllerView[T]) fields() []string {
	return v.ctrl.Fields()
}

func (v *controllerView[T]) set(field, value string) error {
	f, err := v.ctrl.BindField(field)
	if err != nil {
		return err
	}
	f.Set(value)
	return nil
}

func (v *controllerView[T]) value(field string) string {
	f, err := v.ctrl.BindField(field)
	if err != nil {
		return ""
	}
	return f.Value()
}

func (v *controllerView[T]) submit(ctx context.Context) (string, bool) {
	rec, ok := v.ctrl.Submit(ctx)
	if !ok {
		return "", false
	}
	return v.accepted(rec), true
}

func (v *controllerView[T]) currentErrors() map[string]string {
	return v.ctrl.CurrentErrors()
}

func newLoginView(onComplete forms.CompletionHandler[forms.ValidatedLogin], opts ...forms.Option) formView {
	return &controllerView[forms.ValidatedLogin]{
		ctrl:    forms.NewLoginController(onComplete, opts...),
		heading: "Log In",
		footer:  "Need an account? Type 'register'.",
		accepted: func(l forms.ValidatedLogin) string {
			return "Logged in as " + l.Email + "."
		},
	}
}

func newRegisterView(onComplete forms.CompletionHandler[forms.ValidatedRegistration], opts ...forms.Option) formView {
	return &controllerView[forms.ValidatedRegistration]{
		ctrl:    forms.NewRegistrationController(onComplete, opts...),
		heading: "Register",
		footer:  "Have an account? Type 'login' to log in.",
		accepted: func(r forms.ValidatedRegistration) string {
			return "Welcome, " + r.Name + "! Registered " + r.Email + "."
		},
	}
}

var fieldPrompts = map[string]string{
	forms.FieldName:     "Name",
	forms.FieldEmail:    "Email",
	forms.FieldPassword: "Password",
	forms.FieldConfirm:  "Confirm Password",
}

func isSecret(field string) bool {
	return field == forms.FieldPassword || field == forms.FieldConfirm
}
