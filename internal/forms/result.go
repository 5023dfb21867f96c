// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package forms

import "github.com/holomush/formgate/internal/schema"

// Result is the outcome of validating a form submission.
// Exactly one of Value (when Errors is empty) or Errors is meaningful.
type Result[T any] struct {
	Value  T
	Errors schema.Errors
}

// OK reports whether validation succeeded.
func (r Result[T]) OK() bool {
	return len(r.Errors) == 0
}

// Messages returns field to message pairs for a failed result.
func (r Result[T]) Messages() map[string]string {
	if r.OK() {
		return map[string]string{}
	}
	return r.Errors.Messages()
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failure[T any](errs schema.Errors) Result[T] {
	return Result[T]{Errors: errs}
}
