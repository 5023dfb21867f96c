// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package forms defines the login and registration forms of formgate.
//
// # Validation
//
// ValidateRegistration and ValidateLogin are pure functions from raw input to
// a Result. A Result is either a success holding the validated record or a
// failure holding one message per offending field.
//
// # Controllers
//
// A Controller owns the field values of one rendered form:
//   - BindField - returns the handle a view uses to push edits and read values
//   - Submit - validates current values and invokes the completion handler on success
//   - CurrentErrors - the field errors of the last failed submit
//
// Controllers are not safe for concurrent use; each view instance creates its own.
package forms
