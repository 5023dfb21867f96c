// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package forms

import (
	"context"
	"log/slog"
)

// LogRegistration returns a completion handler that logs accepted
// registrations. The password is never logged.
func LogRegistration(logger *slog.Logger) CompletionHandler[ValidatedRegistration] {
	return func(ctx context.Context, reg ValidatedRegistration) {
		logger.InfoContext(ctx, "registration accepted",
			"name", reg.Name,
			"email", reg.Email,
		)
	}
}

// LogLogin returns a completion handler that logs accepted logins.
// The password is never logged.
func LogLogin(logger *slog.Logger) CompletionHandler[ValidatedLogin] {
	return func(ctx context.Context, login ValidatedLogin) {
		logger.InfoContext(ctx, "login accepted", "email", login.Email)
	}
}
