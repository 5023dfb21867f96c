// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package forms

import "github.com/holomush/formgate/internal/schema"

// LoginInput is an untrusted login submission.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidatedLogin holds login credentials that passed every rule.
type ValidatedLogin struct {
	Email    string `json:"email"`
	Password string `json:"-"`
}

// LoginResult is the outcome of ValidateLogin.
type LoginResult = Result[ValidatedLogin]

var loginSchema = schema.Object(
	schema.String(FieldEmail).Email(MessageInvalidEmail),
	schema.String(FieldPassword).Min(MinPasswordLength, MessagePasswordTooShort),
)

// LoginSchema returns the login rule set.
func LoginSchema() *schema.ObjectSchema {
	return loginSchema
}

// ValidateLogin checks in against the login rules.
func ValidateLogin(in LoginInput) LoginResult {
	errs := loginSchema.Validate(schema.Values{
		FieldEmail:    in.Email,
		FieldPassword: in.Password,
	})
	if errs != nil {
		return failure[ValidatedLogin](errs)
	}
	return success(ValidatedLogin{Email: in.Email, Password: in.Password})
}

// Login is the login form definition used by controllers.
var Login = Definition[ValidatedLogin]{
	Name:   "login",
	Schema: loginSchema,
	Validate: func(v schema.Values) Result[ValidatedLogin] {
		return ValidateLogin(LoginInput{
			Email:    v[FieldEmail],
			Password: v[FieldPassword],
		})
	},
}
