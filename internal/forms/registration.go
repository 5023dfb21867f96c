// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package forms

import "github.com/holomush/formgate/internal/schema"

// Field names shared by the login and registration forms.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldConfirm  = "confirm"
)

// Length constraints.
const (
	MinNameLength     = 3
	MinPasswordLength = 5
)

// User-facing messages.
const (
	MessageNameTooShort     = "Must be 3 or more characters long"
	MessageInvalidEmail     = "Invalid email address"
	MessagePasswordTooShort = "Must be 5 or more characters long"
	// MessagePasswordMismatch keeps the wording existing clients match on.
	MessagePasswordMismatch = "Password don't match"
)

// RegistrationInput is an untrusted registration submission.
type RegistrationInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// ValidatedRegistration is a registration that passed every rule.
type ValidatedRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// RegistrationResult is the outcome of ValidateRegistration.
type RegistrationResult = Result[ValidatedRegistration]

var registrationSchema = schema.Object(
	schema.String(FieldName).Min(MinNameLength, MessageNameTooShort),
	schema.String(FieldEmail).Email(MessageInvalidEmail),
	schema.String(FieldPassword).Min(MinPasswordLength, MessagePasswordTooShort),
	schema.String(FieldConfirm),
).RefineEqual(FieldConfirm, FieldPassword, MessagePasswordMismatch)

// RegistrationSchema returns the registration rule set.
func RegistrationSchema() *schema.ObjectSchema {
	return registrationSchema
}

func (in RegistrationInput) values() schema.Values {
	return schema.Values{
		FieldName:     in.Name,
		FieldEmail:    in.Email,
		FieldPassword: in.Password,
		FieldConfirm:  in.Confirm,
	}
}

// ValidateRegistration checks in against the registration rules.
func ValidateRegistration(in RegistrationInput) RegistrationResult {
	if errs := registrationSchema.Validate(in.values()); errs != nil {
		return failure[ValidatedRegistration](errs)
	}
	return success(ValidatedRegistration{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
}

// Registration is the registration form definition used by controllers.
var Registration = Definition[ValidatedRegistration]{
	Name:   "register",
	Schema: registrationSchema,
	Validate: func(v schema.Values) Result[ValidatedRegistration] {
		return ValidateRegistration(RegistrationInput{
			Name:     v[FieldName],
			Email:    v[FieldEmail],
			Password: v[FieldPassword],
			Confirm:  v[FieldConfirm],
		})
	},
}
