// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package schema provides declarative validation of flat string records.
//
// A schema is built from field rule chains and optional cross-field
// refinements:
//
//	s := schema.Object(
//		schema.String("name").Min(3, "Must be 3 or more characters long"),
//		schema.String("email").Email("Invalid email address"),
//	).RefineEqual("confirm", "password", "Password don't match")
//
// Validate runs every field chain independently, keeping only the first
// failing rule of each field, then runs refinements. A refinement never
// replaces an issue already recorded for its field.
package schema

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Code classifies a validation issue.
type Code string

// Issue codes.
const (
	CodeTooShort      Code = "too_short"
	CodeInvalidFormat Code = "invalid_format"
	CodeMismatch      Code = "mismatch"
)

// Issue describes one violated rule on one field.
type Issue struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Min is the required minimum length for CodeTooShort issues.
	Min int `json:"min,omitempty"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Values holds raw field values keyed by field name. Missing keys read as "".
type Values map[string]string

// Errors maps a field name to the first issue found on it.
type Errors map[string]Issue

// Messages returns the field to message mapping shown to users.
func (e Errors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for field, issue := range e {
		out[field] = issue.Message
	}
	return out
}

// Fields returns the names of fields with issues, sorted.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Has reports whether field has an issue.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// validate is shared; validator.Validate is safe for concurrent use.
var validate = validator.New()

type check func(field, value string) (Issue, bool)

// StringField is a rule chain for one string field.
type StringField struct {
	name   string
	checks []check
}

// String starts a rule chain for the named field. A field with no rules
// accepts any value.
func String(name string) *StringField {
	return &StringField{name: name}
}

// Name returns the field name.
func (f *StringField) Name() string {
	return f.name
}

// Min requires at least n characters (Unicode code points).
func (f *StringField) Min(n int, message string) *StringField {
	f.checks = append(f.checks, func(field, value string) (Issue, bool) {
		if utf8.RuneCountInString(value) >= n {
			return Issue{}, true
		}
		return Issue{Field: field, Code: CodeTooShort, Message: message, Min: n}, false
	})
	return f
}

// Email requires value to be a syntactically valid email address.
func (f *StringField) Email(message string) *StringField {
	f.checks = append(f.checks, func(field, value string) (Issue, bool) {
		if validate.Var(value, "email") == nil {
			return Issue{}, true
		}
		return Issue{Field: field, Code: CodeInvalidFormat, Message: message}, false
	})
	return f
}

// check runs the chain in declaration order and stops at the first failure.
func (f *StringField) check(value string) (Issue, bool) {
	for _, c := range f.checks {
		if issue, ok := c(f.name, value); !ok {
			return issue, false
		}
	}
	return Issue{}, true
}

// Refinement is a rule over the whole record, reported against one field.
type Refinement struct {
	Field   string
	Code    Code
	Message string
	Check   func(Values) bool
}

// ObjectSchema validates a record of string fields.
type ObjectSchema struct {
	fields      []*StringField
	refinements []Refinement
}

// Object builds a schema from field chains. Field order is preserved and
// reported by FieldNames.
func Object(fields ...*StringField) *ObjectSchema {
	return &ObjectSchema{fields: fields}
}

// Refine adds a cross-field rule reported on field with the given code.
func (s *ObjectSchema) Refine(r Refinement) *ObjectSchema {
	s.refinements = append(s.refinements, r)
	return s
}

// RefineEqual requires field to equal other. Mismatches are reported on field.
func (s *ObjectSchema) RefineEqual(field, other, message string) *ObjectSchema {
	return s.Refine(Refinement{
		Field:   field,
		Code:    CodeMismatch,
		Message: message,
		Check: func(v Values) bool {
			return v[field] == v[other]
		},
	})
}

// FieldNames returns the declared field names in order.
func (s *ObjectSchema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// HasField reports whether name is a declared field.
func (s *ObjectSchema) HasField(name string) bool {
	for _, f := range s.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// Validate checks v against every rule. It returns nil when v is valid.
func (s *ObjectSchema) Validate(v Values) Errors {
	errs := Errors{}
	for _, f := range s.fields {
		if issue, ok := f.check(v[f.name]); !ok {
			errs[f.name] = issue
		}
	}
	for _, r := range s.refinements {
		if errs.Has(r.Field) || r.Check(v) {
			continue
		}
		errs[r.Field] = Issue{Field: r.Field, Code: r.Code, Message: r.Message}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
