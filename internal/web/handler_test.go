// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/internal/observability"
)

type completions struct {
	registrations []forms.ValidatedRegistration
	logins        []forms.ValidatedLogin
}

func newTestHandler(t *testing.T, opts ...Option) (*Handler, *completions, *observability.Metrics) {
	t.Helper()
	rec := &completions{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	base := []Option{
		WithMetrics(metrics),
		WithRegistrationHandler(func(_ context.Context, v forms.ValidatedRegistration) {
			rec.registrations = append(rec.registrations, v)
		}),
		WithLoginHandler(func(_ context.Context, v forms.ValidatedLogin) {
			rec.logins = append(rec.logins, v)
		}),
	}
	h, err := NewHandler(append(base, opts...)...)
	require.NoError(t, err)
	return h, rec, metrics
}

func doRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginPage(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rr := doRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Log In</title>")
	assert.Contains(t, body, `name="email" type="email"`)
	assert.Contains(t, body, `name="password" type="password"`)
	assert.Contains(t, body, `href="/register"`)
	assert.NotContains(t, body, `class="error"`)
}

func TestRegisterPage_LinksBackToLogin(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rr := doRequest(h, httptest.NewRequest(http.MethodGet, "/register", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Have an account?")
	assert.Contains(t, body, `<a href="/">Log In</a>`)
	for _, name := range []string{"name", "email", "password", "confirm"} {
		assert.Contains(t, body, `name="`+name+`"`)
	}
}

func TestRegisterSubmit_Failure(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	rr := doRequest(h, postForm("/register", url.Values{
		"name":     {"Al"},
		"email":    {"not-an-email"},
		"password": {"abc"},
		"confirm":  {"abd"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, forms.MessageNameTooShort)
	assert.Contains(t, body, forms.MessageInvalidEmail)
	assert.Contains(t, body, forms.MessagePasswordTooShort)
	assert.Contains(t, body, "Password don&#39;t match")
	assert.Contains(t, body, `value="Al"`, "name is re-populated")
	assert.Contains(t, body, `value="not-an-email"`, "email is re-populated")
	assert.NotContains(t, body, `value="abc"`, "password is not echoed")
	assert.NotContains(t, body, `value="abd"`, "confirm is not echoed")
	assert.Empty(t, rec.registrations)
}

func TestRegisterSubmit_Success(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	rr := doRequest(h, postForm("/register", url.Values{
		"name":     {"Alice"},
		"email":    {"alice@example.com"},
		"password": {"secret1"},
		"confirm":  {"secret1"},
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Welcome, Alice")
	assert.NotContains(t, rr.Body.String(), `class="error"`)
	require.Len(t, rec.registrations, 1)
	assert.Equal(t, forms.ValidatedRegistration{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
	}, rec.registrations[0])
}

func TestLoginSubmit(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		h, rec, _ := newTestHandler(t)

		rr := doRequest(h, postForm("/", url.Values{"email": {"bob@"}, "password": {"1234"}}))

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), forms.MessageInvalidEmail)
		assert.Contains(t, rr.Body.String(), forms.MessagePasswordTooShort)
		assert.Empty(t, rec.logins)
	})

	t.Run("success", func(t *testing.T) {
		h, rec, _ := newTestHandler(t)

		rr := doRequest(h, postForm("/", url.Values{"email": {"bob@example.com"}, "password": {"hunter2"}}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Logged in as bob@example.com")
		require.Len(t, rec.logins, 1)
		assert.Equal(t, "bob@example.com", rec.logins[0].Email)
	})
}

func TestRegisterAPI(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantBody   string
	}{
		{
			name: "valid",
			body: forms.RegistrationInput{
				Name: "Alice", Email: "alice@example.com", Password: "secret1", Confirm: "secret1",
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"name":"Alice","email":"alice@example.com"}}`,
		},
		{
			name: "only mismatch",
			body: forms.RegistrationInput{
				Name: "Alice", Email: "alice@example.com", Password: "secret1", Confirm: "secret2",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":{"confirm":"Password don't match"}}`,
		},
		{
			name:       "empty object",
			body:       map[string]string{},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: `{"errors":{
				"name":"Must be 3 or more characters long",
				"email":"Invalid email address",
				"password":"Must be 5 or more characters long"}}`,
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid_json"}`,
		},
		{
			name:       "non-string value",
			body:       `{"name": 5}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid_json"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t)

			rr := doRequest(h, postJSON(t, "/api/register", tt.body))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestRegisterAPI_NeverReturnsPassword(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	rr := doRequest(h, postJSON(t, "/api/register", forms.RegistrationInput{
		Name: "Alice", Email: "alice@example.com", Password: "secret1", Confirm: "secret1",
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret1")
	require.Len(t, rec.registrations, 1)
}

func TestLoginAPI(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	rr := doRequest(h, postJSON(t, "/api/login", forms.LoginInput{Email: "bob@example.com", Password: "hunter2"}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"email":"bob@example.com"}}`, rr.Body.String())
	assert.Len(t, rec.logins, 1)

	rr = doRequest(h, postJSON(t, "/api/login", forms.LoginInput{Email: "bob", Password: "hunter2"}))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"errors":{"email":"Invalid email address"}}`, rr.Body.String())
	assert.Len(t, rec.logins, 1, "completion handler not called on failure")
}

func TestRouting(t *testing.T) {
	h, _, _ := newTestHandler(t)

	assert.Equal(t, http.StatusNotFound, doRequest(h, httptest.NewRequest(http.MethodGet, "/nope", nil)).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(h, httptest.NewRequest(http.MethodGet, "/api/login", nil)).Code)
}

func TestHandler_RecordsMetrics(t *testing.T) {
	h, _, metrics := newTestHandler(t)

	doRequest(h, httptest.NewRequest(http.MethodGet, "/register", nil))
	doRequest(h, postJSON(t, "/api/register", forms.RegistrationInput{
		Name: "Al", Email: "alice@example.com", Password: "secret1", Confirm: "secret1",
	}))
	doRequest(h, postJSON(t, "/api/login", forms.LoginInput{Email: "bob@example.com", Password: "hunter2"}))

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.ConnectionsTotal.WithLabelValues(ConnectionType)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues("register", observability.OutcomeRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues("login", observability.OutcomeAccepted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FieldErrorsTotal.WithLabelValues("register", "name", "too_short")), 0)
}

func TestNewHandler_WithoutOptions(t *testing.T) {
	h, err := NewHandler()
	require.NoError(t, err)

	rr := doRequest(h, postJSON(t, "/api/login", forms.LoginInput{Email: "bob@example.com", Password: "hunter2"}))
	assert.Equal(t, http.StatusOK, rr.Code)
}
