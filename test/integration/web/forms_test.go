// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/internal/observability"
)

func readBody(resp *http.Response) string {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

func postJSON(path string, body any) (*http.Response, map[string]any) {
	raw, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	resp, err := http.Post(env.baseURL+path, "application/json", bytes.NewReader(raw))
	Expect(err).NotTo(HaveOccurred())

	var decoded map[string]any
	Expect(json.Unmarshal([]byte(readBody(resp)), &decoded)).To(Succeed())
	return resp, decoded
}

var _ = Describe("Registration over HTTP", func() {
	It("rejects the empty form without flagging confirm", func() {
		resp, body := postJSON("/api/register", map[string]string{})

		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		Expect(body["errors"]).To(HaveKeyWithValue("name", forms.MessageNameTooShort))
		Expect(body["errors"]).To(HaveKeyWithValue("email", forms.MessageInvalidEmail))
		Expect(body["errors"]).To(HaveKeyWithValue("password", forms.MessagePasswordTooShort))
		Expect(body["errors"]).NotTo(HaveKey("confirm"))
	})

	It("reports a mismatch on confirm", func() {
		resp, body := postJSON("/api/register", forms.RegistrationInput{
			Name: "Alice", Email: "alice@example.com", Password: "secret1", Confirm: "secret2",
		})

		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		Expect(body["errors"]).To(Equal(map[string]any{"confirm": forms.MessagePasswordMismatch}))
	})

	It("accepts a valid registration and omits the password", func() {
		resp, body := postJSON("/api/register", forms.RegistrationInput{
			Name: "Alice", Email: "alice@example.com", Password: "secret1", Confirm: "secret1",
		})

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["data"]).To(Equal(map[string]any{"name": "Alice", "email": "alice@example.com"}))
	})

	It("renders inline errors for a failed HTML submit", func() {
		resp, err := http.PostForm(env.baseURL+"/register", url.Values{
			"name": {"Al"}, "email": {"a@b.com"}, "password": {"secret1"}, "confirm": {"secret1"},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		html := readBody(resp)
		Expect(html).To(ContainSubstring(forms.MessageNameTooShort))
		Expect(html).To(ContainSubstring(`href="/"`))
	})
})

var _ = Describe("Login over HTTP", func() {
	It("serves the login page at the root", func() {
		resp, err := http.Get(env.baseURL + "/")
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(readBody(resp)).To(ContainSubstring(`href="/register"`))
	})

	It("accepts valid credentials", func() {
		before := testutil.ToFloat64(env.metrics.SubmissionsTotal.WithLabelValues("login", observability.OutcomeAccepted))

		resp, body := postJSON("/api/login", forms.LoginInput{Email: "bob@example.com", Password: "hunter2"})

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["data"]).To(Equal(map[string]any{"email": "bob@example.com"}))
		after := testutil.ToFloat64(env.metrics.SubmissionsTotal.WithLabelValues("login", observability.OutcomeAccepted))
		Expect(after - before).To(BeNumerically("==", 1))
	})

	It("returns invalid_json for garbage bodies", func() {
		resp, err := http.Post(env.baseURL+"/api/login", "application/json", bytes.NewBufferString("{"))
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(readBody(resp)).To(MatchJSON(`{"error":"invalid_json"}`))
	})
})
