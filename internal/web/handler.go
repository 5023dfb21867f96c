// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web serves the login and registration forms over HTTP, as
// server-rendered HTML and as a JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/pkg/errutil"
)

const tracerName = "github.com/holomush/formgate/internal/web"

// ConnectionType is the metrics label for HTTP requests.
const ConnectionType = "web"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

//go:embed templates/*.html
var templateFS embed.FS

// Metrics receives submit outcomes and request counts.
type Metrics interface {
	forms.Observer
	ObserveConnection(kind string)
}

// Handler routes form pages and API calls.
type Handler struct {
	router     chi.Router
	logger     *slog.Logger
	metrics    Metrics
	tracer     trace.Tracer
	pages      map[string]*template.Template
	onRegister forms.CompletionHandler[forms.ValidatedRegistration]
	onLogin    forms.CompletionHandler[forms.ValidatedLogin]
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithRegistrationHandler sets the handler run for each accepted registration.
func WithRegistrationHandler(fn forms.CompletionHandler[forms.ValidatedRegistration]) Option {
	return func(h *Handler) {
		h.onRegister = fn
	}
}

// WithLoginHandler sets the handler run for each accepted login.
func WithLoginHandler(fn forms.CompletionHandler[forms.ValidatedLogin]) Option {
	return func(h *Handler) {
		h.onLogin = fn
	}
}

// NewHandler parses the page templates and builds the router.
func NewHandler(opts ...Option) (*Handler, error) {
	h := &Handler{
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.onRegister == nil {
		h.onRegister = forms.LogRegistration(h.logger)
	}
	if h.onLogin == nil {
		h.onLogin = forms.LogLogin(h.logger)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	h.pages = pages

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.countRequests)

	r.Get("/", h.handleLoginPage)
	r.Post("/", h.handleLoginSubmit)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegisterSubmit)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.handleLoginAPI)
		r.Post("/register", h.handleRegisterAPI)
	})

	h.router = r
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics != nil {
			h.metrics.ObserveConnection(ConnectionType)
		}
		next.ServeHTTP(w, r)
	})
}

// submit runs one form submission through a fresh controller.
func submit[T any](
	ctx context.Context,
	h *Handler,
	def forms.Definition[T],
	values map[string]string,
	onComplete forms.CompletionHandler[T],
) (*forms.Controller[T], T, bool, error) {
	ctx, span := h.tracer.Start(ctx, "form.submit",
		trace.WithAttributes(attribute.String("form.name", def.Name)))
	defer span.End()

	var observer forms.Observer
	if h.metrics != nil {
		observer = h.metrics
	}
	ctrl := forms.NewController(def, onComplete,
		forms.WithLogger(h.logger.With("request_id", middleware.GetReqID(ctx))),
		forms.WithObserver(observer),
	)
	for _, name := range ctrl.Fields() {
		field, err := ctrl.BindField(name)
		if err != nil {
			var zero T
			return nil, zero, false, err
		}
		field.Set(values[name])
	}

	value, ok := ctrl.Submit(ctx)
	span.SetAttributes(attribute.Bool("form.accepted", ok))
	if !ok {
		span.SetAttributes(attribute.StringSlice("form.invalid_fields", ctrl.Issues().Fields()))
	}
	return ctrl, value, ok, nil
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, loginPage, newPage(loginPage, forms.Login.Schema.FieldNames(), nil, nil))
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, registerPage, newPage(registerPage, forms.Registration.Schema.FieldNames(), nil, nil))
}

func (h *Handler) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	values, ok := h.postedValues(w, r, forms.Login.Schema.FieldNames())
	if !ok {
		return
	}
	ctrl, login, accepted, err := submit(r.Context(), h, forms.Login, values, h.onLogin)
	if err != nil {
		h.internalError(w, r, "login submit failed", err)
		return
	}
	if !accepted {
		h.render(w, r, http.StatusUnprocessableEntity, loginPage,
			newPage(loginPage, ctrl.Fields(), values, ctrl.CurrentErrors()))
		return
	}
	page := newPage(loginPage, ctrl.Fields(), nil, nil)
	page.Notice = "Logged in as " + login.Email
	h.render(w, r, http.StatusOK, loginPage, page)
}

func (h *Handler) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	values, ok := h.postedValues(w, r, forms.Registration.Schema.FieldNames())
	if !ok {
		return
	}
	ctrl, reg, accepted, err := submit(r.Context(), h, forms.Registration, values, h.onRegister)
	if err != nil {
		h.internalError(w, r, "registration submit failed", err)
		return
	}
	if !accepted {
		h.render(w, r, http.StatusUnprocessableEntity, registerPage,
			newPage(registerPage, ctrl.Fields(), values, ctrl.CurrentErrors()))
		return
	}
	page := newPage(registerPage, ctrl.Fields(), nil, nil)
	page.Notice = "Welcome, " + reg.Name
	h.render(w, r, http.StatusOK, registerPage, page)
}

func (h *Handler) handleLoginAPI(w http.ResponseWriter, r *http.Request) {
	values, ok := h.decodeJSON(w, r)
	if !ok {
		return
	}
	ctrl, login, accepted, err := submit(r.Context(), h, forms.Login, values, h.onLogin)
	if err != nil {
		h.internalError(w, r, "login submit failed", err)
		return
	}
	h.writeOutcome(w, r, login, accepted, ctrl.CurrentErrors())
}

func (h *Handler) handleRegisterAPI(w http.ResponseWriter, r *http.Request) {
	values, ok := h.decodeJSON(w, r)
	if !ok {
		return
	}
	ctrl, reg, accepted, err := submit(r.Context(), h, forms.Registration, values, h.onRegister)
	if err != nil {
		h.internalError(w, r, "registration submit failed", err)
		return
	}
	h.writeOutcome(w, r, reg, accepted, ctrl.CurrentErrors())
}

func (h *Handler) postedValues(w http.ResponseWriter, r *http.Request, names []string) (map[string]string, bool) {
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "bad form body", "error", err)
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return nil, false
	}
	values := make(map[string]string, len(names))
	for _, name := range names {
		values[name] = r.PostForm.Get(name)
	}
	return values, true
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var values map[string]string
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&values); err != nil {
		h.logger.DebugContext(r.Context(), "undecodable form body", "error", err)
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid_json"})
		return nil, false
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, true
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorsResponse struct {
	Errors map[string]string `json:"errors"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, value any, accepted bool, errs map[string]string) {
	if !accepted {
		h.writeJSON(w, r, http.StatusUnprocessableEntity, errorsResponse{Errors: errs})
		return
	}
	h.writeJSON(w, r, http.StatusOK, dataResponse{Data: value})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		errutil.LogErrorContext(r.Context(), h.logger, "failed to write response",
			oops.Code("WEB_WRITE_FAILED").Wrap(err))
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errutil.LogErrorContext(r.Context(), h.logger, msg, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
