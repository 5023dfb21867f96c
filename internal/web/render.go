// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/pkg/errutil"
)

const (
	loginPage    = "login"
	registerPage = "register"
)

var pageTitles = map[string]string{
	loginPage:    "Log In",
	registerPage: "Register",
}

var fieldLabels = map[string]string{
	forms.FieldName:     "Name",
	forms.FieldEmail:    "Email",
	forms.FieldPassword: "Password",
	forms.FieldConfirm:  "Confirm Password",
}

type fieldView struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

type pageData struct {
	Title  string
	Notice string
	Fields []fieldView
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageTitles))
	for name := range pageTitles {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, oops.Code("WEB_TEMPLATE_PARSE_FAILED").With("page", name).Wrap(err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// newPage lays out the named fields. Password inputs never echo a value.
func newPage(page string, names []string, values, errs map[string]string) pageData {
	fields := make([]fieldView, 0, len(names))
	for _, name := range names {
		fv := fieldView{
			Name:  name,
			Label: fieldLabels[name],
			Type:  inputType(name),
			Error: errs[name],
		}
		if fv.Type != "password" {
			fv.Value = values[name]
		}
		fields = append(fields, fv)
	}
	return pageData{Title: pageTitles[page], Fields: fields}
}

func inputType(name string) string {
	switch name {
	case forms.FieldPassword, forms.FieldConfirm:
		return "password"
	case forms.FieldEmail:
		return "email"
	default:
		return "text"
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		errutil.LogErrorContext(r.Context(), h.logger, "failed to render page",
			oops.Code("WEB_RENDER_FAILED").With("page", page).Wrap(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect mid-write
	w.Write(buf.Bytes())
}
