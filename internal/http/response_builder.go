// Package http serves the back-office JSON API.
//
// This file builds JSON responses and RFC 7807 problem details, and maps the
// domain's sentinel errors onto status codes.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"backoffice/internal/documents"
	"backoffice/internal/log"
	"backoffice/internal/services"
	"backoffice/internal/storage"
)

const problemContentType = "application/problem+json"

// Problem is an RFC 7807 problem detail.
type Problem struct {
	Type   string                 `json:"type"`
	Title  string                 `json:"title"`
	Status int                    `json:"status"`
	Detail string                 `json:"detail,omitempty"`
	Errors []documents.FieldError `json:"errors,omitempty"`
}

// NewProblem creates a problem whose title is the status text.
func NewProblem(status int, detail string) *Problem {
	return &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// writeJSON encodes v before committing status, so a value that cannot be
// encoded turns into a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, fmt.Errorf("encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// errBadRequest marks malformed input caught before the domain sees it.
var errBadRequest = errors.New("bad request")

var errForbidden = errors.New("forbidden")

// statusFor maps an error onto the status code the API answers with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, documents.ErrInvalid), errors.Is(err, services.ErrInvalidUser):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, storage.ErrInvalidCredentials),
		errors.Is(err, storage.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, documents.ErrUnknownKind),
		errors.Is(err, documents.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrVersionConflict), errors.Is(err, storage.ErrEmailExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the problem matching err. Internal errors are
// logged and their detail withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		NewProblem(status, "").Write(w)
		return
	}

	p := NewProblem(status, err.Error())
	var verr *documents.ValidationError
	if errors.As(err, &verr) {
		p.Detail = "one or more fields are invalid"
		p.Errors = verr.Fields
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="backoffice"`)
	}
	p.Write(w)
}
