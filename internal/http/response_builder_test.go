package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice/internal/documents"
	"backoffice/internal/services"
	"backoffice/internal/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad id", errBadRequest), http.StatusBadRequest},
		{&documents.ValidationError{}, http.StatusUnprocessableEntity},
		{services.ErrInvalidUser, http.StatusUnprocessableEntity},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{storage.ErrInvalidCredentials, http.StatusUnauthorized},
		{errForbidden, http.StatusForbidden},
		{fmt.Errorf("document booking/1: %w", storage.ErrNotFound), http.StatusNotFound},
		{documents.ErrUnknownKind, http.StatusNotFound},
		{documents.ErrLineNotFound, http.StatusNotFound},
		{storage.ErrVersionConflict, http.StatusConflict},
		{storage.ErrEmailExists, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorValidationProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &documents.ValidationError{Fields: []documents.FieldError{{Field: "Reference", Message: "is required"}}}
	writeError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != problemContentType {
		t.Fatalf("content type = %q", ct)
	}
	var p Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != http.StatusUnprocessableEntity || len(p.Errors) != 1 || p.Errors[0].Field != "Reference" {
		t.Fatalf("problem = %+v", p)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("sql: connection refused at 10.0.0.3"))

	var p Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != http.StatusInternalServerError || p.Detail != "" {
		t.Fatalf("problem = %+v", p)
	}
}

func TestWriteErrorUnauthorizedChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), services.ErrUnauthorized)
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("401 must carry a WWW-Authenticate challenge")
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]int{"id": 3})
	if rec.Code != http.StatusCreated || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status = %d, content type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "{\"id\":3}\n" {
		t.Fatalf("body = %q", rec.Body)
	}
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]float64{"total": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var p Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != http.StatusInternalServerError {
		t.Fatalf("problem = %+v", p)
	}
}
