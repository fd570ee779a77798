package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backoffice/internal/core"
	"backoffice/internal/documents"

	"github.com/go-chi/chi/v5"
)

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@b.c","password":"x"}`, false},
		{"empty body", ``, true},
		{"unknown field", `{"email":"a@b.c","admin":true}`, true},
		{"trailing value", `{"email":"a@b.c"} {"email":"d@e.f"}`, true},
		{"malformed", `{"email":`, true},
		{"too large", `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst loginRequest
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Fatalf("err = %v, want errBadRequest", err)
			}
		})
	}
}

func TestDocumentParams(t *testing.T) {
	tests := []struct {
		kind, id string
		wantKind documents.Kind
		wantID   int64
		wantErr  error
	}{
		{"bookings", "12", documents.KindBooking, 12, nil},
		{"invoice", "3", documents.KindInvoice, 3, nil},
		{"receipts", "3", "", 0, documents.ErrUnknownKind},
		{"accounting", "abc", "", 0, errBadRequest},
		{"accounting", "-4", "", 0, errBadRequest},
	}
	for _, tt := range tests {
		r := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"kind": tt.kind, "id": tt.id})
		kind, id, err := documentParams(r)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%s/%s: err = %v, want %v", tt.kind, tt.id, err, tt.wantErr)
			}
			continue
		}
		if err != nil || kind != tt.wantKind || id != tt.wantID {
			t.Errorf("%s/%s: got %s/%d err %v", tt.kind, tt.id, kind, id, err)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		query   string
		want    core.Currency
		wantErr bool
	}{
		{"", "", false},
		{"currency=usd", core.USD, false},
		{"currency=EGP", core.EGP, false},
		{"currency=EUR", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		got, err := parseCurrency(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseCurrency(%q) = %q, %v", tt.query, got, err)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", defaultSyncLimit, false},
		{"limit=10", 10, false},
		{"limit=100000", maxSyncLimit, false},
		{"limit=0", 0, true},
		{"limit=ten", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		got, err := parseLimit(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseLimit(%q) = %d, %v", tt.query, got, err)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := bearerToken(r); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
