package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" warning ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf})

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}

	logger.Info("exported", NewFields().WithOperation(OpExport).WithDocument(4, "booking", 2).ToSlice()...)
	entry := decodeLine(t, &buf)
	if entry[FieldComponent] != ComponentWorker {
		t.Errorf("component = %v", entry[FieldComponent])
	}
	if entry[FieldOperation] != OpExport || entry[FieldKind] != "booking" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry[FieldVersion] != float64(2) {
		t.Errorf("version = %v", entry[FieldVersion])
	}
}

func TestWithComponentKeepsHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf}).WithComponent(ComponentAMQP)
	if logger.Component() != ComponentAMQP {
		t.Fatalf("component = %q", logger.Component())
	}
	logger.With(FieldCount, 3).Info("batch")
	entry := decodeLine(t, &buf)
	if entry[FieldComponent] != ComponentAMQP || entry[FieldCount] != float64(3) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestFieldsSkipEmpty(t *testing.T) {
	f := NewFields().WithRequestID("").WithError(nil).WithDocument(1, "invoice", 0)
	if _, ok := f[FieldRequestID]; ok {
		t.Error("empty request id must be skipped")
	}
	if _, ok := f[FieldError]; ok {
		t.Error("nil error must be skipped")
	}
	if _, ok := f[FieldVersion]; ok {
		t.Error("zero version must be skipped")
	}
	f = f.WithError(errors.New("boom"))
	if f[FieldError] != "boom" {
		t.Errorf("error = %v", f[FieldError])
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice length = %d", got)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must never return nil")
	}
	want := New(Config{Component: ComponentHTTP})
	if got := FromContext(NewContext(context.Background(), want)); got != want {
		t.Fatal("FromContext did not return the stored logger")
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Component: ComponentHTTP, Output: &buf})

	var sawLogger bool
	h := middleware.RequestID(Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawLogger = r.Context().Value(LoggerContextKey).(*Logger)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/booking/9?currency=USD", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !sawLogger {
		t.Error("handler did not receive a request logger")
	}
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 404", entry["level"])
	}
	if entry[FieldStatusCode] != float64(http.StatusNotFound) || entry[FieldSuccess] != false {
		t.Errorf("unexpected status fields %v", entry)
	}
	if entry[FieldPath] != "/api/documents/booking/9" || entry[FieldQuery] != "currency=USD" {
		t.Errorf("unexpected request fields %v", entry)
	}
	if entry[FieldRequestID] == "" || entry[FieldRequestID] == nil {
		t.Error("request id missing")
	}
}
