package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/documents/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/booking/7", nil))

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/documents/{kind}/{id}", "418"))
	if got != 1 {
		t.Fatalf("requests counter = %v, want 1", got)
	}
}

func TestObserveExport(t *testing.T) {
	m := NewMetrics()
	m.ObserveExport("upsert", time.Now(), nil)
	m.ObserveExport("upsert", time.Now(), errors.New("boom"))
	m.ObserveExport("delete", time.Now(), nil)

	if got := testutil.ToFloat64(m.exportsTotal.WithLabelValues("upsert", ResultFailure)); got != 1 {
		t.Fatalf("upsert failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.exportsTotal.WithLabelValues("delete", ResultSuccess)); got != 1 {
		t.Fatalf("delete successes = %v, want 1", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveExport("upsert", time.Now(), nil)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveExport("upsert", time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "backoffice_summary_exports_total") {
		t.Fatalf("metrics output missing export counter:\n%s", rec.Body.String())
	}

	var nilMetrics *Metrics
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil metrics status = %d", rec.Code)
	}
}
