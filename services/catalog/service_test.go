package catalog_test

import (
	"encoding/json"
	"expvar"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"github.com/trustlens/trustlens/services/catalog"
	"github.com/trustlens/trustlens/services/httpd"
)

func newTestHandler(t *testing.T, now time.Time) *httpd.Handler {
	t.Helper()
	c := httpd.NewConfig()
	c.LogEnabled = false
	c.GZIP = false
	statMap := &expvar.Map{}
	statMap.Init()
	l := log.New(io.Discard, "", 0)
	h := httpd.NewHandler(c, "test", statMap, l, l)

	mock := clock.NewMock()
	mock.Set(now)
	s := catalog.NewService(l, mock)
	s.HTTPDService = h
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestDataSources(t *testing.T) {
	now := time.Date(2025, 9, 9, 12, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/data-sources", nil))
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	var sources []catalog.DataSource
	if err := json.NewDecoder(w.Body).Decode(&sources); err != nil {
		t.Fatal(err)
	}
	exp := []catalog.DataSource{
		{ID: "1", Name: "Orders DB", Type: "postgres", Status: catalog.StatusHealthy, LastRun: "2025-09-09T12:00:00Z"},
		{ID: "2", Name: "Users API", Type: "api", Status: catalog.StatusWarning, LastRun: "2025-09-09T12:00:00Z"},
		{ID: "3", Name: "Inventory S3", Type: "s3", Status: catalog.StatusFailing, LastRun: "2025-09-09T12:00:00Z"},
		{ID: "4", Name: "Billing Warehouse", Type: "postgres", Status: catalog.StatusHealthy, LastRun: "2025-09-09T12:00:00Z"},
	}
	if !cmp.Equal(sources, exp) {
		t.Errorf("unexpected data sources:\n%s", cmp.Diff(exp, sources))
	}
}

func TestAlerts(t *testing.T) {
	now := time.Date(2025, 9, 9, 12, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/alerts", nil))
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	var records []catalog.AlertRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if got, exp := len(records), 3; got != exp {
		t.Fatalf("unexpected record count: got %d exp %d", got, exp)
	}
	if got, exp := records[0].Severity, catalog.SeverityHigh; got != exp {
		t.Errorf("unexpected severity: got %v exp %v", got, exp)
	}
	if got, exp := records[0].Message, "Orders freshness > 60 min"; got != exp {
		t.Errorf("unexpected message: got %q exp %q", got, exp)
	}
}

func TestAlerts_Limit(t *testing.T) {
	now := time.Date(2025, 9, 9, 12, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/alerts?limit=1", nil))
	var records []catalog.AlertRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if got, exp := len(records), 1; got != exp {
		t.Fatalf("unexpected record count: got %d exp %d", got, exp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/alerts?limit=nope", nil))
	if got, exp := w.Code, http.StatusBadRequest; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
}

func TestNullRateTrend(t *testing.T) {
	now := time.Date(2025, 9, 9, 12, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics/null-rate", nil))
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	var pts []catalog.TrendPoint
	if err := json.NewDecoder(w.Body).Decode(&pts); err != nil {
		t.Fatal(err)
	}
	if got, exp := len(pts), 30; got != exp {
		t.Fatalf("unexpected point count: got %d exp %d", got, exp)
	}
	// Oldest point is 29 minutes before now, newest is now.
	if got, exp := pts[0].T, "11:31"; got != exp {
		t.Errorf("unexpected first label: got %q exp %q", got, exp)
	}
	if got, exp := pts[29].T, "12:00"; got != exp {
		t.Errorf("unexpected last label: got %q exp %q", got, exp)
	}
	// The generator is deterministic.
	if got, exp := pts[0].NullRate, 0.0; got != exp {
		t.Errorf("unexpected first null rate: got %v exp %v", got, exp)
	}
	if got, exp := pts[1].NullRate, 7.3; got != exp {
		t.Errorf("unexpected second null rate: got %v exp %v", got, exp)
	}
	if got, exp := pts[0].FreshnessMin, 5; got != exp {
		t.Errorf("unexpected first freshness: got %d exp %d", got, exp)
	}
	if got, exp := pts[1].FreshnessMin, 9; got != exp {
		t.Errorf("unexpected second freshness: got %d exp %d", got, exp)
	}
	for _, p := range pts {
		if p.NullRate < 0 || p.NullRate > 21 {
			t.Errorf("null rate out of range: %v", p.NullRate)
		}
		if p.FreshnessMin < 5 || p.FreshnessMin >= 125 {
			t.Errorf("freshness out of range: %d", p.FreshnessMin)
		}
	}
}
