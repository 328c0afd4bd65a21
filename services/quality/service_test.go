package quality_test

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

	"github.com/trustlens/trustlens/services/httpd"
	"github.com/trustlens/trustlens/services/ingest"
	"github.com/trustlens/trustlens/services/quality"
	"github.com/trustlens/trustlens/services/slack"
	"github.com/trustlens/trustlens/services/storage"
	"github.com/trustlens/trustlens/table"
)

// slackRecorder satisfies the quality service's Slack dependency.
type slackRecorder struct {
	outcome  slack.Outcome
	messages []string
}

func (r *slackRecorder) Send(message string) slack.Delivery {
	r.messages = append(r.messages, message)
	return slack.Delivery{Outcome: r.outcome}
}

type fixture struct {
	handler *httpd.Handler
	store   *storage.Service
	slack   *slackRecorder
}

func newFixture(t *testing.T, now time.Time) *fixture {
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

	store := storage.NewService(l)
	rec := &slackRecorder{outcome: slack.Sent}

	s := quality.NewService(quality.NewConfig(), l, mock)
	s.StoreService = store
	s.SlackService = rec
	s.HTTPDService = h
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	return &fixture{handler: h, store: store, slack: rec}
}

func (f *fixture) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return w, body
}

func TestCheck(t *testing.T) {
	now := time.Date(2025, 9, 9, 0, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.store.Put("demo", ingest.DemoTable())

	w, body := f.do(t, "GET", "/metrics/check?source=demo")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	if got, exp := body["source"], "demo"; got != exp {
		t.Errorf("unexpected source: got %v exp %v", got, exp)
	}
	m, ok := body["metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected metrics object, got %v", body["metrics"])
	}
	if got, exp := m["null_rate"], 0.167; got != exp {
		t.Errorf("unexpected null rate: got %v exp %v", got, exp)
	}
	if got, exp := m["minutes_since_last_update"], float64(30); got != exp {
		t.Errorf("unexpected freshness: got %v exp %v", got, exp)
	}
}

func TestCheck_NoData(t *testing.T) {
	now := time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	// The default source is csv and nothing has been ingested yet. Demo
	// clients render this inline, so the envelope rides a 200.
	w, body := f.do(t, "GET", "/metrics/check")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	if got, exp := body["error"], "No data loaded for source 'csv'"; got != exp {
		t.Errorf("unexpected error: got %v exp %v", got, exp)
	}
}

func TestCheck_BadTimestamp(t *testing.T) {
	now := time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	tbl, err := table.New(
		table.Column{Name: "id", Values: []table.Value{table.String("1")}},
		table.Column{Name: "updated_at", Values: []table.Value{table.String("yesterday")}},
	)
	if err != nil {
		t.Fatal(err)
	}
	f.store.Put("csv", tbl)

	w, _ := f.do(t, "GET", "/metrics/check")
	if got, exp := w.Code, http.StatusUnprocessableEntity; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
}

func TestTrigger_AllGood(t *testing.T) {
	// Thirty minutes after the newest demo timestamp, null rate 0.167 is
	// under the default 0.2 and staleness is under 60.
	now := time.Date(2025, 9, 9, 0, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.store.Put("demo", ingest.DemoTable())

	w, body := f.do(t, "POST", "/alerts/trigger?source=demo")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	if got, exp := body["status"], "all good"; got != exp {
		t.Errorf("unexpected status field: got %v exp %v", got, exp)
	}
	alerts, ok := body["alerts"].([]interface{})
	if !ok || len(alerts) != 0 {
		t.Errorf("expected empty alerts, got %v", body["alerts"])
	}
	if len(f.slack.messages) != 0 {
		t.Errorf("no notification expected, got %v", f.slack.messages)
	}
}

func TestTrigger_Alerts(t *testing.T) {
	// Three days after the newest demo timestamp the data is stale, and the
	// lowered null-rate threshold trips as well.
	now := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.store.Put("demo", ingest.DemoTable())

	w, body := f.do(t, "POST", "/alerts/trigger?source=demo&null_threshold=0.1")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	alerts, ok := body["alerts"].([]interface{})
	if !ok || len(alerts) != 2 {
		t.Fatalf("expected two alerts, got %v", body["alerts"])
	}
	if got, exp := alerts[0], "High null rate: 16.7%"; got != exp {
		t.Errorf("unexpected alert: got %v exp %v", got, exp)
	}
	if got, exp := alerts[1], "Data stale: 4320 minutes since last update"; got != exp {
		t.Errorf("unexpected alert: got %v exp %v", got, exp)
	}
	if got, exp := body["slack"], "sent"; got != exp {
		t.Errorf("unexpected delivery outcome: got %v exp %v", got, exp)
	}
	if len(f.slack.messages) != 1 {
		t.Fatalf("expected one notification, got %v", f.slack.messages)
	}
	exp := "TrustLens Alert for demo:\nHigh null rate: 16.7%\nData stale: 4320 minutes since last update"
	if got := f.slack.messages[0]; got != exp {
		t.Errorf("unexpected notification:\ngot %q\nexp %q", got, exp)
	}
}

func TestTrigger_NotConfigured(t *testing.T) {
	now := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.slack.outcome = slack.NotConfigured
	f.store.Put("csv", ingest.DemoTable())

	w, body := f.do(t, "POST", "/alerts/trigger")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	if got, exp := body["slack"], "not configured"; got != exp {
		t.Errorf("unexpected delivery outcome: got %v exp %v", got, exp)
	}
}

func TestTrigger_BadThresholds(t *testing.T) {
	now := time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	w, _ := f.do(t, "POST", "/alerts/trigger?null_threshold=high")
	if got, exp := w.Code, http.StatusBadRequest; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	w, _ = f.do(t, "POST", "/alerts/trigger?minutes_threshold=1.5")
	if got, exp := w.Code, http.StatusBadRequest; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
}

func TestTrigger_NoData(t *testing.T) {
	now := time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	w, body := f.do(t, "POST", "/alerts/trigger")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	if got, exp := body["error"], "No data loaded for source 'csv'"; got != exp {
		t.Errorf("unexpected error: got %v exp %v", got, exp)
	}
	if len(f.slack.messages) != 0 {
		t.Errorf("no notification expected, got %v", f.slack.messages)
	}
}

func TestTest(t *testing.T) {
	now := time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	w, body := f.do(t, "POST", "/alerts/test")
	if got, exp := w.Code, http.StatusOK; got != exp {
		t.Fatalf("unexpected status: got %d exp %d", got, exp)
	}
	if got, exp := body["status"], "sent"; got != exp {
		t.Errorf("unexpected status: got %v exp %v", got, exp)
	}
	if got, exp := body["message"], slack.TestMessage; got != exp {
		t.Errorf("unexpected message: got %v exp %v", got, exp)
	}
	if len(f.slack.messages) != 1 || f.slack.messages[0] != slack.TestMessage {
		t.Errorf("unexpected notification: %v", f.slack.messages)
	}
}
