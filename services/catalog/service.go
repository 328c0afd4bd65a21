// Package catalog serves the demo read-only collections: registered data
// sources, recent alert records and a null-rate trend. The data is mock:
// fixed records and a deterministic synthetic trend, independent of the
// tabular store.
package catalog

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/trustlens/trustlens/services/httpd"
)

// Status of a mock data source.
type Status string

const (
	StatusHealthy Status = "healthy"
	StatusWarning Status = "warning"
	StatusFailing Status = "failing"
)

// Severity of a mock alert record.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type DataSource struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Status  Status `json:"status"`
	LastRun string `json:"lastRun"`
}

type AlertRecord struct {
	ID        int      `json:"id"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	CreatedAt string   `json:"created_at"`
}

type TrendPoint struct {
	T            string  `json:"t"`
	NullRate     float64 `json:"nullRate"`
	FreshnessMin int     `json:"freshnessMin"`
}

const (
	defaultAlertLimit = 20
	trendPoints       = 30
)

type Service struct {
	logger *log.Logger
	clock  clock.Clock

	HTTPDService interface {
		AddRoutes([]httpd.Route) error
	}
}

func NewService(l *log.Logger, c clock.Clock) *Service {
	if c == nil {
		c = clock.New()
	}
	return &Service{logger: l, clock: c}
}

func (s *Service) Open() error {
	return s.HTTPDService.AddRoutes([]httpd.Route{
		{
			Name:        "data-sources",
			Method:      "GET",
			Pattern:     "/data-sources",
			HandlerFunc: s.serveDataSources,
		},
		{
			Name:        "alert-history",
			Method:      "GET",
			Pattern:     "/alerts",
			HandlerFunc: s.serveAlerts,
		},
		{
			Name:        "null-rate-trend",
			Method:      "GET",
			Pattern:     "/metrics/null-rate",
			HandlerFunc: s.serveNullRateTrend,
		},
	})
}

func (s *Service) Close() error { return nil }

func (s *Service) now() string {
	return s.clock.Now().UTC().Format(time.RFC3339)
}

func (s *Service) serveDataSources(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	sources := []DataSource{
		{ID: "1", Name: "Orders DB", Type: "postgres", Status: StatusHealthy, LastRun: now},
		{ID: "2", Name: "Users API", Type: "api", Status: StatusWarning, LastRun: now},
		{ID: "3", Name: "Inventory S3", Type: "s3", Status: StatusFailing, LastRun: now},
		{ID: "4", Name: "Billing Warehouse", Type: "postgres", Status: StatusHealthy, LastRun: now},
	}
	w.Write(httpd.MarshalJSON(sources, true))
}

func (s *Service) serveAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpd.HttpError(w, "invalid limit: "+v, true, http.StatusBadRequest)
			return
		}
		limit = n
	}

	now := s.now()
	records := []AlertRecord{
		{ID: 1, Severity: SeverityHigh, Message: "Orders freshness > 60 min", CreatedAt: now},
		{ID: 2, Severity: SeverityMedium, Message: "Email NULL rate spiked", CreatedAt: now},
		{ID: 3, Severity: SeverityLow, Message: "Inventory sync delayed", CreatedAt: now},
	}
	if limit < len(records) {
		records = records[:limit]
	}
	w.Write(httpd.MarshalJSON(records, true))
}

// serveNullRateTrend returns one synthetic point per minute for the last
// trendPoints minutes. The window parameter is accepted but the generator
// always produces the same shape the demo dashboard expects.
func (s *Service) serveNullRateTrend(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now().UTC()
	pts := make([]TrendPoint, 0, trendPoints)
	for i := 0; i < trendPoints; i++ {
		ts := now.Add(-time.Duration(trendPoints-1-i) * time.Minute)
		pts = append(pts, TrendPoint{
			T:            ts.Format("15:04"),
			NullRate:     round1(float64((i*7)%21) + float64(i%3)*0.3),
			FreshnessMin: (i*4)%120 + 5,
		})
	}
	w.Write(httpd.MarshalJSON(pts, true))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
