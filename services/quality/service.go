// Package quality computes data quality metrics over stored sources,
// evaluates them against alert thresholds and pushes notifications.
package quality

import (
	"log"
	"net/http"
	"strconv"

	"github.com/benbjohnson/clock"

	"github.com/trustlens/trustlens/alert"
	"github.com/trustlens/trustlens/metrics"
	"github.com/trustlens/trustlens/services/httpd"
	"github.com/trustlens/trustlens/services/slack"
	"github.com/trustlens/trustlens/services/storage"
	"github.com/trustlens/trustlens/table"
)

// DefaultSource is checked when a request names no source.
const DefaultSource = "csv"

type Service struct {
	c      Config
	logger *log.Logger
	eval   *metrics.Evaluator

	StoreService interface {
		Get(key string) (*table.Table, error)
	}
	SlackService interface {
		Send(message string) slack.Delivery
	}
	HTTPDService interface {
		AddRoutes([]httpd.Route) error
	}
}

func NewService(c Config, l *log.Logger, cl clock.Clock) *Service {
	return &Service{
		c:      c,
		logger: l,
		eval:   metrics.NewEvaluator(cl),
	}
}

func (s *Service) Open() error {
	return s.HTTPDService.AddRoutes([]httpd.Route{
		{
			Name:        "metrics-check",
			Method:      "GET",
			Pattern:     "/metrics/check",
			HandlerFunc: s.serveCheck,
		},
		{
			Name:        "alerts-trigger",
			Method:      "POST",
			Pattern:     "/alerts/trigger",
			HandlerFunc: s.serveTrigger,
		},
		{
			Name:        "alerts-test",
			Method:      "POST",
			Pattern:     "/alerts/test",
			HandlerFunc: s.serveTest,
		},
	})
}

func (s *Service) Close() error { return nil }

// evaluate looks up the source and computes its metrics, writing the
// response itself when anything goes wrong. A missing source is reported in
// the error envelope with a 200 status so demo clients can render it inline.
func (s *Service) evaluate(w http.ResponseWriter, source string) (metrics.Result, bool) {
	t, err := s.StoreService.Get(source)
	if err != nil {
		code := http.StatusInternalServerError
		if _, ok := err.(storage.NoDataError); ok {
			code = http.StatusOK
		}
		httpd.HttpError(w, err.Error(), true, code)
		return metrics.Result{}, false
	}
	res, err := s.eval.Evaluate(t)
	if err != nil {
		code := http.StatusInternalServerError
		if _, ok := err.(*table.ParseError); ok {
			code = http.StatusUnprocessableEntity
		}
		httpd.HttpError(w, err.Error(), true, code)
		return metrics.Result{}, false
	}
	return res, true
}

type checkResponse struct {
	Source  string         `json:"source"`
	Metrics metrics.Result `json:"metrics"`
}

func (s *Service) serveCheck(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = DefaultSource
	}
	res, ok := s.evaluate(w, source)
	if !ok {
		return
	}
	w.Write(httpd.MarshalJSON(checkResponse{Source: source, Metrics: res}, true))
}

type triggerResponse struct {
	Alerts []string `json:"alerts"`
	Slack  string   `json:"slack,omitempty"`
	Status string   `json:"status,omitempty"`
}

func (s *Service) serveTrigger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := q.Get("source")
	if source == "" {
		source = DefaultSource
	}

	th := s.c.thresholds()
	if v := q.Get("null_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httpd.HttpError(w, "invalid null_threshold: "+v, true, http.StatusBadRequest)
			return
		}
		th.NullRate = f
	}
	if v := q.Get("minutes_threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpd.HttpError(w, "invalid minutes_threshold: "+v, true, http.StatusBadRequest)
			return
		}
		th.StaleMinutes = n
	}

	res, ok := s.evaluate(w, source)
	if !ok {
		return
	}

	msgs := alert.Evaluate(res, th)
	if len(msgs) == 0 {
		w.Write(httpd.MarshalJSON(triggerResponse{Alerts: []string{}, Status: "all good"}, true))
		return
	}

	d := s.SlackService.Send(alert.Combined(source, msgs))
	if d.Err != nil {
		s.logger.Printf("E! slack delivery failed for source %q: %v", source, d.Err)
	}

	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	w.Write(httpd.MarshalJSON(triggerResponse{Alerts: texts, Slack: d.Outcome.String()}, true))
}

type testResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Service) serveTest(w http.ResponseWriter, r *http.Request) {
	d := s.SlackService.Send(slack.TestMessage)
	if d.Err != nil {
		s.logger.Printf("E! slack test delivery failed: %v", d.Err)
	}
	w.Write(httpd.MarshalJSON(testResponse{
		Status:  d.Outcome.String(),
		Message: slack.TestMessage,
	}, true))
}
