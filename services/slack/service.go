// Package slack delivers notification text to a Slack incoming webhook.
// Delivery is best effort: one POST per message, no retries, no queueing.
package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// TestMessage is the fixed text sent by the alerts/test endpoint.
const TestMessage = "Test alert from TrustLens API"

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	Sent Outcome = iota
	NotConfigured
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case NotConfigured:
		return "not configured"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Delivery is the result of one Send call. NotConfigured is a valid non-error
// outcome; only Failed carries an underlying error.
type Delivery struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

type Service struct {
	logger *log.Logger
	url    string
	client *http.Client
}

func NewService(c Config, l *log.Logger) *Service {
	timeout := time.Duration(c.Timeout)
	if timeout <= 0 {
		timeout = time.Duration(DefaultTimeout)
	}
	return &Service{
		logger: l,
		url:    c.URL,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *Service) Open() error {
	if s.Configured() {
		s.logger.Println("I! Slack notifications enabled")
	} else {
		s.logger.Println("W! no Slack webhook configured, notifications will be dropped")
	}
	return nil
}

func (s *Service) Close() error { return nil }

// Configured reports whether a webhook destination is set.
func (s *Service) Configured() bool {
	return s.url != ""
}

// incoming-webhook body
type payload struct {
	Text string `json:"text"`
}

// Send makes at most one POST of {"text": message} to the configured webhook
// and reports what happened. It never panics the caller; network failures
// come back as a Failed delivery.
func (s *Service) Send(message string) Delivery {
	if !s.Configured() {
		s.logger.Println("W! dropping notification, no webhook configured")
		return Delivery{Outcome: NotConfigured}
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload{Text: message}); err != nil {
		return Delivery{Outcome: Failed, Err: err}
	}
	resp, err := s.client.Post(s.url, "application/json", &body)
	if err != nil {
		s.logger.Printf("E! webhook delivery failed: %v", err)
		return Delivery{Outcome: Failed, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		err := fmt.Errorf("webhook returned %s", resp.Status)
		s.logger.Printf("E! %v", err)
		return Delivery{Outcome: Failed, StatusCode: resp.StatusCode, Err: err}
	}
	return Delivery{Outcome: Sent, StatusCode: resp.StatusCode}
}
