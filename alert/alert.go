// Package alert turns metric results into threshold alerts.
package alert

import (
	"fmt"
	"strings"

	"github.com/trustlens/trustlens/metrics"
)

// Level is the severity of an alert.
type Level int

const (
	OK Level = iota
	Info
	Warning
	Critical
)

func (l Level) String() string {
	switch l {
	case OK:
		return "OK"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	}
	return "unknown"
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "OK":
		*l = OK
	case "INFO":
		*l = Info
	case "WARNING":
		*l = Warning
	case "CRITICAL":
		*l = Critical
	default:
		return fmt.Errorf("unknown alert level '%s'", text)
	}
	return nil
}

func ParseLevel(s string) (l Level, err error) {
	err = l.UnmarshalText([]byte(s))
	return
}

// Thresholds are the limits a metrics.Result is judged against. A metric
// alerts only when it strictly exceeds its threshold.
type Thresholds struct {
	NullRate     float64
	StaleMinutes int
}

// DefaultThresholds matches the trigger API defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{NullRate: 0.2, StaleMinutes: 60}
}

// Message is one alert produced by Evaluate.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Evaluate checks res against t. The null-rate check always precedes the
// staleness check in the returned slice; callers may rely on that order.
// Absent metrics never alert.
func Evaluate(res metrics.Result, t Thresholds) []Message {
	var msgs []Message
	if res.NullRate != nil && *res.NullRate > t.NullRate {
		msgs = append(msgs, Message{
			Level: Warning,
			Text:  fmt.Sprintf("High null rate: %.1f%%", *res.NullRate*100),
		})
	}
	if res.MinutesSinceLastUpdate != nil && *res.MinutesSinceLastUpdate > t.StaleMinutes {
		msgs = append(msgs, Message{
			Level: Critical,
			Text:  fmt.Sprintf("Data stale: %d minutes since last update", *res.MinutesSinceLastUpdate),
		})
	}
	return msgs
}

// Combined formats the single notification body for a source: a header line
// naming the source followed by one alert per line.
func Combined(source string, msgs []Message) string {
	lines := make([]string, 0, len(msgs)+1)
	lines = append(lines, fmt.Sprintf("TrustLens Alert for %s:", source))
	for _, m := range msgs {
		lines = append(lines, m.Text)
	}
	return strings.Join(lines, "\n")
}
