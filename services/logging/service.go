// Package logging hands out prefixed loggers to the other services, filtered
// through a single process-wide level.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/influxdata/wlog"
)

// Interface for creating new loggers.
type Interface interface {
	NewLogger(prefix string, flag int) *log.Logger
	NewRawLogger(prefix string, flag int) *log.Logger
}

type Service struct {
	c Config

	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	writer io.Writer
	closer io.Closer
}

func NewService(c Config, stdout, stderr io.Writer) *Service {
	return &Service{
		c:      c,
		stdout: stdout,
		stderr: stderr,
	}
}

func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.c.File {
	case "STDERR":
		s.writer = s.stderr
	case "STDOUT":
		s.writer = s.stdout
	default:
		dir := filepath.Dir(s.c.File)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		f, err := os.OpenFile(s.c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return err
		}
		s.writer = f
		s.closer = f
	}

	if err := wlog.SetLevelFromName(s.c.Level); err != nil {
		return fmt.Errorf("invalid logging level %q: %s", s.c.Level, err)
	}
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// NewLogger returns a logger whose lines are filtered by the global level.
// Messages carry a level prefix: "D!", "I!", "W!" or "E!".
func (s *Service) NewLogger(prefix string, flag int) *log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return log.New(wlog.NewWriter(s.writer), prefix, flag)
}

// NewRawLogger bypasses level filtering. The HTTP access log uses it since
// access lines carry no level prefix.
func (s *Service) NewRawLogger(prefix string, flag int) *log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return log.New(s.writer, prefix, flag)
}
