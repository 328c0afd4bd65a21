// Package storage is the in-memory tabular store. It maps a source key to
// the most recently ingested table; a re-ingest replaces the table wholesale.
// Nothing survives a process restart.
package storage

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/trustlens/trustlens/table"
)

// NoDataError reports a source key with nothing ingested under it.
type NoDataError struct {
	Source string
}

func (e NoDataError) Error() string {
	return fmt.Sprintf("No data loaded for source '%s'", e.Source)
}

type Service struct {
	logger *log.Logger

	mu      sync.RWMutex
	sources map[string]*table.Table
}

func NewService(l *log.Logger) *Service {
	return &Service{
		logger:  l,
		sources: make(map[string]*table.Table),
	}
}

func (s *Service) Open() error { return nil }

func (s *Service) Close() error { return nil }

// Put replaces whatever was stored under key. Concurrent writers to the same
// key race; last write wins.
func (s *Service) Put(key string, t *table.Table) {
	s.mu.Lock()
	s.sources[key] = t
	s.mu.Unlock()
	s.logger.Printf("I! stored source %q: %d rows, %d columns", key, t.NumRows(), t.NumCols())
}

// Get returns the table stored under key, or a NoDataError.
func (s *Service) Get(key string) (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.sources[key]
	if !ok {
		return nil, NoDataError{Source: key}
	}
	return t, nil
}

// Sources lists ingested source keys in lexical order.
func (s *Service) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.sources))
	for k := range s.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
