// Package httpd owns the HTTP listener and the route table every other
// service registers its API surface on.
package httpd

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

type Service struct {
	addr            string
	shutdownTimeout time.Duration
	err             chan error

	mu     sync.Mutex
	wg     sync.WaitGroup
	ln     net.Listener
	server *http.Server

	Handler *Handler

	logger *log.Logger
}

func NewService(c Config, version string, l, clfLogger *log.Logger) *Service {
	statMap := &expvar.Map{}
	statMap.Init()

	return &Service{
		addr:            c.BindAddress,
		shutdownTimeout: time.Duration(c.ShutdownTimeout),
		err:             make(chan error, 1),
		Handler:         NewHandler(c, version, statMap, l, clfLogger),
		logger:          l,
	}
}

// Open starts the service.
func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Println("I! listening on HTTP:", ln.Addr().String())

	s.server = &http.Server{
		Handler:  s.Handler,
		ErrorLog: s.logger,
	}

	s.wg.Add(1)
	go s.serve()
	return nil
}

// Close gracefully drains in-flight requests, forcing connections closed if
// the shutdown timeout elapses.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// If server is not set we were never started
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err == context.DeadlineExceeded {
		s.logger.Println("W! shutdown timeout reached, closing connections")
		err = s.server.Close()
	}
	s.wg.Wait()
	s.server = nil
	return err
}

func (s *Service) Err() <-chan error {
	return s.err
}

// serve serves the handler from the listener.
func (s *Service) serve() {
	defer s.wg.Done()
	err := s.server.Serve(s.ln)
	if err != nil && err != http.ErrServerClosed {
		s.err <- fmt.Errorf("listener failed: addr=%s, err=%s", s.addr, err)
	} else {
		s.err <- nil
	}
}

func (s *Service) Addr() net.Addr {
	if s.ln != nil {
		return s.ln.Addr()
	}
	return nil
}

// URL that resolves to the listener. Useful in tests against an ephemeral
// port.
func (s *Service) URL() string {
	if s.ln != nil {
		return "http://" + s.Addr().String()
	}
	return ""
}

func (s *Service) AddRoutes(routes []Route) error {
	return s.Handler.AddRoutes(routes)
}
