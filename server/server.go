// Package server orchestrates the TrustLens services: it builds them from a
// Config, wires their cross dependencies and manages their lifecycle in order.
package server

import (
	"log"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/trustlens/trustlens/services/catalog"
	"github.com/trustlens/trustlens/services/httpd"
	"github.com/trustlens/trustlens/services/ingest"
	"github.com/trustlens/trustlens/services/logging"
	"github.com/trustlens/trustlens/services/quality"
	"github.com/trustlens/trustlens/services/slack"
	"github.com/trustlens/trustlens/services/storage"
)

// BuildInfo contains build information available at runtime.
type BuildInfo struct {
	Version string
	Commit  string
	Branch  string
}

// Server manages the construction and lifecycle of every service.
type Server struct {
	buildInfo BuildInfo
	hostname  string
	config    *Config
	err       chan error

	// Wired by name so services can depend on each other without import
	// cycles.
	StorageService *storage.Service
	SlackService   *slack.Service
	HTTPDService   *httpd.Service

	Services []Service

	logService logging.Interface
	logger     *log.Logger
}

// Service is the minimal lifecycle every member of Services implements.
type Service interface {
	Open() error
	Close() error
}

// New returns a new instance of Server built from c.
func New(c *Config, buildInfo BuildInfo, logService logging.Interface) (*Server, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	l := logService.NewLogger("[srv] ", log.LstdFlags)
	s := &Server{
		buildInfo:  buildInfo,
		hostname:   c.Hostname,
		config:     c,
		err:        make(chan error, 1),
		logService: logService,
		logger:     l,
	}

	// HTTPD is created first so every other service can register routes, but
	// it is opened last so the API only accepts requests once the services
	// behind it are ready.
	s.appendHTTPDService()
	s.appendStorageService()
	s.appendSlackService()
	s.appendCatalogService()
	s.appendIngestService()
	s.appendQualityService()
	s.Services = append(s.Services, s.HTTPDService)

	return s, nil
}

func (s *Server) appendHTTPDService() {
	c := s.config.HTTP
	l := s.logService.NewLogger("[httpd] ", log.LstdFlags)
	clfLogger := s.logService.NewRawLogger("[httpd] ", 0)
	s.HTTPDService = httpd.NewService(c, s.buildInfo.Version, l, clfLogger)
}

func (s *Server) appendStorageService() {
	l := s.logService.NewLogger("[storage] ", log.LstdFlags)
	srv := storage.NewService(l)
	s.StorageService = srv
	s.Services = append(s.Services, srv)
}

func (s *Server) appendSlackService() {
	c := s.config.Slack
	l := s.logService.NewLogger("[slack] ", log.LstdFlags)
	srv := slack.NewService(c, l)
	s.SlackService = srv
	s.Services = append(s.Services, srv)
}

func (s *Server) appendCatalogService() {
	l := s.logService.NewLogger("[catalog] ", log.LstdFlags)
	srv := catalog.NewService(l, clock.New())
	srv.HTTPDService = s.HTTPDService
	s.Services = append(s.Services, srv)
}

func (s *Server) appendIngestService() {
	l := s.logService.NewLogger("[ingest] ", log.LstdFlags)
	srv := ingest.NewService(l)
	srv.StoreService = s.StorageService
	srv.HTTPDService = s.HTTPDService
	s.Services = append(s.Services, srv)
}

func (s *Server) appendQualityService() {
	c := s.config.Quality
	l := s.logService.NewLogger("[quality] ", log.LstdFlags)
	srv := quality.NewService(c, l, clock.New())
	srv.StoreService = s.StorageService
	srv.SlackService = s.SlackService
	srv.HTTPDService = s.HTTPDService
	s.Services = append(s.Services, srv)
}

// Err returns an error channel that multiplexes all out of band errors
// received from all services.
func (s *Server) Err() <-chan error {
	return s.err
}

// Open opens all the services in order.
func (s *Server) Open() error {
	if err := s.startServices(); err != nil {
		s.Close()
		return err
	}
	go s.watchServices()
	return nil
}

func (s *Server) startServices() error {
	for _, service := range s.Services {
		s.logger.Printf("D! opening service: %T", service)
		if err := service.Open(); err != nil {
			return errors.Wrapf(err, "open service %T", service)
		}
		s.logger.Printf("D! opened service: %T", service)
	}
	return nil
}

// watchServices forwards the first out of band service error to the server
// error channel.
func (s *Server) watchServices() {
	var err error
	select {
	case err = <-s.HTTPDService.Err():
	}
	s.err <- err
}

// Close shuts down the services in reverse order.
func (s *Server) Close() error {
	for i := len(s.Services) - 1; i >= 0; i-- {
		service := s.Services[i]
		s.logger.Printf("D! closing service: %T", service)
		err := service.Close()
		if err != nil {
			s.logger.Printf("E! error closing service %T: %v", service, err)
		}
		s.logger.Printf("D! closed service: %T", service)
	}
	return nil
}

// Hostname the server reports itself as.
func (s *Server) Hostname() string {
	if s.hostname != "" {
		return s.hostname
	}
	h, _ := os.Hostname()
	return h
}
