package httpd

import (
	"compress/gzip"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influxdata/httprouter"
	"github.com/influxdata/wlog"
)

// statistics gathered by the httpd package.
const (
	statRequest       = "req"        // Number of HTTP requests served
	statHealthRequest = "health_req" // Number of health checks served
)

// ServiceName reported by the health endpoint.
const ServiceName = "trustlensd"

// Route binds a handler into the router. Services register their API surface
// by handing Routes to the HTTPD service.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
	NoJSON      bool
	NoGzip      bool
}

// Handler represents the HTTP handler for the TrustLens API server.
type Handler struct {
	router *httprouter.Router

	allowGzip      bool
	loggingEnabled bool
	pprofEnabled   bool

	Version string

	// Leveled service logger.
	logger *log.Logger
	// Common-log-format access logger; no wlog level prefixes.
	clfLogger *log.Logger

	statMap *expvar.Map
}

// NewHandler returns a new instance of Handler with the built-in routes
// registered.
func NewHandler(c Config, version string, statMap *expvar.Map, l, clfLogger *log.Logger) *Handler {
	h := &Handler{
		router:         httprouter.New(),
		allowGzip:      c.GZIP,
		loggingEnabled: c.LogEnabled,
		pprofEnabled:   c.PprofEnabled,
		Version:        version,
		logger:         l,
		clfLogger:      clfLogger,
		statMap:        statMap,
	}
	h.router.NotFound = http.HandlerFunc(h.serve404)
	h.router.MethodNotAllowed = http.HandlerFunc(h.serve405)

	routes := []Route{
		{
			Name:        "health",
			Method:      "GET",
			Pattern:     "/health",
			HandlerFunc: h.serveHealth,
		},
		{
			Name:        "health-head",
			Method:      "HEAD",
			Pattern:     "/health",
			HandlerFunc: h.serveHealth,
		},
		{
			// Change current log level
			Name:        "log-level",
			Method:      "POST",
			Pattern:     "/loglevel",
			HandlerFunc: h.serveLogLevel,
		},
		{
			Name:        "debug/vars",
			Method:      "GET",
			Pattern:     "/debug/vars",
			HandlerFunc: serveExpvar,
		},
	}
	if c.PprofEnabled {
		routes = append(routes,
			Route{Name: "pprof", Method: "GET", Pattern: "/debug/pprof/", HandlerFunc: pprof.Index, NoJSON: true, NoGzip: true},
			Route{Name: "pprof/cmdline", Method: "GET", Pattern: "/debug/pprof/cmdline", HandlerFunc: pprof.Cmdline, NoJSON: true, NoGzip: true},
			Route{Name: "pprof/profile", Method: "GET", Pattern: "/debug/pprof/profile", HandlerFunc: pprof.Profile, NoJSON: true, NoGzip: true},
			Route{Name: "pprof/symbol", Method: "GET", Pattern: "/debug/pprof/symbol", HandlerFunc: pprof.Symbol, NoJSON: true, NoGzip: true},
			Route{Name: "pprof/trace", Method: "GET", Pattern: "/debug/pprof/trace", HandlerFunc: pprof.Trace, NoJSON: true, NoGzip: true},
		)
	}
	if err := h.AddRoutes(routes); err != nil {
		// The built-in route table is static; a conflict here is a bug.
		panic(err)
	}
	return h
}

func (h *Handler) AddRoutes(routes []Route) error {
	for _, r := range routes {
		if err := h.AddRoute(r); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) AddRoute(r Route) (err error) {
	if len(r.Pattern) == 0 || r.Pattern[0] != '/' {
		return fmt.Errorf("route patterns must begin with a '/' %s", r.Pattern)
	}
	if r.HandlerFunc == nil {
		return fmt.Errorf("route %s %s does not have a handler function", r.Method, r.Pattern)
	}

	var handler http.Handler = r.HandlerFunc
	// Set basic handlers for all requests
	if !r.NoJSON {
		handler = jsonContent(handler)
	}
	if h.allowGzip && !r.NoGzip {
		handler = gzipFilter(handler)
	}
	handler = versionHeader(handler, h)
	handler = cors(handler)
	handler = requestID(handler)
	if h.loggingEnabled {
		handler = logHandler(handler, h.clfLogger)
	}
	handler = recovery(handler, r.Name, h.logger) // make sure recovery is always last

	// The router panics on pattern conflicts; surface that as an error so a
	// bad route registration does not take the process down.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cannot register route %s %s: %v", r.Method, r.Pattern, p)
		}
	}()
	h.router.Handler(r.Method, r.Pattern, handler)
	return nil
}

// ServeHTTP responds to HTTP requests to the handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.statMap.Add(statRequest, 1)
	h.router.ServeHTTP(w, r)
}

type healthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

// serveHealth returns a simple response to let the client know the server is
// running.
func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	h.statMap.Add(statHealthRequest, 1)
	w.Write(MarshalJSON(healthResponse{
		OK:      true,
		Service: ServiceName,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}, true))
}

// serveLogLevel sets the log level of the server.
func (h *Handler) serveLogLevel(w http.ResponseWriter, r *http.Request) {
	var opt struct {
		Level string `json:"level"`
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&opt); err != nil {
		HttpError(w, "invalid json: "+err.Error(), true, http.StatusBadRequest)
		return
	}
	if err := wlog.SetLevelFromName(opt.Level); err != nil {
		HttpError(w, err.Error(), true, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serve404 returns a formatted 404 error.
func (h *Handler) serve404(w http.ResponseWriter, r *http.Request) {
	HttpError(w, "Not Found", true, http.StatusNotFound)
}

func (h *Handler) serve405(w http.ResponseWriter, r *http.Request) {
	HttpError(w, "Method Not Allowed", true, http.StatusMethodNotAllowed)
}

// serveExpvar serves registered expvar information over HTTP.
func serveExpvar(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "{\n")
	first := true
	expvar.Do(func(kv expvar.KeyValue) {
		if !first {
			fmt.Fprintf(w, ",\n")
		}
		first = false
		fmt.Fprintf(w, "%q: %s", kv.Key, kv.Value)
	})
	fmt.Fprintf(w, "\n}\n")
}

// MarshalJSON will marshal v to JSON. Pretty prints if pretty is true.
func MarshalJSON(v interface{}, pretty bool) []byte {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "    ")
	} else {
		b, err = json.Marshal(v)
	}

	if err != nil {
		type errResponse struct {
			Error string `json:"error"`
		}
		er := errResponse{Error: err.Error()}
		b, _ = json.Marshal(er)
	}
	return b
}

// HttpError writes an error to the client in a standard format.
func HttpError(w http.ResponseWriter, err string, pretty bool, code int) {
	w.WriteHeader(code)

	type errResponse struct {
		Error string `json:"error"`
	}

	response := errResponse{Error: err}
	var b []byte
	if pretty {
		b, _ = json.MarshalIndent(response, "", "    ")
	} else {
		b, _ = json.Marshal(response)
	}
	w.Write(b)
}

// Filters and filter helpers

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w gzipResponseWriter) Flush() {
	w.Writer.(*gzip.Writer).Flush()
}

// determines if the client can accept compressed responses, and encodes accordingly
func gzipFilter(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			inner.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		gzw := gzipResponseWriter{Writer: gz, ResponseWriter: w}
		inner.ServeHTTP(gzw, r)
	})
}

func jsonContent(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		inner.ServeHTTP(w, r)
	})
}

// versionHeader adds the X-TRUSTLENS-VERSION header to outgoing responses.
func versionHeader(inner http.Handler, h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-TRUSTLENS-Version", h.Version)
		inner.ServeHTTP(w, r)
	})
}

// cors responds to incoming requests and adds the appropriate cors headers
func cors(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set(`Access-Control-Allow-Origin`, origin)
			w.Header().Set(`Access-Control-Allow-Methods`, strings.Join([]string{
				`DELETE`,
				`GET`,
				`OPTIONS`,
				`POST`,
				`PATCH`,
			}, ", "))

			w.Header().Set(`Access-Control-Allow-Headers`, strings.Join([]string{
				`Accept`,
				`Accept-Encoding`,
				`Authorization`,
				`Content-Length`,
				`Content-Type`,
				`X-CSRF-Token`,
				`X-HTTP-Method-Override`,
			}, ", "))
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		inner.ServeHTTP(w, r)
	})
}

func requestID(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := uuid.New()
		r.Header.Set("Request-Id", uid.String())
		w.Header().Set("Request-Id", r.Header.Get("Request-Id"))

		inner.ServeHTTP(w, r)
	})
}

func logHandler(inner http.Handler, weblog *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := &responseLogger{w: w}
		inner.ServeHTTP(l, r)
		weblog.Println(buildLogLine(l, r, start))
	})
}

func recovery(inner http.Handler, name string, weblog *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := &responseLogger{w: w}
		defer func() {
			if err := recover(); err != nil {
				logLine := buildLogLine(l, r, start)
				weblog.Printf("E! %s [panic in %s: %v]", logLine, name, err)
				// l.status is zero only if nothing was written yet.
				if l.status == 0 {
					HttpError(l, "internal server error", false, http.StatusInternalServerError)
				}
			}
		}()
		inner.ServeHTTP(l, r)
	})
}
