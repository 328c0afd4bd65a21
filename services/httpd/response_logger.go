package httpd

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// responseLogger is wrapper of http.ResponseWriter that keeps track of its
// HTTP status code and body size.
type responseLogger struct {
	w      http.ResponseWriter
	status int
	size   int
}

func (l *responseLogger) Header() http.Header {
	return l.w.Header()
}

func (l *responseLogger) Write(b []byte) (int, error) {
	if l.status == 0 {
		// The status will be StatusOK if WriteHeader has not been called yet
		l.status = http.StatusOK
	}
	size, err := l.w.Write(b)
	l.size += size
	return size, err
}

func (l *responseLogger) WriteHeader(s int) {
	l.status = s
	l.w.WriteHeader(s)
}

func (l *responseLogger) Status() int {
	if l.status == 0 {
		// The status will be StatusOK if WriteHeader has not been called yet
		return http.StatusOK
	}
	return l.status
}

func (l *responseLogger) Size() int {
	return l.size
}

// buildLogLine creates a common-log-format line with request id and duration
// appended.
func buildLogLine(l *responseLogger, r *http.Request, start time.Time) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d %q %q %s %s`,
		host,
		start.Format("02/Jan/2006:15:04:05 -0700"),
		r.Method,
		r.URL.RequestURI(),
		r.Proto,
		l.Status(),
		l.Size(),
		r.Referer(),
		r.UserAgent(),
		r.Header.Get("Request-Id"),
		time.Since(start),
	)
}
