// Package dsn manipulates database connection URLs for the doctor tool:
// masking credentials for display, enforcing TLS, extracting hosts.
package dsn

import (
	"net/url"

	"github.com/pkg/errors"
)

// EnsureSSLMode returns rawurl with sslmode=require appended when no sslmode
// parameter is present. Managed postgres providers reject plaintext
// connections, so this is the safe default for a probe.
func EnsureSSLMode(rawurl string) (string, error) {
	if rawurl == "" {
		return rawurl, nil
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", errors.Wrap(err, "invalid database url")
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// MaskPassword replaces any password in rawurl with asterisks so connection
// strings can be logged.
func MaskPassword(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil || u.User == nil {
		return rawurl
	}
	if _, ok := u.User.Password(); !ok {
		return rawurl
	}
	u.User = url.UserPassword(u.User.Username(), "*****")
	return u.String()
}

// Hostname extracts the host portion of rawurl.
func Hostname(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", errors.Wrap(err, "invalid database url")
	}
	if u.Hostname() == "" {
		return "", errors.New("database url has no hostname")
	}
	return u.Hostname(), nil
}
