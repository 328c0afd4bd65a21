package slack

import (
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/trustlens/trustlens/toml"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = toml.Duration(5 * time.Second)

type Config struct {
	// The incoming-webhook URL. Leave empty to run without notifications;
	// an unconfigured sink is a valid state, not a startup failure.
	URL string `toml:"url"`
	// Bound on each webhook POST.
	Timeout toml.Duration `toml:"timeout"`
}

func NewConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
	}
}

func (c Config) Validate() error {
	if c.URL == "" {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.Wrapf(err, "invalid url %q", c.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("invalid url scheme %q, must be http or https", u.Scheme)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}
