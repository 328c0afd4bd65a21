package httpd

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trustlens/trustlens/toml"
)

const DefaultShutdownTimeout = toml.Duration(10 * time.Second)

type Config struct {
	BindAddress     string        `toml:"bind-address"`
	LogEnabled      bool          `toml:"log-enabled"`
	GZIP            bool          `toml:"gzip"`
	PprofEnabled    bool          `toml:"pprof-enabled"`
	ShutdownTimeout toml.Duration `toml:"shutdown-timeout"`
}

func NewConfig() Config {
	return Config{
		BindAddress:     ":8000",
		LogEnabled:      true,
		GZIP:            true,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

func (c Config) Validate() error {
	if c.BindAddress == "" {
		return errors.New("must specify bind-address")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown-timeout must not be negative")
	}
	return nil
}
