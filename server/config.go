package server

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trustlens/trustlens/services/httpd"
	"github.com/trustlens/trustlens/services/logging"
	"github.com/trustlens/trustlens/services/quality"
	"github.com/trustlens/trustlens/services/slack"
	"github.com/trustlens/trustlens/toml"
)

const envPrefix = "TRUSTLENS"

// Config represents the configuration format for the trustlensd binary.
type Config struct {
	HTTP    httpd.Config   `toml:"http"`
	Logging logging.Config `toml:"logging"`
	Slack   slack.Config   `toml:"slack"`
	Quality quality.Config `toml:"quality"`

	Hostname string `toml:"hostname"`
}

// NewConfig returns an instance of Config with reasonable defaults.
func NewConfig() *Config {
	return &Config{
		HTTP:     httpd.NewConfig(),
		Logging:  logging.NewConfig(),
		Slack:    slack.NewConfig(),
		Quality:  quality.NewConfig(),
		Hostname: "localhost",
	}
}

// Validate returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("must configure valid hostname")
	}
	if err := c.HTTP.Validate(); err != nil {
		return errors.Wrap(err, "http")
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.Wrap(err, "logging")
	}
	if err := c.Slack.Validate(); err != nil {
		return errors.Wrap(err, "slack")
	}
	if err := c.Quality.Validate(); err != nil {
		return errors.Wrap(err, "quality")
	}
	return nil
}

// ApplyEnvOverrides applies environment variables of the form
// TRUSTLENS_SECTION_KEY on top of the loaded config, where SECTION and KEY
// come from the toml tags with hyphens replaced by underscores.
func (c *Config) ApplyEnvOverrides() error {
	return c.applyEnvOverrides(envPrefix, reflect.ValueOf(c))
}

func (c *Config) applyEnvOverrides(prefix string, v reflect.Value) error {
	s := v
	if s.Kind() == reflect.Ptr {
		s = s.Elem()
	}

	var value string
	if s.Kind() == reflect.String || isScalar(s.Kind()) {
		var ok bool
		value, ok = os.LookupEnv(prefix)
		if !ok {
			value = ""
		}
	}

	switch s.Kind() {
	case reflect.String:
		if value != "" {
			s.SetString(value)
		}
	case reflect.Bool:
		if value != "" {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return errors.Wrapf(err, "failed to apply %s=%s", prefix, value)
			}
			s.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value != "" {
			// Durations are int64 underneath; accept the duration syntax too.
			if s.Type() == reflect.TypeOf(toml.Duration(0)) {
				d, err := time.ParseDuration(value)
				if err != nil {
					return errors.Wrapf(err, "failed to apply %s=%s", prefix, value)
				}
				s.SetInt(int64(d))
			} else {
				i, err := strconv.ParseInt(value, 10, s.Type().Bits())
				if err != nil {
					return errors.Wrapf(err, "failed to apply %s=%s", prefix, value)
				}
				s.SetInt(i)
			}
		}
	case reflect.Float32, reflect.Float64:
		if value != "" {
			f, err := strconv.ParseFloat(value, s.Type().Bits())
			if err != nil {
				return errors.Wrapf(err, "failed to apply %s=%s", prefix, value)
			}
			s.SetFloat(f)
		}
	case reflect.Struct:
		t := s.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := f.Tag.Get("toml")
			if tag == "-" {
				continue
			}
			if tag == "" {
				tag = f.Name
			}
			key := strings.ToUpper(strings.ReplaceAll(tag, "-", "_"))
			if err := c.applyEnvOverrides(prefix+"_"+key, s.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf("%+v", *c)
}
