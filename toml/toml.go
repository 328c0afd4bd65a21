// Package toml adds support for types not natively understood by the toml
// parser, so durations can be written as "10s" in config files.
package toml

import "time"

// Duration is a time.Duration that (un)marshals as a duration string.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
