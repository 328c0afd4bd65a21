package quality

import (
	"github.com/pkg/errors"

	"github.com/trustlens/trustlens/alert"
)

type Config struct {
	// Fraction of null data cells above which a warning alert fires.
	NullRateThreshold float64 `toml:"null-rate-threshold"`
	// Minutes since the newest update above which a critical alert fires.
	StaleMinutesThreshold int `toml:"stale-minutes-threshold"`
}

func NewConfig() Config {
	t := alert.DefaultThresholds()
	return Config{
		NullRateThreshold:     t.NullRate,
		StaleMinutesThreshold: t.StaleMinutes,
	}
}

func (c Config) Validate() error {
	if c.NullRateThreshold < 0 || c.NullRateThreshold > 1 {
		return errors.Errorf("null-rate-threshold must be in [0,1], got %v", c.NullRateThreshold)
	}
	if c.StaleMinutesThreshold < 0 {
		return errors.Errorf("stale-minutes-threshold must not be negative, got %d", c.StaleMinutesThreshold)
	}
	return nil
}

func (c Config) thresholds() alert.Thresholds {
	return alert.Thresholds{
		NullRate:     c.NullRateThreshold,
		StaleMinutes: c.StaleMinutesThreshold,
	}
}
