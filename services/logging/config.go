package logging

import (
	"fmt"
	"strings"
)

type Config struct {
	// Destination file, or the special values STDERR and STDOUT.
	File string `toml:"file"`
	// Minimum level written: DEBUG, INFO, WARN, ERROR or OFF.
	Level string `toml:"level"`
}

func NewConfig() Config {
	return Config{
		File:  "STDERR",
		Level: "INFO",
	}
}

func (c Config) Validate() error {
	switch strings.ToUpper(c.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR", "OFF":
		return nil
	}
	return fmt.Errorf("unknown logging level %s", c.Level)
}
