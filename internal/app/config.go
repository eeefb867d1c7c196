package app

import (
	"fmt"
	"io"
	"strings"
)

// Config holds the process-level settings of an App. Empty log settings
// fall back to the `logging` block of the loaded configuration.
type Config struct {
	ConfigPaths []string

	LogFormat string
	LogLevel  string
	// LogOutput receives log records. Nil means the App's output writer.
	LogOutput io.Writer
}

// NewConfig validates cfg and returns a normalized copy.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validateLogging(cfg.LogLevel, cfg.LogFormat, true); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateLogging(level, format string, allowEmpty bool) error {
	switch level {
	case "debug", "info", "warn", "error":
	case "":
		if !allowEmpty {
			return fmt.Errorf("log level must not be empty")
		}
	default:
		return fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", level)
	}
	switch format {
	case "text", "json":
	case "":
		if !allowEmpty {
			return fmt.Errorf("log format must not be empty")
		}
	default:
		return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", format)
	}
	return nil
}
