package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process-level settings read from the environment.
// Command-line flags take precedence over these values.
type Runtime struct {
	ConfigPath string `env:"PACER_CONFIG"`
	DBPath     string `env:"PACER_DB" envDefault:"~/.pacer/sessions.db"`
	LogLevel   string `env:"PACER_LOG_LEVEL" envDefault:"info"`
	Profile    string `env:"PACER_PROFILE" envDefault:"reflex"`
}

// ParseEnv loads runtime settings from environment variables.
func ParseEnv() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return rt, fmt.Errorf("parse env: %w", err)
	}
	return rt, nil
}
