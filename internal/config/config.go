package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	GoogleConfig
	DevServerConfig
	CorsConfig
}

// New parses the process environment once and returns a Config over the result.
func New() (Config, error) {
	var v Values
	if err := env.Parse(&v); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return v, nil
}

// Must is New for commands that cannot continue without configuration.
func Must() Config {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}
