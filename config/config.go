// Package config loads plotterctl settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Console
	Server  string        `env:"PLOTTERCTL_SERVER" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"PLOTTERCTL_TIMEOUT" envDefault:"10s"`
	LogFile string        `env:"PLOTTERCTL_LOG"`

	// Reference server
	Addr     string `env:"PLOTTERCTL_ADDR" envDefault:":8080"`
	DBPath   string `env:"PLOTTERCTL_DB"`
	PageSize int    `env:"PLOTTERCTL_PAGE_SIZE" envDefault:"10"`
	KeyName  string `env:"PLOTTERCTL_KEY" envDefault:"default"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
