// Package config loads process configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the knobs shared by the CLI and the server.
type Config struct {
	// Addr is the HTTP listen address for the server.
	Addr string `env:"BALANCE_ADDR" envDefault:":8080"`

	// DBPath is the SQLite file for the run archive. Empty disables
	// archiving.
	DBPath string `env:"BALANCE_DB_PATH" envDefault:""`

	// Defaults applied when a run config leaves them unset.
	Trials      int `env:"BALANCE_TRIALS" envDefault:"1000"`
	TurnCap     int `env:"BALANCE_TURN_CAP" envDefault:"100"`
	Parallelism int `env:"BALANCE_PARALLELISM" envDefault:"0"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
