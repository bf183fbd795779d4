package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// config holds constructor-style defaults (overridable by a config
// file) but is read from disk instead of built fluently via setters,
// since this binary's whole job is to be driven by a config file rather
// than library calls.
type config struct {
	Algorithm string `toml:"algorithm"`
	Pool      string `toml:"pool"`
	Workers   int    `toml:"workers"`
	N         int    `toml:"n"`
}

func defaultConfig() config {
	return config{
		Algorithm: "fib",
		Pool:      "busy",
		Workers:   4,
		N:         30,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("forkjoin-bench: reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("forkjoin-bench: parsing config: %w", err)
	}
	return cfg, nil
}
