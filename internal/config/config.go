// Package config carries the debugger agent's configuration, loadable from a
// TOML file and overridable by flags.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	// PropertyEvaluation controls whether expressions may run code inside
	// the target process. Off means any operator requiring a remote call
	// fails instead of executing target code.
	PropertyEvaluation bool `toml:"property_evaluation"`

	// EvalTimeoutSeconds bounds how long the agent waits for the target
	// runtime to finish one remote evaluation.
	EvalTimeoutSeconds int `toml:"eval_timeout_seconds"`

	History History `toml:"history"`
}

// History configures the session evaluation log. The default in-memory
// sqlite store lives and dies with the session; pointing the driver at a
// mysql DSN sends the log to a central collector instead.
type History struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

func Default() Config {
	return Config{
		LogLevel:           "error",
		PropertyEvaluation: true,
		EvalTimeoutSeconds: 30,
		History: History{
			Driver: "sqlite3",
			DSN:    ":memory:",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}
