// Package config loads process configuration from MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration.
type Config struct {
	// DataDir holds the database. Defaults to ~/.mudra.
	DataDir string `env:"MUDRA_DATA_DIR"`
	// Addr is the HTTP listen address. Empty disables the server.
	Addr string `env:"MUDRA_ADDR" envDefault:":8080"`
	// PluginDir holds action plugins. Defaults to <DataDir>/plugins.
	PluginDir string `env:"MUDRA_PLUGIN_DIR"`
	// StaticDir is served at /. Defaults to the first web/ directory found.
	StaticDir string `env:"MUDRA_STATIC_DIR"`

	// BridgeCommand is the sensor bridge executable.
	BridgeCommand string   `env:"MUDRA_BRIDGE_COMMAND" envDefault:"kinect-bridge"`
	BridgeArgs    []string `env:"MUDRA_BRIDGE_ARGS" envSeparator:" "`
	// ReplayFile plays a recorded session instead of the live bridge.
	ReplayFile  string `env:"MUDRA_REPLAY_FILE"`
	ReplayPaced bool   `env:"MUDRA_REPLAY_PACED" envDefault:"true"`

	// Dampening is applied when no value has been saved yet.
	// 0 holds the first tracked frame until a smoothing factor is chosen.
	Dampening float64 `env:"MUDRA_DAMPENING" envDefault:"0.5"`

	ActionTimeout time.Duration `env:"MUDRA_ACTION_TIMEOUT" envDefault:"5s"`
	ActionQueue   int           `env:"MUDRA_ACTION_QUEUE" envDefault:"32"`

	PreviewWidth  int `env:"MUDRA_PREVIEW_WIDTH" envDefault:"640"`
	PreviewHeight int `env:"MUDRA_PREVIEW_HEIGHT" envDefault:"480"`

	// Headless skips the system tray.
	Headless bool `env:"MUDRA_HEADLESS"`
}

// Load parses the environment and fills derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".mudra")
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = findWebDir(cfg.DataDir)
	}

	return cfg, cfg.Validate()
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Dampening < 0 || c.Dampening > 1 {
		errs = append(errs, fmt.Errorf("MUDRA_DAMPENING must be within [0, 1], got %v", c.Dampening))
	}
	if c.ActionTimeout <= 0 {
		errs = append(errs, errors.New("MUDRA_ACTION_TIMEOUT must be positive"))
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		errs = append(errs, errors.New("preview size must be positive"))
	}
	return errors.Join(errs...)
}

// DBPath returns the database file path.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// findWebDir returns the first existing web directory, or "" if none is found.
// It checks web, ../web, ../../web and <dataDir>/web.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
