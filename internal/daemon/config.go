// Package daemon manages the Paydirt daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	API       APIConfig       `toml:"api"`
	Escrow    EscrowConfig    `toml:"escrow"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	ID string `toml:"id"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// EscrowConfig controls marketplace policy.
type EscrowConfig struct {
	// CreatorOnlyAssignment restricts task assignment to the creator.
	CreatorOnlyAssignment bool `toml:"creator_only_assignment"`
	// MaxRating is the inclusive upper bound for rating scores.
	MaxRating int `toml:"max_rating"`
	// InitialGrant is the amount credited by a deposit request that
	// names no amount. Local faucet for development.
	InitialGrant int64 `toml:"initial_grant"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TelemetryConfig controls optional telemetry surfaces.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := paydirtHome()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7337,
		},
		Escrow: EscrowConfig{
			CreatorOnlyAssignment: false,
			MaxRating:             10,
			InitialGrant:          1000,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "paydirt.log"),
		},
	}
}

// LoadConfig reads config from ~/.paydirt/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(paydirtHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.paydirt/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(paydirtHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// paydirtHome returns the Paydirt data directory.
func paydirtHome() string {
	if env := os.Getenv("PAYDIRT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".paydirt")
}

// PaydirtHome is exported for use by other packages.
func PaydirtHome() string {
	return paydirtHome()
}
