// Package config provides configuration types and defaults for sweep.
package config

import (
	"fmt"
	"time"
)

// DefaultPort is the service port the regtest harness listens on.
const DefaultPort = 9801

// Config holds all configuration options for sweep.
type Config struct {
	Port int        `mapstructure:"port"`
	Kill KillConfig `mapstructure:"kill"`
	Stop StopConfig `mapstructure:"stop"`
}

// KillConfig controls how the port's owner is terminated.
type KillConfig struct {
	// Graceful sends SIGTERM and escalates to SIGKILL after GracePeriod
	// instead of killing outright.
	Graceful    bool          `mapstructure:"graceful"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// Auto uses container/systemd stop tooling when the listener is
	// managed by one.
	Auto bool `mapstructure:"auto"`
}

// StopConfig describes the external stop routine.
type StopConfig struct {
	Command string        `mapstructure:"command"` // path to the stop script
	Args    []string      `mapstructure:"args"`
	Sudo    bool          `mapstructure:"sudo"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 means no limit
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port: DefaultPort,
		Kill: KillConfig{
			GracePeriod: 5 * time.Second,
		},
		Stop: StopConfig{
			Command: "./regtest.sh",
			Args:    []string{"stop"},
			Sudo:    true,
			Timeout: 2 * time.Minute,
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", c.Port)
	}
	if c.Stop.Command == "" {
		return fmt.Errorf("stop.command is required")
	}
	if c.Kill.GracePeriod < 0 {
		return fmt.Errorf("kill.grace_period must not be negative")
	}
	if c.Stop.Timeout < 0 {
		return fmt.Errorf("stop.timeout must not be negative")
	}
	return nil
}
