// Package config loads the waypoint YAML configuration with sensible
// fallbacks, so every binary reads settings the same way.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration shared by the server and the
// terminal client.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Voice struct {
		// Provider selects the recognition backend: iflytek or deepgram.
		Provider string `yaml:"provider"`
		Language string `yaml:"language"`
		// MaxDurationSeconds caps a single recording; 0 means no ceiling.
		MaxDurationSeconds int  `yaml:"max_duration_seconds"`
		Buffered           bool `yaml:"buffered"`

		IFlytek struct {
			AppID     string `yaml:"app_id"`
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
		} `yaml:"iflytek"`

		Deepgram struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"deepgram"`
	} `yaml:"voice"`

	AI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"ai"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080

	cfg.Voice.Provider = "iflytek"
	cfg.Voice.Language = "zh_cn"
	cfg.Voice.MaxDurationSeconds = 60

	cfg.AI.Model = "qwen-plus"

	return cfg
}

// Load loads configuration from file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations.
// Priority: explicit path > ~/.waypointrc > /etc/waypoint/config.yaml. When
// no file exists the defaults are returned.
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".waypointrc")
		if _, err := os.Stat(userConfigPath); err == nil {
			if cfg, err := Load(userConfigPath); err == nil {
				return cfg, nil
			}
		}
	}

	systemConfigPath := "/etc/waypoint/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		if cfg, err := Load(systemConfigPath); err == nil {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}
