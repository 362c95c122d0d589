package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`
	Database struct {
		Dialect string `yaml:"dialect"`
		DSN     string `yaml:"dsn"`
		// Transactional should stay true wherever the storage engine
		// supports multi-statement transactions. Turning it off accepts a
		// narrow order-without-queue-entry inconsistency window.
		Transactional *bool `yaml:"transactional"`
	} `yaml:"database"`
	Auth struct {
		Secret      string `yaml:"secret"`
		TokenTTLMin int    `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`
	LogLevel string `yaml:"log_level"`
}

// Load reads the YAML configuration file and applies defaults
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Database.Dialect == "" {
		cfg.Database.Dialect = "sqlite3"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "forchetta.db"
	}
	if cfg.Database.Transactional == nil {
		t := true
		cfg.Database.Transactional = &t
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Auth.TokenTTLMin == 0 {
		cfg.Auth.TokenTTLMin = 60 * 24
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
