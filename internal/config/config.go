package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port         int      `yaml:"port"`
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"server"`
	DataSource struct {
		Symbol          string `yaml:"symbol"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"data_source"`
	Schedule struct {
		WarmCron string `yaml:"warm_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.CacheTTLSeconds = ttl
		}
	}
	if v := os.Getenv("CRON_WARM"); v != "" {
		cfg.Schedule.WarmCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"*"}
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "NQ"
	}
	if cfg.DataSource.CacheTTLSeconds == 0 {
		cfg.DataSource.CacheTTLSeconds = 95
	}
	if cfg.Schedule.WarmCron == "" {
		// Aligned with the dashboard refresh cycle.
		cfg.Schedule.WarmCron = "@every 602s"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/level_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are sane.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535")
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.DataSource.CacheTTLSeconds < 1 {
		return fmt.Errorf("data_source.cache_ttl_seconds must be positive")
	}
	return nil
}
