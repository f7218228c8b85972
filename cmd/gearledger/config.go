package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the server configuration, populated from the yaml config file
// with GEARLEDGER_* environment overrides.
type Config struct {
	HTTPPort int
	Name     string
	DBPath   string
	PoolSize int
}

func setDefaults() {
	host, _ := os.Hostname()
	if host == "" {
		host = "gearledger"
	}
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("server.name", host)
	viper.SetDefault("db.path", "gearledger.db")
	viper.SetDefault("db.pool_size", 4)
}

// LoadConfig reads the effective configuration and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPPort: viper.GetInt("http.port"),
		Name:     viper.GetString("server.name"),
		DBPath:   viper.GetString("db.path"),
		PoolSize: viper.GetInt("db.pool_size"),
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid http.port: %d", cfg.HTTPPort)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db.path is required")
	}

	return cfg, nil
}
