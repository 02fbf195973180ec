// Package config loads application settings from defaults, an optional
// config file, and SPLITLEDGER_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix
// SPLITLEDGER_, e.g. SPLITLEDGER_SERVER_PORT=9090.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./data/splitledger.db")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SPLITLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "splitledger"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SPLITLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
