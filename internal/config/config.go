package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type HubConfig struct {
	Path             string        `mapstructure:"path"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type BackoffConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

type Config struct {
	BackendURL     string        `mapstructure:"backend_url"`
	AuthToken      string        `mapstructure:"auth_token"`
	ListenPort     string        `mapstructure:"listen_port"`
	CachePath      string        `mapstructure:"cache_path"`
	RecentLimit    int           `mapstructure:"recent_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Hub            HubConfig     `mapstructure:"hub"`
	Backoff        BackoffConfig `mapstructure:"backoff"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	if config.BackendURL == "" {
		log.Fatal("Backend URL must be set in the config file")
	}

	// Fallback defaults
	if config.ListenPort == "" {
		config.ListenPort = "7420"
	}
	if config.CachePath == "" {
		config.CachePath = "famstack-cache.db"
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = 50
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	if config.Hub.Path == "" {
		config.Hub.Path = "/hubs/notifications"
	}
	if config.Hub.HandshakeTimeout <= 0 {
		config.Hub.HandshakeTimeout = 10 * time.Second
	}
	if config.Backoff.InitialInterval <= 0 {
		config.Backoff.InitialInterval = 2 * time.Second
	}
	if config.Backoff.MaxInterval <= 0 {
		config.Backoff.MaxInterval = 30 * time.Second
	}
	if config.Backoff.MaxAttempts <= 0 {
		config.Backoff.MaxAttempts = 5
	}

	return &config
}
