package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	API      API      `mapstructure:"api"`
	Market   Market   `mapstructure:"market"`
	Alerts   Alerts   `mapstructure:"alerts"`
	Logger   Logger   `mapstructure:"logger"`
	Database Database `mapstructure:"database"`
}

// API holds the configuration for the exchange listing API.
type API struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSec     int     `mapstructure:"timeout_sec"`
	ProbeTimeout   int     `mapstructure:"probe_timeout_sec"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Market holds the configuration for the refresh cycle.
type Market struct {
	DefaultSources  []string `mapstructure:"default_sources"`
	RefreshInterval int      `mapstructure:"refresh_interval"`
	FreshnessWindow int64    `mapstructure:"freshness_window"`
}

// Alerts holds the configuration for the alert evaluation loop.
type Alerts struct {
	CheckInterval int `mapstructure:"check_interval"`
}

// Database holds the configuration for the local store.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("api.base_url", "https://api.coinlore.net/api")
	viper.SetDefault("api.timeout_sec", 30)
	viper.SetDefault("api.probe_timeout_sec", 5)
	viper.SetDefault("api.rate_limit", 10) // requests per second
	viper.SetDefault("api.rate_limit_burst", 5)
	viper.SetDefault("market.default_sources", []string{"2", "37", "29", "102", "311"})
	viper.SetDefault("market.refresh_interval", 60) // seconds, 0 disables the loop
	viper.SetDefault("market.freshness_window", 3600)
	viper.SetDefault("alerts.check_interval", 30) // seconds
	viper.SetDefault("database.dsn", "cryptoview.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
