package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/predictive-maintenance")
	}

	v.SetEnvPrefix("PREDMAINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "predictive-maintenance")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "maintenance")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")

	// Classifier defaults
	v.SetDefault("classifier.base_url", "http://localhost:8000")
	v.SetDefault("classifier.timeout", "10s")
	v.SetDefault("classifier.retry_attempts", 2)
	v.SetDefault("classifier.retry_delay", "500ms")
	v.SetDefault("classifier.circuit_breaker.max_failures", 5)
	v.SetDefault("classifier.circuit_breaker.cooldown", "30s")
	v.SetDefault("classifier.circuit_breaker.probe_quota", 1)

	// Processor defaults
	v.SetDefault("processor.batch_size", 5)
	v.SetDefault("processor.batch_delay", "200ms")
	v.SetDefault("processor.interval", "5m")

	// Generator defaults
	v.SetDefault("generator.enabled", true)
	v.SetDefault("generator.interval", "1h")

	// Cache defaults
	v.SetDefault("cache.machine_ttl", "10m")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
