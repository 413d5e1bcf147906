package config

import (
	"errors"
	"fmt"
	"net/url"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Classifier validation
	if c.Classifier.BaseURL == "" {
		errs = append(errs, errors.New("classifier.base_url is required"))
	} else if _, err := url.ParseRequestURI(c.Classifier.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("classifier.base_url is not a valid URL: %v", err))
	}
	if c.Classifier.Timeout <= 0 {
		errs = append(errs, errors.New("classifier.timeout must be positive"))
	}
	if c.Classifier.CircuitBreaker.MaxFailures <= 0 {
		errs = append(errs, errors.New("classifier.circuit_breaker.max_failures must be positive"))
	}

	// Processor validation
	if c.Processor.BatchSize <= 0 {
		errs = append(errs, errors.New("processor.batch_size must be positive"))
	}
	if c.Processor.BatchDelay < 0 {
		errs = append(errs, errors.New("processor.batch_delay must not be negative"))
	}
	if c.Processor.Interval <= 0 {
		errs = append(errs, errors.New("processor.interval must be positive"))
	}
	if c.Processor.BatchDelay >= c.Processor.Interval {
		errs = append(errs, errors.New("processor.batch_delay must be less than processor.interval"))
	}

	// Generator validation
	if c.Generator.Enabled && c.Generator.Interval <= 0 {
		errs = append(errs, errors.New("generator.interval must be positive when the generator is enabled"))
	}

	// Cache validation
	if c.Cache.MachineTTL <= 0 {
		errs = append(errs, errors.New("cache.machine_ttl must be positive"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.RateLimit <= 0 {
		errs = append(errs, errors.New("api.rate_limit must be positive"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
