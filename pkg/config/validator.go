package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OldStager01/throughput-autoscaler/pkg/validation"
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

	// Resource validation
	if err := validation.ValidateTableName(c.Resource.TableName); err != nil {
		errs = append(errs, fmt.Errorf("resource.table_name: %w", err))
	}
	if c.Resource.ServiceNamespace == "" {
		errs = append(errs, errors.New("resource.service_namespace is required"))
	}
	if c.Resource.MetricNamespace == "" {
		errs = append(errs, errors.New("resource.metric_namespace is required"))
	}
	if c.Resource.DimensionName == "" {
		errs = append(errs, errors.New("resource.dimension_name is required"))
	}
	if err := validation.ValidateScalableDimension(c.Resource.ReadDimension); err != nil {
		errs = append(errs, fmt.Errorf("resource.read_dimension: %w", err))
	}
	if err := validation.ValidateScalableDimension(c.Resource.WriteDimension); err != nil {
		errs = append(errs, fmt.Errorf("resource.write_dimension: %w", err))
	}
	if c.Resource.ReadDimension == c.Resource.WriteDimension {
		errs = append(errs, errors.New("resource.read_dimension and resource.write_dimension must differ"))
	}

	// Sampling validation
	validSamplers := map[string]bool{"cloudwatch": true, "mock": true}
	if !validSamplers[c.Sampling.Type] {
		errs = append(errs, errors.New("sampling.type must be one of: cloudwatch, mock"))
	}
	if c.Sampling.Window <= 0 {
		errs = append(errs, errors.New("sampling.window must be positive"))
	}
	if c.Sampling.Period <= 0 {
		errs = append(errs, errors.New("sampling.period must be positive"))
	}
	if c.Sampling.Period > 0 && c.Sampling.Period%time.Second != 0 {
		errs = append(errs, errors.New("sampling.period must be a whole number of seconds"))
	}
	if c.Sampling.Period >= c.Sampling.Window {
		errs = append(errs, errors.New("sampling.period must be less than sampling.window"))
	}
	for key, name := range map[string]string{
		"consumed_read":     c.Sampling.Metrics.ConsumedRead,
		"consumed_write":    c.Sampling.Metrics.ConsumedWrite,
		"provisioned_read":  c.Sampling.Metrics.ProvisionedRead,
		"provisioned_write": c.Sampling.Metrics.ProvisionedWrite,
	} {
		if err := validation.ValidateMetricName(name); err != nil {
			errs = append(errs, fmt.Errorf("sampling.metrics.%s: %w", key, err))
		}
	}

	// Decision validation
	if c.Decision.Spread < 0 {
		errs = append(errs, errors.New("decision.spread must not be negative"))
	}
	if c.Decision.DefaultFloor < 1 {
		errs = append(errs, errors.New("decision.default_floor must be at least 1"))
	}

	// Registry validation
	validRegistries := map[string]bool{"aws": true, "memory": true}
	if !validRegistries[c.Registry.Type] {
		errs = append(errs, errors.New("registry.type must be one of: aws, memory"))
	}
	if c.Registry.Type == "memory" {
		if c.Registry.InitialRead < 1 || c.Registry.InitialWrite < 1 {
			errs = append(errs, errors.New("registry.initial_read and registry.initial_write must be at least 1"))
		}
	}

	// Retry validation
	if c.Retry.Attempts <= 0 {
		errs = append(errs, errors.New("retry.attempts must be positive"))
	}
	if c.Retry.InitialInterval <= 0 {
		errs = append(errs, errors.New("retry.initial_interval must be positive"))
	}
	if c.Retry.MaxInterval < c.Retry.InitialInterval {
		errs = append(errs, errors.New("retry.max_interval must be >= retry.initial_interval"))
	}

	// Schedule validation
	if c.Schedule.Enabled {
		if c.Schedule.Interval <= 0 {
			errs = append(errs, errors.New("schedule.interval must be positive"))
		}
		if c.Schedule.RunTimeout <= 0 {
			errs = append(errs, errors.New("schedule.run_timeout must be positive"))
		}
		if c.Schedule.RunTimeout >= c.Schedule.Interval {
			errs = append(errs, errors.New("schedule.run_timeout must be less than schedule.interval"))
		}
	}

	// Database validation
	if c.Database.Enabled {
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
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.API.OperatorPasswordHash != "" {
		if c.API.OperatorUser == "" {
			errs = append(errs, errors.New("api.operator_user is required when a password hash is set"))
		}
		if !strings.HasPrefix(c.API.OperatorPasswordHash, "$2") || len(c.API.OperatorPasswordHash) != 60 {
			errs = append(errs, errors.New("api.operator_password_hash must be a bcrypt hash"))
		}
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
