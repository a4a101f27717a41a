package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
)

func Load(configPath string) (*Config, error) {
	loadEnvFiles(configPath)

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/autoscaler")
	}

	// Environment variable settings
	v.SetEnvPrefix("AUTOSCALER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
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

// loadEnvFiles exports .env entries next to the config file and in the
// working directory. Variables already set in the environment win.
func loadEnvFiles(configPath string) {
	if configPath != "" {
		envFile := filepath.Join(filepath.Dir(configPath), ".env")
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				logger.WithField("file", envFile).Warnf("Failed to load .env file: %v", err)
			} else {
				logger.WithField("file", envFile).Debug("Loaded .env file")
			}
		}
	}

	_ = godotenv.Load()
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "throughput-autoscaler")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")

	// Resource defaults
	v.SetDefault("resource.table_name", "")
	v.SetDefault("resource.service_namespace", "dynamodb")
	v.SetDefault("resource.metric_namespace", "AWS/DynamoDB")
	v.SetDefault("resource.dimension_name", "TableName")
	v.SetDefault("resource.read_dimension", "dynamodb:table:ReadCapacityUnits")
	v.SetDefault("resource.write_dimension", "dynamodb:table:WriteCapacityUnits")

	// Sampling defaults
	v.SetDefault("sampling.type", "cloudwatch")
	v.SetDefault("sampling.window", "10m")
	v.SetDefault("sampling.period", "60s")
	v.SetDefault("sampling.metrics.consumed_read", "ConsumedReadCapacityUnits")
	v.SetDefault("sampling.metrics.consumed_write", "ConsumedWriteCapacityUnits")
	v.SetDefault("sampling.metrics.provisioned_read", "ProvisionedReadCapacityUnits")
	v.SetDefault("sampling.metrics.provisioned_write", "ProvisionedWriteCapacityUnits")
	v.SetDefault("sampling.mock.base_read", 5.0)
	v.SetDefault("sampling.mock.base_write", 5.0)
	v.SetDefault("sampling.mock.variance", 2.0)

	// Decision defaults
	v.SetDefault("decision.spread", 4)
	v.SetDefault("decision.default_floor", 2)

	// Registry defaults
	v.SetDefault("registry.type", "aws")
	v.SetDefault("registry.initial_read", 5)
	v.SetDefault("registry.initial_write", 5)

	// Retry defaults
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.initial_interval", "200ms")
	v.SetDefault("retry.max_interval", "2s")
	v.SetDefault("retry.circuit_breaker.max_failures", 5)
	v.SetDefault("retry.circuit_breaker.timeout", "30s")

	// Schedule defaults
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.interval", "5m")
	v.SetDefault("schedule.run_timeout", "60s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "autoscaler")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "throughput-autoscaler")
	v.SetDefault("api.default_limit", 20)
	v.SetDefault("api.max_limit", 200)
	v.SetDefault("api.rate_limit", 60)
	v.SetDefault("api.operator_user", "operator")
	v.SetDefault("api.operator_password_hash", "")

	// WebSocket defaults
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 512)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 256)

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
