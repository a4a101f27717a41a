package config

import (
	"fmt"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Resource   ResourceConfig   `mapstructure:"resource"`
	Sampling   SamplingConfig   `mapstructure:"sampling"`
	Decision   DecisionConfig   `mapstructure:"decision"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Events     EventsConfig     `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type ResourceConfig struct {
	TableName        string `mapstructure:"table_name"`
	ServiceNamespace string `mapstructure:"service_namespace"`
	MetricNamespace  string `mapstructure:"metric_namespace"`
	DimensionName    string `mapstructure:"dimension_name"`
	ReadDimension    string `mapstructure:"read_dimension"`
	WriteDimension   string `mapstructure:"write_dimension"`
}

// ResourceID is the Application Auto Scaling identifier of the table
func (r ResourceConfig) ResourceID() string {
	return fmt.Sprintf("table/%s", r.TableName)
}

// MetricDimensions are the CloudWatch dimensions selecting the table
func (r ResourceConfig) MetricDimensions() map[string]string {
	return map[string]string{r.DimensionName: r.TableName}
}

type SamplingConfig struct {
	Type    string        `mapstructure:"type"`
	Window  time.Duration `mapstructure:"window"`
	Period  time.Duration `mapstructure:"period"`
	Metrics MetricNames   `mapstructure:"metrics"`
	Mock    MockConfig    `mapstructure:"mock"`
}

type MetricNames struct {
	ConsumedRead     string `mapstructure:"consumed_read"`
	ConsumedWrite    string `mapstructure:"consumed_write"`
	ProvisionedRead  string `mapstructure:"provisioned_read"`
	ProvisionedWrite string `mapstructure:"provisioned_write"`
}

type MockConfig struct {
	BaseRead  float64 `mapstructure:"base_read"`
	BaseWrite float64 `mapstructure:"base_write"`
	Variance  float64 `mapstructure:"variance"`
}

type DecisionConfig struct {
	Spread       int `mapstructure:"spread"`
	DefaultFloor int `mapstructure:"default_floor"`
}

type RegistryConfig struct {
	Type         string `mapstructure:"type"`
	InitialRead  int    `mapstructure:"initial_read"`
	InitialWrite int    `mapstructure:"initial_write"`
}

type RetryConfig struct {
	Attempts        int                  `mapstructure:"attempts"`
	InitialInterval time.Duration        `mapstructure:"initial_interval"`
	MaxInterval     time.Duration        `mapstructure:"max_interval"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ScheduleConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

type DatabaseConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	MaxConnections   int           `mapstructure:"max_connections"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTDuration  time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	// RateLimit is the number of requests per minute one client may send to
	// the mutating endpoints
	RateLimit int `mapstructure:"rate_limit"`
	// OperatorUser and OperatorPasswordHash enable POST /auth/login. An empty
	// hash disables login; tokens can still be minted with the CLI.
	OperatorUser         string `mapstructure:"operator_user"`
	OperatorPasswordHash string `mapstructure:"operator_password_hash"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
