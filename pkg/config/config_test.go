package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/throughput-autoscaler/pkg/config"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("AUTOSCALER_RESOURCE_TABLE_NAME", "orders")

	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := validConfig(t)

	assert.Equal(t, "orders", cfg.Resource.TableName)
	assert.Equal(t, "table/orders", cfg.Resource.ResourceID())
	assert.Equal(t, map[string]string{"TableName": "orders"}, cfg.Resource.MetricDimensions())
	assert.Equal(t, 10*time.Minute, cfg.Sampling.Window)
	assert.Equal(t, 60*time.Second, cfg.Sampling.Period)
	assert.Equal(t, 4, cfg.Decision.Spread)
	assert.Equal(t, 2, cfg.Decision.DefaultFloor)
	assert.Equal(t, "ConsumedReadCapacityUnits", cfg.Sampling.Metrics.ConsumedRead)
	assert.Equal(t, "dynamodb:table:WriteCapacityUnits", cfg.Resource.WriteDimension)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AUTOSCALER_DECISION_SPREAD", "10")
	t.Setenv("AUTOSCALER_SAMPLING_WINDOW", "15m")
	cfg := validConfig(t)

	assert.Equal(t, 10, cfg.Decision.Spread)
	assert.Equal(t, 15*time.Minute, cfg.Sampling.Window)
}

func TestLoad_FileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	yaml := `
resource:
  table_name: inventory
decision:
  spread: 8
registry:
  type: memory
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTOSCALER_DECISION_DEFAULT_FLOOR=3\n"), 0o644))
	// godotenv writes to the process environment directly
	t.Cleanup(func() { os.Unsetenv("AUTOSCALER_DECISION_DEFAULT_FLOOR") })

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "inventory", cfg.Resource.TableName)
	assert.Equal(t, 8, cfg.Decision.Spread)
	assert.Equal(t, 3, cfg.Decision.DefaultFloor)
	assert.Equal(t, "memory", cfg.Registry.Type)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*config.Config)
		expectErr   bool
		errContains string
	}{
		{
			name:       "valid config",
			modifyFunc: func(c *config.Config) {},
		},
		{
			name:        "missing table",
			modifyFunc:  func(c *config.Config) { c.Resource.TableName = "" },
			expectErr:   true,
			errContains: "resource.table_name",
		},
		{
			name:        "negative spread",
			modifyFunc:  func(c *config.Config) { c.Decision.Spread = -1 },
			expectErr:   true,
			errContains: "decision.spread must not be negative",
		},
		{
			name:        "zero floor",
			modifyFunc:  func(c *config.Config) { c.Decision.DefaultFloor = 0 },
			expectErr:   true,
			errContains: "decision.default_floor",
		},
		{
			name: "period longer than window",
			modifyFunc: func(c *config.Config) {
				c.Sampling.Period = 20 * time.Minute
			},
			expectErr:   true,
			errContains: "sampling.period must be less than sampling.window",
		},
		{
			name:        "fractional period",
			modifyFunc:  func(c *config.Config) { c.Sampling.Period = 1500 * time.Millisecond },
			expectErr:   true,
			errContains: "whole number of seconds",
		},
		{
			name:        "same dimensions",
			modifyFunc:  func(c *config.Config) { c.Resource.WriteDimension = c.Resource.ReadDimension },
			expectErr:   true,
			errContains: "must differ",
		},
		{
			name: "run timeout exceeds interval",
			modifyFunc: func(c *config.Config) {
				c.Schedule.RunTimeout = 10 * time.Minute
			},
			expectErr:   true,
			errContains: "schedule.run_timeout must be less than schedule.interval",
		},
		{
			name:        "unknown sampler",
			modifyFunc:  func(c *config.Config) { c.Sampling.Type = "prometheus" },
			expectErr:   true,
			errContains: "sampling.type",
		},
		{
			name:        "plaintext operator password",
			modifyFunc:  func(c *config.Config) { c.API.OperatorPasswordHash = "hunter2" },
			expectErr:   true,
			errContains: "bcrypt hash",
		},
		{
			name: "default secret in production",
			modifyFunc: func(c *config.Config) {
				c.App.Mode = "production"
			},
			expectErr:   true,
			errContains: "jwt_secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modifyFunc(cfg)

			err := cfg.Validate()

			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_ToDBConfig(t *testing.T) {
	cfg := validConfig(t)
	db := cfg.Database.ToDBConfig()

	assert.Equal(t, cfg.Database.Host, db.Host)
	assert.Equal(t, cfg.Database.MaxConnections, db.MaxConnections)
	assert.Contains(t, db.DSN(), "dbname=autoscaler")
}
