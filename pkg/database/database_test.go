package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, Name: "autoscaler", User: "u", Password: "p"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=autoscaler sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestMigrations_Ordered(t *testing.T) {
	files, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_create_capacity_decisions.sql", files[0])
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxIdleTime)
	assert.Equal(t, 10*time.Second, cfg.PingTimeout)

	cfg = Config{MaxConnections: 3, PingTimeout: time.Second}.withDefaults()
	assert.Equal(t, 3, cfg.MaxConnections)
	assert.Equal(t, time.Second, cfg.PingTimeout)
}
