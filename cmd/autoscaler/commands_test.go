package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/throughput-autoscaler/internal/auth"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := Version, BuildTime, GitCommit
	defer func() {
		Version, BuildTime, GitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	Version = "1.2.3"
	BuildTime = "2024-01-01"
	GitCommit = "abcdef"

	output, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "autoscaler 1.2.3")
	assert.Contains(t, output, "Built: 2024-01-01")
	assert.Contains(t, output, "Commit: abcdef")

	BuildTime = "unknown"
	GitCommit = "unknown"
	output, err = execute(t, "version")
	require.NoError(t, err)
	assert.NotContains(t, output, "Built:")
}

func TestHashPasswordCmd(t *testing.T) {
	output, err := execute(t, "hash-password", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(output)
	assert.True(t, auth.CheckPassword("s3cret", hash))
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("AUTOSCALER_RESOURCE_TABLE_NAME", "orders")
	t.Setenv("AUTOSCALER_API_JWT_SECRET", "cli-secret")

	output, err := execute(t, "token", "--subject", "ci")
	require.NoError(t, err)

	svc := auth.NewService("cli-secret", 0, "throughput-autoscaler")
	claims, err := svc.ValidateToken(strings.TrimSpace(output))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Username)
}

func TestRunCmd_MockAndMemory(t *testing.T) {
	t.Setenv("AUTOSCALER_RESOURCE_TABLE_NAME", "orders")
	t.Setenv("AUTOSCALER_SAMPLING_TYPE", "mock")
	t.Setenv("AUTOSCALER_REGISTRY_TYPE", "memory")
	t.Setenv("AUTOSCALER_APP_LOG_LEVEL", "error")

	output, err := execute(t, "run")
	require.NoError(t, err)

	var result models.RunResult
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, "table/orders", result.ResourceID)
	assert.NotEmpty(t, result.RunID)
	require.Contains(t, result.Axes, models.AxisRead)
	require.Contains(t, result.Axes, models.AxisWrite)
	for _, outcome := range result.Axes {
		assert.Empty(t, outcome.Error)
		require.NotNil(t, outcome.Decision)
		assert.NotEqual(t, models.ActionUndefined, outcome.Decision.Action)
	}
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	t.Setenv("AUTOSCALER_RESOURCE_TABLE_NAME", "")

	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
