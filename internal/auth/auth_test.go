package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour, "throughput-autoscaler")

	token, err := svc.GenerateToken("operator")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, "throughput-autoscaler", claims.Issuer)
}

func TestService_ValidateToken_Errors(t *testing.T) {
	svc := NewService("test-secret", time.Hour, "throughput-autoscaler")

	tests := []struct {
		name     string
		token    func() string
		expected error
	}{
		{
			name:     "garbage",
			token:    func() string { return "invalid-token" },
			expected: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func() string {
				tok, _ := NewService("test-secret", -time.Hour, "throughput-autoscaler").GenerateToken("operator")
				return tok
			},
			expected: ErrExpiredToken,
		},
		{
			name: "wrong secret",
			token: func() string {
				tok, _ := NewService("other-secret", time.Hour, "throughput-autoscaler").GenerateToken("operator")
				return tok
			},
			expected: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func() string {
				tok, _ := NewService("test-secret", time.Hour, "someone-else").GenerateToken("operator")
				return tok
			},
			expected: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token())
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("mypassword123")
	require.NoError(t, err)

	assert.True(t, CheckPassword("mypassword123", hash))
	assert.False(t, CheckPassword("wrongpassword", hash))
	assert.False(t, CheckPassword("mypassword123", "not-a-hash"))
}
