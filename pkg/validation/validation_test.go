package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "orders", false},
		{"with punctuation", "orders-v2_prod.eu", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 256), true},
		{"slash", "orders/prod", true},
		{"space", "my table", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMetricName(t *testing.T) {
	assert.NoError(t, ValidateMetricName("ConsumedReadCapacityUnits"))
	assert.Error(t, ValidateMetricName(""))
	assert.Error(t, ValidateMetricName(" leading"))
	assert.Error(t, ValidateMetricName("bad\x01name"))
}

func TestValidateScalableDimension(t *testing.T) {
	assert.NoError(t, ValidateScalableDimension("dynamodb:table:ReadCapacityUnits"))
	assert.NoError(t, ValidateScalableDimension("dynamodb:index:WriteCapacityUnits"))
	assert.Error(t, ValidateScalableDimension(""))
	assert.Error(t, ValidateScalableDimension("ReadCapacityUnits"))
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		wantErr  bool
	}{
		{"valid", 5, 25, false},
		{"degenerate", 7, 7, false},
		{"zero min", 0, 5, true},
		{"inverted", 10, 5, true},
		{"above default table quota", 42000, 42004, false},
		{"int32 overflow", 1, math.MaxInt32 + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBounds(tt.min, tt.max)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "orders", SanitizeString("  orders\x00 "))
	assert.Equal(t, "a\tb", SanitizeString("a\tb\x07"))
}
