package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// DynamoDB table names: 3-255 chars of letters, digits, underscore, hyphen and dot
	tableNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,255}$`)

	// CloudWatch metric names: printable ASCII, 1-255 chars
	metricNameRegex = regexp.MustCompile(`^[\x21-\x7E][\x20-\x7E]{0,254}$`)

	// Application Auto Scaling dimensions look like "service:resource:Property"
	scalableDimensionRegex = regexp.MustCompile(`^[a-z0-9-]+:[a-zA-Z0-9-]+:[A-Za-z]+$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateTableName checks if a DynamoDB table name is valid
func ValidateTableName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return errors.New("table name cannot be empty")
	}

	if len(name) < 3 {
		return errors.New("table name must be at least 3 characters")
	}

	if len(name) > 255 {
		return errors.New("table name must not exceed 255 characters")
	}

	if !tableNameRegex.MatchString(name) {
		return errors.New("table name must contain only letters, numbers, underscores, hyphens, and dots")
	}

	return nil
}

// ValidateMetricName checks if a CloudWatch metric name is valid
func ValidateMetricName(name string) error {
	if name == "" {
		return errors.New("metric name cannot be empty")
	}

	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("metric name %q contains invalid characters", name)
	}

	return nil
}

// ValidateScalableDimension checks the shape of a scalable dimension identifier
func ValidateScalableDimension(dimension string) error {
	if dimension == "" {
		return errors.New("scalable dimension cannot be empty")
	}

	if !scalableDimensionRegex.MatchString(dimension) {
		return fmt.Errorf("scalable dimension %q must look like namespace:resource:Property", dimension)
	}

	return nil
}

// ValidateBounds checks if min/max capacity bounds are valid
func ValidateBounds(min, max int) error {
	if min < 1 {
		return fmt.Errorf("%w: minimum capacity must be at least 1", ErrInvalidInput)
	}

	if max < min {
		return fmt.Errorf("%w: maximum capacity must be greater than or equal to minimum capacity", ErrInvalidInput)
	}

	// capacities travel as int32 on the wire; quotas are the registry's call
	if max > math.MaxInt32 {
		return fmt.Errorf("%w: maximum capacity %d overflows int32", ErrInvalidInput, max)
	}

	return nil
}
