package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the value of the environment variable or the
// provided default when unset or blank.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// ParseInteger parses s as an int, falling back to defaultValue when s is
// empty or malformed.
func ParseInteger(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return v
}

// ParseBoolean parses s as a bool, falling back to defaultValue when s is
// empty or malformed. Accepts the forms strconv.ParseBool accepts.
func ParseBoolean(s string, defaultValue bool) bool {
	if s == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return v
}
