package errors

import (
	"strings"

	"github.com/tidwall/gjson"
)

// maxErrorBodyLength bounds how much of an upstream error body is surfaced.
const maxErrorBodyLength = 2048

// upstreamErrorPaths are the JSON paths providers use for error messages,
// probed in priority order.
var upstreamErrorPaths = []string{
	"error.message",
	"error_msg",
	"error",
	"message",
}

// ParseUpstreamError extracts a human-readable message from an upstream
// error body. Falls back to the raw (truncated) body when no known JSON
// shape matches.
func ParseUpstreamError(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return ""
	}

	if gjson.ValidBytes(body) {
		for _, path := range upstreamErrorPaths {
			result := gjson.GetBytes(body, path)
			if result.Type == gjson.String && result.Str != "" {
				return truncate(strings.TrimSpace(result.Str))
			}
		}
	}

	return truncate(raw)
}

func truncate(s string) string {
	if len(s) > maxErrorBodyLength {
		return s[:maxErrorBodyLength]
	}
	return s
}
