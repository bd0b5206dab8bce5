package utils

import (
	"net/url"
	"strings"
)

// sensitiveQueryParams are query parameters that must never appear in logs.
var sensitiveQueryParams = []string{"key", "api_key", "apikey", "token"}

// SanitizeURLForLog returns the URL path and query with credential-bearing
// query parameters redacted.
func SanitizeURLForLog(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveQueryParams {
		if q.Has(p) {
			q.Set(p, "[REDACTED]")
			changed = true
		}
	}
	if !changed {
		return u.RequestURI()
	}
	copied := *u
	copied.RawQuery = q.Encode()
	return copied.RequestURI()
}

// SanitizeProxyURLForLog returns a string form of the URL with user info
// removed so proxy credentials never leak into logs.
func SanitizeProxyURLForLog(u *url.URL) string {
	if u == nil {
		return ""
	}
	copied := *u
	copied.User = nil
	return copied.String()
}

// SanitizeProxyString removes user info from a proxy URL string. If parsing
// fails, it performs a best-effort removal of the userinfo segment.
func SanitizeProxyString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if u, err := url.Parse(s); err == nil {
		return SanitizeProxyURLForLog(u)
	}
	schemeIdx := strings.Index(s, "://")
	atIdx := strings.LastIndex(s, "@")
	if schemeIdx >= 0 && atIdx > schemeIdx+3 {
		return s[:schemeIdx+3] + s[atIdx+1:]
	}
	return s
}
