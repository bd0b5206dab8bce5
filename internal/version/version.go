// Package version exposes the build version of the relay.
package version

// Version is the application version. Overridden at build time via
// -ldflags "-X chat-relay/internal/version.Version=<semver>".
var Version = "1.0.0"
