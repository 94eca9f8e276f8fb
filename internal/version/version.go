// Package version exposes the build version, overridden at link time with
// -ldflags "-X github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/version.Version=...".
package version

// Version is the application version.
var Version = "dev"
