// Package version holds the build version, overridden via -ldflags.
package version

// Version is set at build time.
var Version = "dev"
