// Package version holds build metadata for the squint binary.
package version

import "runtime"

// Overridden at build time:
// go build -ldflags "-X squint/internal/version.Version=0.3.0 -X squint/internal/version.Commit=abc123"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, with the short commit when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns a multi-line description for `squint version`.
func Full() string {
	return "squint version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}

// Fields returns build metadata for structured output.
func Fields() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"buildDate": BuildDate,
		"go":        runtime.Version(),
	}
}
