// Package version provides build information for the binaries
package version

import "fmt"

// BuildInfo holds version information about a binary build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// String renders the one-line form printed by -version
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", b.Service, b.Version, b.Commit, b.Date)
}

// Info returns the build information for service.
// Set via -ldflags "-X 'vqamerge/internal/core/version.version=v0.1.0'
// -X 'vqamerge/internal/core/version.commit=abcd' -X 'vqamerge/internal/core/version.date=2025-09-02'"
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// Version returns the bare version string
func Version() string { return version }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
