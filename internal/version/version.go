// Package version carries build-time version information for GoDesk.
// The variables are stamped via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version, or the branch name on untagged builds.
	Version = "dev"

	// GitCommit is the short git commit SHA.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info is the structured version payload.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// GetInfo returns the current version info.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String returns a short human-readable version string.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}

// Full returns the version with build metadata.
func Full() string {
	return fmt.Sprintf("%s (%s) built %s with %s", Version, GitCommit, BuildDate, runtime.Version())
}
