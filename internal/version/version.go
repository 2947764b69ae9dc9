package version

import (
	"fmt"
	"runtime"
)

// These variables are set by ldflags during build.
var (
	version   = "dev"     // App version (e.g., v1.0.0)
	buildDate = "unknown" // Build date (RFC3339)
	gitCommit = "unknown" // Git commit SHA
)

// BuildInfo contains version and build details.
type BuildInfo struct {
	Version       string `json:"version"`
	BuildDate     string `json:"buildDate"`
	GitCommit     string `json:"gitCommit"`
	GoVersion     string `json:"goVersion"`
	WatchdogAsset string `json:"watchdogAsset"`
}

// Get returns the build information. watchdogAsset is the version of the
// embedded boot script.
func Get(watchdogAsset string) BuildInfo {
	return BuildInfo{
		Version:       version,
		BuildDate:     buildDate,
		GitCommit:     gitCommit,
		GoVersion:     runtime.Version(),
		WatchdogAsset: watchdogAsset,
	}
}

// String renders the build information on one line
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s, watchdog asset v%s)",
		b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.WatchdogAsset)
}
