package app

import "fmt"

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// VersionString is printed by the -version flag.
func VersionString() string {
	return fmt.Sprintf("travelmail %s (commit %s, built %s)", BuildVersion, BuildCommit, BuildDate)
}
