// Package version holds build metadata injected by the magefile.
package version

import "fmt"

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the build metadata on one line.
func String() string {
	return fmt.Sprintf("qatally %s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
