// Package metadata holds build information set with -ldflags -X.
package metadata

import "fmt"

var (
	Version    = "freshest"
	CommitHash = "n/a"
	BuildTime  = "n/a"
)

// String formats the build information for --version.
func String(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", program, Version, CommitHash, BuildTime)
}
