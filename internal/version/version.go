// Package version holds datasplit build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/kailas-cloud/datasplit/internal/version.Version=v1.2.0"
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for `datasplit version`.
func String() string {
	return fmt.Sprintf("datasplit %s (commit %s, built %s)", Version, Commit, Date)
}
