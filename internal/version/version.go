// Package version holds the build metadata of the costopt binary and the
// Lambda bootstrap. Release builds set the variables via -ldflags.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the string printed by "costopt version".
func Info() string {
	return fmt.Sprintf("costopt version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent is appended to AWS SDK requests so API calls can be attributed
// in CloudTrail.
func UserAgent() string {
	return "finops-lambdas/" + Version
}
