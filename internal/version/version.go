package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  string
	Date    string
)

// String renders a one-line build description for the -version flag.
func String() string {
	s := fmt.Sprintf("gallery-api %s", Version)
	if Commit != "" {
		s += fmt.Sprintf(" (%s)", shortCommit())
	}
	if Date != "" {
		s += fmt.Sprintf(" built %s", Date)
	}
	return fmt.Sprintf("%s %s %s/%s", s, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
