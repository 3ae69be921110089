// Package version holds build metadata injected via ldflags, e.g.
//
//	-X github.com/kailas-cloud/signalsearch/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the build metadata as a JSON-friendly value.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build metadata.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String formats the metadata for a binary named bin.
func String(bin string) string {
	return fmt.Sprintf("%s %s (%s, %s)", bin, Version, Commit, Date)
}
