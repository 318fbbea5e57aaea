// Package version reports the build version of lookaround.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/lookaround/lookaround/internal/version.Version=v0.3.0 \
//	                   -X github.com/lookaround/lookaround/internal/version.Commit=abc123"
//
// If not set, they are populated from VCS build info when available, or
// fall back to "dev" with a timestamp.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

// Info is the version information printed by `lookaround version`
type Info struct {
	Version   string
	Commit    string
	GoVersion string
	Platform  string
}

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			Version, Commit = fromBuildSettings(Version, Commit, info.Settings)
		}
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildSettings fills whichever of version and commit is empty from the
// VCS settings embedded by the Go toolchain.
func fromBuildSettings(version, commit string, settings []debug.BuildSetting) (string, string) {
	var revision, modified, vcsTime string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if commit == "" && revision != "" {
		commit = revision
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if modified == "true" {
			commit += "-dirty"
		}
	}

	// Build info carries no tags, so the best version is a dated dev build
	if version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			version = "dev-" + t.Format("20060102")
		}
	}
	return version, commit
}

// Get returns the current build's version information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
