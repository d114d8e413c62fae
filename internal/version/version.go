// Package version reports build information for contrastlens.
//
// Release builds set Version, Commit and Date with ldflags. Builds made with
// "go install" or "go build" fall back to the module and VCS stamps the Go
// toolchain embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

var (
	// Version is the semantic version of the application.
	// Set with: -ldflags "-X github.com/jmylchreest/contrastlens/internal/version.Version=x.y.z".
	Version = "dev"

	// Commit is the git commit hash of the build.
	Commit = unknown

	// Date is the build date in RFC3339 format.
	Date = unknown
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info holds all version information for the application.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	infoOnce sync.Once
	info     Info
)

// GetInfo returns the build information, resolved once per process.
func GetInfo() Info {
	infoOnce.Do(func() { info = resolve() })
	return info
}

func resolve() Info {
	i := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return i
	}
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == unknown {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.Date == unknown {
				i.Date = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
	return i
}

// String returns a human-readable version string.
func String() string {
	i := GetInfo()
	if i.Commit == unknown {
		return fmt.Sprintf("contrastlens version %s (%s, %s)", i.Version, i.GoVersion, i.Platform)
	}
	commit := shorten(i.Commit)
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("contrastlens version %s (commit: %s, built: %s, %s, %s)",
		i.Version, commit, i.Date, i.GoVersion, i.Platform)
}

// Short returns the version alone, for --version and /health.
func Short() string {
	return GetInfo().Version
}

// ShortCommit returns the first eight characters of the commit hash.
func ShortCommit() string {
	return shorten(GetInfo().Commit)
}

func shorten(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
