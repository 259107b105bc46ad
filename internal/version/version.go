package version

import (
	"fmt"
	"runtime/debug"
)

// Name is the program name reported to remote services
const Name = "ephemeris-cfg"

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/ephemeris/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/ephemeris/internal/version.Commit=abc123"
var (
	Version = ""
	Commit  = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fill(info)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fill takes whatever ldflags left empty from the module version and the
// VCS stamp
func fill(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	if Commit != "" {
		return
	}

	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value
			if len(Commit) > 7 {
				Commit = Commit[:7]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if Commit != "" && dirty {
		Commit += "-dirty"
	}
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies HTTP requests made by ephemeris-cfg
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Name, Version)
}
