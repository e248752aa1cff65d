package dexkeep

import (
	"runtime/debug"
)

var (
	// Version is set at build time with
	// -ldflags "-X github.com/frantjc/dexkeep.Version=x.y.z".
	Version = "0.0.0"
	// Prerelease is set at build time the same way as Version.
	Prerelease = ""
)

// SemVer returns the semantic version of dexkeep, with the VCS revision
// it was built from as build metadata when known.
func SemVer() string {
	semver := Version
	if Prerelease != "" {
		semver += "-" + Prerelease
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				semver += "+" + setting.Value[:7]
				break
			}
		}
	}

	return semver
}
