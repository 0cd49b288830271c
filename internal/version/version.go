// Package version carries the beamdec build identity stamped in via ldflags.
package version

// Set at build time, e.g.
// go build -ldflags "-X github.com/MeKo-Tech/beamdec/internal/version.Version=v1.0.0".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, git commit, and build date.
func Info() (version, commit, date string) {
	return Version, GitCommit, BuildDate
}
