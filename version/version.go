package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/tracegraph/errors"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// devVersion stands in for untagged builds when checking constraints.
const devVersion = "0.0.0-dev"

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("tracegraph %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("tracegraph dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Check verifies that the running version satisfies constraint.
// Development builds satisfy every constraint.
func Check(constraint string) error {
	return CheckVersion(Version, constraint)
}

// CheckVersion verifies that running satisfies constraint. An empty
// constraint always passes.
func CheckVersion(running, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %q", constraint)
	}
	if running == "" || running == "dev" {
		return nil
	}
	v, err := semver.NewVersion(running)
	if err != nil {
		return errors.Wrapf(err, "invalid tracegraph version %q", running)
	}
	if !c.Check(v) {
		return errors.WithHint(
			errors.Newf("configuration requires tracegraph %s, but running %s", constraint, running),
			"upgrade tracegraph or relax minimum_version")
	}
	return nil
}
