package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Config files should be within 2 minor versions of the binary
const MinorVersionCompatibility = 2

// CompatibilityChecker handles version compatibility checking between the
// running binary and artifacts it reads, such as config files written by
// another release.
type CompatibilityChecker struct {
	binaryVersion Info
}

// NewCompatibilityChecker creates a checker pinned to the running binary's
// version.
func NewCompatibilityChecker() *CompatibilityChecker {
	return &CompatibilityChecker{
		binaryVersion: Get(),
	}
}

// CheckCompatibility checks whether an artifact written by otherVersion can
// be used by this binary. Unparseable versions on either side are treated
// as compatible, so development builds keep working.
func (c *CompatibilityChecker) CheckCompatibility(otherVersion string) error {
	if otherVersion == "" {
		return nil
	}

	mine, err := semver.NewVersion(c.binaryVersion.GitVersion)
	if err != nil {
		return nil
	}
	other, err := semver.NewVersion(otherVersion)
	if err != nil {
		return nil
	}

	if mine.Major() != other.Major() {
		return fmt.Errorf("version incompatibility detected: binary %s vs file %s (different major versions)",
			c.binaryVersion.GitVersion, otherVersion)
	}

	delta := int64(mine.Minor()) - int64(other.Minor())
	if delta > MinorVersionCompatibility || delta < -MinorVersionCompatibility {
		return fmt.Errorf("version incompatibility detected: binary %s vs file %s (minor delta exceeds %d)",
			c.binaryVersion.GitVersion, otherVersion, MinorVersionCompatibility)
	}

	return nil
}
