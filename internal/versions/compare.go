package versions

import "github.com/Masterminds/semver/v3"

// IsNewerVersion reports whether other is a strictly greater release than
// current. Anything that does not parse as semver, development builds
// included, is never considered newer.
func IsNewerVersion(other, current string) bool {
	otherSemver, err := semver.NewVersion(other)
	if err != nil {
		return false
	}
	currentSemver, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return otherSemver.GreaterThan(currentSemver)
}
