package sandbox

import (
	"github.com/Masterminds/semver/v3"
)

// Version is the sandbox server version.
const Version = "0.3.0"

// ApiVersion is the sessions API version served.
const ApiVersion = "v1"

// versionConstraint accepts servers with the same major and minor version.
var versionConstraint *semver.Constraints

func init() {
	var err error
	versionConstraint, err = semver.NewConstraint("~" + Version)
	if err != nil {
		panic(err)
	}
}

// IsVersionCompatible reports whether a server reporting version can be used with
// this build. Invalid version strings are incompatible.
func IsVersionCompatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return versionConstraint.Check(v)
}
