// Package protover holds the stub's protocol version and checks it against
// a semver constraint. No qRspVersion query is answered with it:
// gdbserver.Server's dispatch has no case for that name, and
// cmd/rsp-stub-server only logs String() at startup. It is grounded on the
// teacher's own semver.Constraints usage in internal/packagemanager/resolver.go.
package protover

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"
)

// Version is the stub's own protover version, bumped whenever the extended
// query surface (qXfer annexes, vCont modes, etc.) changes in a
// backward-incompatible way.
var Version = semver.MustParse("1.0.0")

// Satisfies reports whether Version satisfies a semver constraint
// expression (e.g. ">=1.0.0, <2.0.0"). A malformed constraint is reported as an error
// rather than silently treated as satisfied or not.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("protover: invalid constraint %q: %w", constraint, err)
	}

	return c.Check(Version), nil
}

// String renders the stub's version, e.g. "1.0.0".
func String() string {
	return Version.String()
}
