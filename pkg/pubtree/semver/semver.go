// Package semver implements the simplified semantic-version matching used to
// decide whether an installed package satisfies a requested constraint.
// It supports exact versions, caret and tilde ranges, and the comparison
// operators =, >, >=, <, <=. The comparator is a pure function over parsed
// (major, minor, patch) triples and carries no package-manager knowledge, so
// it can be replaced by a full semver library without touching the engine.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersion is returned when a version string cannot be parsed.
var ErrInvalidVersion = errors.New("invalid semantic version")

// ErrInvalidConstraint is returned when a constraint string cannot be parsed.
var ErrInvalidConstraint = errors.New("invalid version constraint")

// Version is a parsed semantic version. Prerelease is kept only for display
// and exact comparison; range operators ignore it.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// String returns the canonical version string.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Parse parses a version like "1.2.3", "v1.2.3" or "1.2.3-beta.1".
// Missing minor or patch components default to zero.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(s, "v"))
	if raw == "" {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	var pre string
	if i := strings.IndexByte(raw, '-'); i >= 0 {
		pre = raw[i+1:]
		raw = raw[:i]
	}
	// Build metadata is ignored for ordering.
	if i := strings.IndexByte(raw, '+'); i >= 0 {
		raw = raw[:i]
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

// Compare returns -1, 0 or 1 ordering a against b by (major, minor, patch).
// Prerelease tags are ignored.
func Compare(a, b Version) int {
	switch {
	case a.Major != b.Major:
		return sign(a.Major - b.Major)
	case a.Minor != b.Minor:
		return sign(a.Minor - b.Minor)
	case a.Patch != b.Patch:
		return sign(a.Patch - b.Patch)
	default:
		return 0
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Satisfies reports whether version satisfies constraint. An empty constraint
// or "*"/"latest" accepts any version. A bare version is an exact match.
func Satisfies(version, constraint string) (bool, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || constraint == "*" || constraint == "latest" {
		return true, nil
	}

	v, err := Parse(version)
	if err != nil {
		return false, err
	}

	op, rest := splitOperator(constraint)
	want, err := Parse(rest)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidConstraint, constraint)
	}

	return matches(op, v, want), nil
}

// splitOperator separates the leading operator from the version part.
func splitOperator(c string) (op, rest string) {
	switch {
	case strings.HasPrefix(c, ">="):
		return ">=", c[2:]
	case strings.HasPrefix(c, "<="):
		return "<=", c[2:]
	case strings.HasPrefix(c, "^"):
		return "^", c[1:]
	case strings.HasPrefix(c, "~"):
		return "~", c[1:]
	case strings.HasPrefix(c, ">"):
		return ">", c[1:]
	case strings.HasPrefix(c, "<"):
		return "<", c[1:]
	case strings.HasPrefix(c, "="):
		return "=", c[1:]
	default:
		return "=", c
	}
}

// matches maps each operator to its predicate.
func matches(op string, v, want Version) bool {
	switch op {
	case "=":
		return Compare(v, want) == 0 && v.Prerelease == want.Prerelease
	case ">":
		return Compare(v, want) > 0
	case ">=":
		return Compare(v, want) >= 0
	case "<":
		return Compare(v, want) < 0
	case "<=":
		return Compare(v, want) <= 0
	case "^":
		return caretMatch(v, want)
	case "~":
		return tildeMatch(v, want)
	default:
		return false
	}
}

// caretMatch allows changes that do not modify the leftmost non-zero component.
func caretMatch(v, want Version) bool {
	if Compare(v, want) < 0 {
		return false
	}
	switch {
	case want.Major != 0:
		return v.Major == want.Major
	case want.Minor != 0:
		return v.Major == 0 && v.Minor == want.Minor
	default:
		return v.Major == 0 && v.Minor == 0 && v.Patch == want.Patch
	}
}

// tildeMatch allows patch-level changes within the constraint's minor version.
func tildeMatch(v, want Version) bool {
	if Compare(v, want) < 0 {
		return false
	}
	return v.Major == want.Major && v.Minor == want.Minor
}
