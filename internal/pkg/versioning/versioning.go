// Package versioning holds the version-string rules shared by the registry:
// strict semver for mod versions, semver ranges for dependencies, and the
// coercing comparison used to order game versions.
package versioning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NormalizeModVersion strips a leading "v" and returns the canonical strict
// semver string.
func NormalizeModVersion(raw string) (string, error) {
	v, err := ParseModVersion(raw)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func ParseModVersion(raw string) (*semver.Version, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid semver %q: %w", raw, err)
	}
	return v, nil
}

// ParseRange validates a dependency range such as "^1.0.0" or ">=1.2 <2".
func ParseRange(raw string) (*semver.Constraints, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty version range")
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version range %q: %w", raw, err)
	}
	return c, nil
}

// Satisfies reports whether version falls inside rng. Unparseable input never
// satisfies.
func Satisfies(version, rng string) bool {
	v, err := ParseModVersion(version)
	if err != nil {
		return false
	}
	c, err := ParseRange(rng)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// CompareMod orders two mod versions by semver precedence. Unparseable
// versions sort before parseable ones and against each other lexically.
func CompareMod(a, b string) int {
	va, errA := ParseModVersion(a)
	vb, errB := ParseModVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA != nil && errB == nil:
		return -1
	case errA == nil && errB != nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

var coerceRe = regexp.MustCompile(`(?:^|[^\d])(\d{1,16})(?:\.(\d{1,16}))?(?:\.(\d{1,16}))?(?:$|[^\d])`)

// Coerce extracts the first major[.minor[.patch]] run from s, e.g.
// "1.29.1-beta" -> 1.29.1 and "nightly-2024" -> 2024.0.0. Pre-release and
// build suffixes are dropped. ok is false when s holds no digits.
func Coerce(s string) (*semver.Version, bool) {
	m := coerceRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	parts := [3]uint64{}
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return nil, false
		}
		parts[i] = n
	}
	return semver.New(parts[0], parts[1], parts[2], "", ""), true
}

// CompareGame orders game-version strings. Both sides are coerced to semver
// first; if either side fails to coerce the strings are compared lexically.
func CompareGame(a, b string) int {
	va, okA := Coerce(a)
	vb, okB := Coerce(b)
	if okA && okB {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}
