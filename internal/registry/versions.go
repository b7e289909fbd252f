package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type parsedVersion struct {
	raw string
	v   *semver.Version
}

// parseAll drops strings that are not semantic versions.
func parseAll(versions []string) []parsedVersion {
	out := make([]parsedVersion, 0, len(versions))
	for _, raw := range versions {
		v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
		if err != nil {
			continue
		}
		out = append(out, parsedVersion{raw: raw, v: v})
	}
	return out
}

func sortParsed(pv []parsedVersion) {
	sort.SliceStable(pv, func(i, j int) bool {
		return pv[i].v.GreaterThan(pv[j].v)
	})
}

// SortDescending returns the valid versions ordered newest first by semver
// precedence. Invalid version strings are dropped. The input is not modified.
func SortDescending(versions []string) []string {
	pv := parseAll(versions)
	sortParsed(pv)
	out := make([]string, len(pv))
	for i, p := range pv {
		out[i] = p.raw
	}
	return out
}

// Newest returns the highest-precedence version, or "" for an empty list.
func Newest(versions []string) string {
	sorted := SortDescending(versions)
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}

// NewestSatisfying returns the highest version compatible with base under a
// caret range (^base), or "" when none qualifies.
func NewestSatisfying(base string, versions []string) (string, error) {
	c, err := semver.NewConstraint("^" + strings.TrimPrefix(base, "v"))
	if err != nil {
		return "", fmt.Errorf("parsing base version %q: %w", base, err)
	}
	return newestMatching(c, versions), nil
}

// NewestInRange returns the highest version satisfying an arbitrary range
// expression such as "~1.2.0" or ">=2 <3", or "" when none qualifies.
func NewestInRange(expr string, versions []string) (string, error) {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return "", fmt.Errorf("parsing version range %q: %w", expr, err)
	}
	return newestMatching(c, versions), nil
}

func newestMatching(c *semver.Constraints, versions []string) string {
	pv := parseAll(versions)
	sortParsed(pv)
	for _, p := range pv {
		if c.Check(p.v) {
			return p.raw
		}
	}
	return ""
}

// IsExact reports whether s is a single concrete version rather than a
// range, tag, or the latest sentinel.
func IsExact(s string) bool {
	if s == "" || s == Latest {
		return false
	}
	_, err := semver.StrictNewVersion(strings.TrimPrefix(s, "v"))
	return err == nil
}
