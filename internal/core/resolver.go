package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// ParseDependencyName splits a raw dependency identifier into its name and
// an optional version or tag. The split happens on the last "@" that is not
// the first character, so "@scope/name@1.2" yields "@scope/name" and "1.2".
func ParseDependencyName(raw string) (name, tag string) {
	i := strings.LastIndex(raw, "@")
	if i <= 0 {
		return raw, ""
	}
	return raw[:i], raw[i+1:]
}

// Resolve looks up the dependency named by raw. The tag is stripped and
// not used for lookup.
func Resolve(raw string, deps DependencySet) (*dependency.Config, error) {
	name, _ := ParseDependencyName(raw)
	if deps == nil {
		return nil, &DependencyNotFoundError{Name: name, Raw: raw}
	}
	dep, err := deps.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("loading dependency %q: %w", name, err)
	}
	if dep == nil {
		return nil, &DependencyNotFoundError{Name: name, Raw: raw}
	}
	return dep, nil
}

// tagMismatch reports whether tag is a semver constraint that version does
// not satisfy. Tags that are not constraints (e.g. "latest") and versions
// that do not parse never mismatch.
func tagMismatch(tag, version string) bool {
	if tag == "" || version == "" {
		return false
	}
	c, err := semver.NewConstraint(tag)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return !c.Check(v)
}
