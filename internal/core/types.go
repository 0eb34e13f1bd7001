// Package core provides the business logic for linkrow.
// It has zero UI dependencies and is independently testable.
package core

import (
	"sort"

	"github.com/barysiuk/linkrow/internal/core/dependency"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

// ProjectConfig is everything a link invocation needs to know about the
// host project.
type ProjectConfig struct {
	Root string

	// Project lists the platforms physically present in the host project,
	// in project file order (or detection order when not declared).
	Project []platform.Project

	// Platforms holds the available adapters.
	Platforms map[platform.ID]platform.Adapter

	Dependencies DependencySet

	// Assets are project-level assets. They are never copied on behalf of
	// a dependency.
	Assets []string
}

// ProjectPlatform returns the project entry for id, if present.
func (c *ProjectConfig) ProjectPlatform(id platform.ID) (platform.Project, bool) {
	for _, p := range c.Project {
		if p.Platform == id {
			return p, true
		}
	}
	return platform.Project{}, false
}

// DependencySet gives access to the dependencies known to a project.
// Lookup returns nil, nil when name has no entry.
type DependencySet interface {
	Lookup(name string) (*dependency.Config, error)
	Names() ([]string, error)
}

// Dependencies is an eagerly populated DependencySet.
type Dependencies map[string]*dependency.Config

func (d Dependencies) Lookup(name string) (*dependency.Config, error) {
	return d[name], nil
}

func (d Dependencies) Names() ([]string, error) {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LinkOptions configures a link invocation.
type LinkOptions struct {
	// Platforms restricts linking to these platforms. Empty means all
	// platforms common to the project and the dependency.
	Platforms []platform.ID

	// Params override the declared param defaults of every dependency.
	Params map[string]string

	// Concurrency is the number of dependencies linked at once. Values
	// below 2 link sequentially.
	Concurrency int

	// FailFast stops linking further dependencies after the first failure.
	FailFast bool
}

// Outcome is what happened to a dependency on one platform.
type Outcome string

const (
	OutcomeRegistered       Outcome = "registered"
	OutcomeAlreadyInstalled Outcome = "already-installed"
	OutcomeFailed           Outcome = "failed"
)

// PlatformResult is the outcome of linking one dependency into one platform.
type PlatformResult struct {
	Platform     platform.ID
	Outcome      Outcome
	AssetsCopied bool
	Err          error
}

// DependencyResult is the outcome of linking one requested dependency.
type DependencyResult struct {
	Requested  string // raw name as requested
	Dependency *dependency.Config
	Platforms  []PlatformResult
	Skipped    bool // not attempted because of FailFast
	Err        error
}

// ProjectAssetResult is the outcome of copying the project's own assets
// into one platform.
type ProjectAssetResult struct {
	Platform platform.ID
	Copied   bool
	Err      error
}

// LinkResult collects the outcome of a link invocation in request order.
type LinkResult struct {
	Dependencies []DependencyResult

	// ProjectAssets is filled by LinkAll only, in project order.
	ProjectAssets []ProjectAssetResult
}

// Linked returns the results that produced a resolved dependency with at
// least one platform that did not fail.
func (r *LinkResult) Linked() []DependencyResult {
	var out []DependencyResult
	for _, d := range r.Dependencies {
		if d.Dependency == nil {
			continue
		}
		for _, p := range d.Platforms {
			if p.Outcome != OutcomeFailed {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// LockFile represents the linkrow.lock.json file that records linked modules.
type LockFile struct {
	LockVersion int            `json:"lockVersion"`
	Modules     []LockedModule `json:"modules"`
}

// LockedModule is a single linked module entry in the lock file.
type LockedModule struct {
	Name      string   `json:"name"`
	Version   string   `json:"version,omitempty"`
	Platforms []string `json:"platforms"`
	Assets    []string `json:"assets,omitempty"`
}
