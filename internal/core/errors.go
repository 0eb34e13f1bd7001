package core

import (
	"errors"
	"fmt"

	"github.com/barysiuk/linkrow/internal/core/platform"
)

// ErrNoProjectFile is returned by LoadProject when the directory holds no
// linkrow project file.
var ErrNoProjectFile = errors.New("no linkrow project file found")

// DependencyNotFoundError reports a requested dependency with no entry in
// the project's dependency set.
type DependencyNotFoundError struct {
	Name string // name after the tag was stripped
	Raw  string // name as requested
}

func (e *DependencyNotFoundError) Error() string {
	if e.Raw != "" && e.Raw != e.Name {
		return fmt.Sprintf("dependency %q (requested as %q) not found", e.Name, e.Raw)
	}
	return fmt.Sprintf("dependency %q not found", e.Name)
}

// UnknownPlatformError reports a platform with no registered adapter.
type UnknownPlatformError struct {
	Platform platform.ID
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("no adapter registered for platform %q", e.Platform)
}

// Hook phases.
const (
	PhasePrelink  = "prelink"
	PhasePostlink = "postlink"
)

// HookExecutionError reports a failing prelink or postlink hook.
type HookExecutionError struct {
	Dependency string
	Phase      string
	Err        error
}

func (e *HookExecutionError) Error() string {
	return fmt.Sprintf("%s hook of %s failed: %v", e.Phase, e.Dependency, e.Err)
}

func (e *HookExecutionError) Unwrap() error { return e.Err }

// RegistrationError reports a failing install probe or registration of a
// dependency into one platform.
type RegistrationError struct {
	Dependency string
	Platform   platform.ID
	Err        error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registering %s for %s: %v", e.Dependency, e.Platform, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// AssetCopyError reports a failing asset copy for one platform. An empty
// Dependency means the project's own assets.
type AssetCopyError struct {
	Dependency string
	Platform   platform.ID
	Err        error
}

func (e *AssetCopyError) Error() string {
	if e.Dependency == "" {
		return fmt.Sprintf("copying project assets for %s: %v", e.Platform, e.Err)
	}
	return fmt.Sprintf("copying assets of %s for %s: %v", e.Dependency, e.Platform, e.Err)
}

func (e *AssetCopyError) Unwrap() error { return e.Err }
