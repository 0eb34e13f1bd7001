// Package dependency models a third-party native module as its manifest
// declares it: the assets it ships, the lifecycle hooks it wants run around
// linking, the params those hooks accept, and which platforms it supports.
//
// The package has no knowledge of platforms or of the host project; both
// the platform adapters and the link orchestrator consume it.
package dependency

import (
	"context"
	"sort"
)

// Config is a resolved dependency entry.
type Config struct {
	Name    string
	Version string
	Root    string // directory holding the module and its manifest

	// Assets are paths relative to Root, in declaration order.
	Assets []string
	Hooks  Hooks
	Params []Param

	// Platforms holds per-platform native metadata. Presence of a key means
	// the dependency supports that platform.
	Platforms map[string]PlatformConfig
}

// PlatformConfig is the platform-specific part of a dependency manifest.
type PlatformConfig struct {
	SourceDir string            `json:"sourceDir,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
}

// Supports reports whether the dependency declares the given platform.
func (c *Config) Supports(platform string) bool {
	_, ok := c.Platforms[platform]
	return ok
}

// PlatformNames returns the declared platforms sorted by name.
func (c *Config) PlatformNames() []string {
	names := make([]string, 0, len(c.Platforms))
	for name := range c.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hooks are the optional lifecycle callbacks of a dependency.
type Hooks struct {
	Prelink  Hook
	Postlink Hook
}

// Hook is a lifecycle callback run before or after registration.
type Hook interface {
	Run(ctx context.Context, params Values) error
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, params Values) error

func (f HookFunc) Run(ctx context.Context, params Values) error { return f(ctx, params) }

// Param is a value a dependency asks for when it is linked.
type Param struct {
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
	Default string `json:"default,omitempty"`
}

// Values are resolved param values keyed by param name.
type Values map[string]string

// ResolveValues picks a value for every declared param: an override wins,
// otherwise the declared default is used. Overrides for params the
// dependency does not declare are ignored.
func ResolveValues(params []Param, overrides map[string]string) Values {
	values := make(Values, len(params))
	for _, p := range params {
		if v, ok := overrides[p.Name]; ok {
			values[p.Name] = v
			continue
		}
		values[p.Name] = p.Default
	}
	return values
}
