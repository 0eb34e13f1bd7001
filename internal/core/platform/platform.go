// Package platform defines the Adapter abstraction for linkrow.
//
// An Adapter represents one native build target (iOS, Android, Windows).
// It knows how to detect the target in a host project and hands out a
// LinkConfig per dependency that checks, performs and completes the
// registration of that dependency into the target's native project.
//
// Adapters are plain values: Builtin returns a fresh set on every call and
// nothing is registered globally.
package platform

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// ID identifies a platform, e.g. "ios".
type ID string

const (
	IOS     ID = "ios"
	Android ID = "android"
	Windows ID = "windows"
)

// Project is one platform as it exists in the host project.
type Project struct {
	Platform  ID
	Root      string // host project root
	SourceDir string // absolute path of the platform's native project
}

// Adapter produces LinkConfigs for one platform.
type Adapter interface {
	ID() ID
	DisplayName() string

	// Detect reports whether the platform's native project exists under
	// projectRoot, and where.
	Detect(projectRoot string) (Project, bool)

	// LinkConfig builds the per-dependency capability handle.
	LinkConfig(project Project, dep *dependency.Config, params dependency.Values) LinkConfig
}

// LinkConfig checks and performs the registration of one dependency into
// one platform. IsInstalled may read native project files.
type LinkConfig interface {
	IsInstalled(ctx context.Context, project Project, dep *dependency.Config) (bool, error)
	Register(ctx context.Context, dep *dependency.Config) error
}

// AssetCopier is the optional asset capability of a LinkConfig.
type AssetCopier interface {
	CopyAssets(ctx context.Context, assets []string, project Project) error
}

// ProjectAssetCopier is the optional capability of an Adapter to copy the
// host project's own assets, as opposed to a dependency's.
type ProjectAssetCopier interface {
	CopyProjectAssets(ctx context.Context, assets []string, project Project) error
}

// Builtin returns new instances of every built-in adapter, in detection order.
func Builtin() []Adapter {
	return []Adapter{NewIOS(), NewAndroid(), NewWindows()}
}

// Map indexes adapters by ID.
func Map(adapters []Adapter) map[ID]Adapter {
	m := make(map[ID]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ID()] = a
	}
	return m
}

// ParseIDs converts platform names to IDs, validating them against the
// available adapters.
func ParseIDs(names []string, available map[ID]Adapter) ([]ID, error) {
	ids := make([]ID, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id := ID(name)
		if _, ok := available[id]; !ok {
			return nil, fmt.Errorf("unknown platform %q; available: %s",
				name, strings.Join(Names(available), ", "))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Names returns the sorted IDs of the given adapters as strings.
func Names(adapters map[ID]Adapter) []string {
	names := make([]string, 0, len(adapters))
	for id := range adapters {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}
