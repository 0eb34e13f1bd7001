package dependency

import (
	"fmt"
	"io"

	"github.com/barysiuk/linkrow/internal/core/manifest"
)

// ManifestBase is the manifest file name without extension.
const ManifestBase = "linkrow-module"

// fileManifest is the on-disk shape of a module manifest.
type fileManifest struct {
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Assets  []string `json:"assets,omitempty"`
	Hooks   struct {
		Prelink  string `json:"prelink,omitempty"`
		Postlink string `json:"postlink,omitempty"`
	} `json:"hooks"`
	Params    []Param                   `json:"params,omitempty"`
	Platforms map[string]PlatformConfig `json:"platforms,omitempty"`
}

// LoadOptions configures how hooks of a loaded module are wired.
type LoadOptions struct {
	Env    []string // base environment for shell hooks
	Stdout io.Writer
	Stderr io.Writer
}

// HasManifest reports whether dir contains a module manifest.
func HasManifest(dir string) bool {
	return manifest.Find(dir, ManifestBase) != ""
}

// Load reads the module manifest in dir.
func Load(dir string, opts LoadOptions) (*Config, error) {
	path := manifest.Find(dir, ManifestBase)
	if path == "" {
		return nil, fmt.Errorf("no %s manifest in %s", ManifestBase, dir)
	}

	var m fileManifest
	if err := manifest.Load(path, manifest.SchemaModule, &m); err != nil {
		return nil, err
	}

	cfg := &Config{
		Name:      m.Name,
		Version:   m.Version,
		Root:      dir,
		Assets:    m.Assets,
		Params:    m.Params,
		Platforms: m.Platforms,
	}
	if cfg.Assets == nil {
		cfg.Assets = []string{}
	}
	if cfg.Platforms == nil {
		cfg.Platforms = map[string]PlatformConfig{}
	}

	if m.Hooks.Prelink != "" {
		h := newShellHook("prelink", m.Hooks.Prelink, cfg, opts)
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Hooks.Prelink = h
	}
	if m.Hooks.Postlink != "" {
		h := newShellHook("postlink", m.Hooks.Postlink, cfg, opts)
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Hooks.Postlink = h
	}

	return cfg, nil
}

func newShellHook(name, script string, cfg *Config, opts LoadOptions) *ShellHook {
	return &ShellHook{
		Name:       name,
		Script:     script,
		Dir:        cfg.Root,
		Env:        opts.Env,
		Dependency: cfg.Name,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
	}
}
