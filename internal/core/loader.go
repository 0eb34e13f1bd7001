package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joho/godotenv"

	"github.com/barysiuk/linkrow/internal/core/dependency"
	"github.com/barysiuk/linkrow/internal/core/manifest"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

const (
	// ProjectFileBase is the project file name without extension.
	ProjectFileBase = "linkrow"

	// DefaultModulesDir is where dependencies live when the project file
	// does not say otherwise.
	DefaultModulesDir = "modules"

	envFileName      = ".env"
	defaultCacheSize = 256
)

// projectFile is the on-disk shape of linkrow.{yaml,json,toml}.
type projectFile struct {
	ModulesDir string   `json:"modulesDir,omitempty"`
	Assets     []string `json:"assets,omitempty"`
	Project    []struct {
		Platform  string `json:"platform"`
		SourceDir string `json:"sourceDir,omitempty"`
	} `json:"project,omitempty"`
}

// LoadOptions configures LoadProject.
type LoadOptions struct {
	// ModulesDir overrides the project file's modulesDir. Relative paths
	// are resolved against the project root.
	ModulesDir string

	// Adapters are the available platform adapters. Nil means
	// platform.Builtin().
	Adapters []platform.Adapter

	// Stdout and Stderr receive the output of shell hooks.
	Stdout io.Writer
	Stderr io.Writer

	// CacheSize bounds the number of parsed module manifests kept in memory.
	CacheSize int
}

// ProjectFilePath returns the project file in root, or "" if there is none.
func ProjectFilePath(root string) string {
	return manifest.Find(root, ProjectFileBase)
}

// LoadProject reads the project file in root and builds the ProjectConfig
// for a link invocation. Dependencies are loaded from the modules directory
// on first lookup.
func LoadProject(root string, opts LoadOptions) (*ProjectConfig, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	path := ProjectFilePath(root)
	if path == "" {
		return nil, fmt.Errorf("%w in %s", ErrNoProjectFile, root)
	}
	var pf projectFile
	if err := manifest.Load(path, manifest.SchemaProject, &pf); err != nil {
		return nil, err
	}

	adapters := opts.Adapters
	if adapters == nil {
		adapters = platform.Builtin()
	}

	cfg := &ProjectConfig{
		Root:      root,
		Platforms: platform.Map(adapters),
		Assets:    pf.Assets,
	}
	if cfg.Assets == nil {
		cfg.Assets = []string{}
	}

	if len(pf.Project) > 0 {
		seen := make(map[platform.ID]bool, len(pf.Project))
		for _, p := range pf.Project {
			id := platform.ID(p.Platform)
			if seen[id] {
				return nil, fmt.Errorf("%s: platform %q declared twice", path, id)
			}
			seen[id] = true

			srcDir := p.SourceDir
			if srcDir == "" {
				srcDir = p.Platform
			}
			cfg.Project = append(cfg.Project, platform.Project{
				Platform:  id,
				Root:      root,
				SourceDir: resolvePath(root, srcDir),
			})
		}
	} else {
		cfg.Project = DetectPlatforms(root, adapters)
	}

	env, err := hookEnv(root)
	if err != nil {
		return nil, err
	}

	modulesDir := pf.ModulesDir
	if opts.ModulesDir != "" {
		modulesDir = opts.ModulesDir
	}
	if modulesDir == "" {
		modulesDir = DefaultModulesDir
	}

	set, err := NewModuleSet(resolvePath(root, modulesDir), dependency.LoadOptions{
		Env:    env,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	}, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	cfg.Dependencies = set
	return cfg, nil
}

// DetectPlatforms returns the platforms whose native project exists under
// root, in adapter order.
func DetectPlatforms(root string, adapters []platform.Adapter) []platform.Project {
	var found []platform.Project
	for _, a := range adapters {
		if p, ok := a.Detect(root); ok {
			found = append(found, p)
		}
	}
	return found
}

// hookEnv is the base environment of shell hooks: the process environment
// followed by the project's .env file, if any.
func hookEnv(root string) ([]string, error) {
	env := os.Environ()

	path := filepath.Join(root, envFileName)
	if !fileExists(path) {
		return env, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}

// ModuleSet is a DependencySet backed by a modules directory. Each module
// lives in <dir>/<name> (scoped modules in <dir>/@scope/name) and is parsed
// on first lookup.
type ModuleSet struct {
	dir   string
	opts  dependency.LoadOptions
	cache *lru.Cache[string, *dependency.Config]
}

// NewModuleSet creates a ModuleSet over dir. size bounds the manifest
// cache; zero or less selects a default.
func NewModuleSet(dir string, opts dependency.LoadOptions, size int) (*ModuleSet, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *dependency.Config](size)
	if err != nil {
		return nil, fmt.Errorf("creating manifest cache: %w", err)
	}
	return &ModuleSet{dir: dir, opts: opts, cache: cache}, nil
}

// Dir returns the modules directory.
func (s *ModuleSet) Dir() string { return s.dir }

// Lookup returns the module called name, or nil if it is not installed.
func (s *ModuleSet) Lookup(name string) (*dependency.Config, error) {
	if cfg, ok := s.cache.Get(name); ok {
		return cfg, nil
	}
	if !validModuleName(name) {
		return nil, nil
	}

	dir := filepath.Join(s.dir, filepath.FromSlash(name))
	if !dependency.HasManifest(dir) {
		return nil, nil
	}
	cfg, err := dependency.Load(dir, s.opts)
	if err != nil {
		return nil, err
	}
	if cfg.Name != name {
		return nil, fmt.Errorf("module in %s declares name %q, expected %q", dir, cfg.Name, name)
	}
	s.cache.Add(name, cfg)
	return cfg, nil
}

// Names lists the installed modules, sorted.
func (s *ModuleSet) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading modules directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !strings.HasPrefix(e.Name(), "@") {
			if dependency.HasManifest(filepath.Join(s.dir, e.Name())) {
				names = append(names, e.Name())
			}
			continue
		}

		scoped, err := os.ReadDir(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading scope %s: %w", e.Name(), err)
		}
		for _, se := range scoped {
			if se.IsDir() && dependency.HasManifest(filepath.Join(s.dir, e.Name(), se.Name())) {
				names = append(names, e.Name()+"/"+se.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// validModuleName accepts "name" and "@scope/name".
func validModuleName(name string) bool {
	parts := strings.Split(name, "/")
	switch {
	case len(parts) == 1:
		return isPathSegment(parts[0]) && !strings.HasPrefix(name, "@")
	case len(parts) == 2:
		return strings.HasPrefix(parts[0], "@") && isPathSegment(parts[0][1:]) && isPathSegment(parts[1])
	default:
		return false
	}
}

func isPathSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `\:`)
}
