package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tailscale/hujson"

	"github.com/barysiuk/linkrow/internal/core/asset"
	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// modulesKey is the top-level key of a platform modules file.
const modulesKey = "modules"

// basePlatform provides default implementations shared by the built-in
// adapters. Individual adapters embed this and override methods as needed.
type basePlatform struct {
	id            ID
	displayName   string
	sourceDir     string   // project-relative native project directory
	detectSignals []string // glob patterns relative to sourceDir; one must match
	modulesFile   string   // modules file, relative to sourceDir
	modulesFormat string   // "jsonc" or "" (strict JSON)
	assetsDir     string   // asset store, relative to sourceDir
	layout        asset.Layout

	// mu serializes writes to the platform's native files.
	mu sync.Mutex
}

func (b *basePlatform) ID() ID              { return b.id }
func (b *basePlatform) DisplayName() string { return b.displayName }

// Detect looks for the platform's signals below projectRoot/sourceDir.
func (b *basePlatform) Detect(projectRoot string) (Project, bool) {
	dir := filepath.Join(projectRoot, b.sourceDir)
	if !dirExists(dir) {
		return Project{}, false
	}
	for _, sig := range b.detectSignals {
		matches, err := filepath.Glob(filepath.Join(dir, sig))
		if err == nil && len(matches) > 0 {
			return Project{Platform: b.id, Root: projectRoot, SourceDir: dir}, true
		}
	}
	return Project{}, false
}

func (b *basePlatform) LinkConfig(project Project, dep *dependency.Config, params dependency.Values) LinkConfig {
	return b.newLink(project, dep, params)
}

func (b *basePlatform) newLink(project Project, dep *dependency.Config, params dependency.Values) *baseLink {
	return &baseLink{platform: b, project: project, dep: dep, params: params}
}

// ModulesPath returns the modules file of project.
func (b *basePlatform) ModulesPath(project Project) string {
	return filepath.Join(project.SourceDir, filepath.FromSlash(b.modulesFile))
}

// AssetStore returns the asset store of project.
func (b *basePlatform) AssetStore(project Project) asset.Store {
	return asset.Store{
		Dir:    filepath.Join(project.SourceDir, filepath.FromSlash(b.assetsDir)),
		Layout: b.layout,
	}
}

// CopyProjectAssets copies the host project's own assets into its asset
// store. Relative paths are resolved against the project root.
func (b *basePlatform) CopyProjectAssets(ctx context.Context, assets []string, project Project) error {
	_, err := b.AssetStore(project).Copy(ctx, project.Root, assets)
	return err
}

// baseLink registers a dependency as an entry of the platform modules file.
type baseLink struct {
	platform *basePlatform
	project  Project
	dep      *dependency.Config
	params   dependency.Values
}

// moduleEntry is the value written for one dependency in a modules file.
type moduleEntry struct {
	Version   string            `json:"version,omitempty"`
	SourceDir string            `json:"sourceDir"`
	Options   map[string]string `json:"options,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

func (l *baseLink) IsInstalled(ctx context.Context, project Project, dep *dependency.Config) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	root, err := readModules(l.platform.ModulesPath(project))
	if err != nil {
		return false, err
	}
	return root.Find(entryPointer(dep.Name)) != nil, nil
}

func (l *baseLink) Register(ctx context.Context, dep *dependency.Config) error {
	l.platform.mu.Lock()
	defer l.platform.mu.Unlock()
	return l.registerModule(ctx, dep)
}

// registerModule adds or replaces dep's entry in the modules file.
func (l *baseLink) registerModule(ctx context.Context, dep *dependency.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := l.platform.ModulesPath(l.project)
	root, err := readModules(path)
	if err != nil {
		return err
	}

	value, err := l.entryJSON(dep)
	if err != nil {
		return err
	}

	entryPtr := entryPointer(dep.Name)
	op := "add"
	if root.Find(entryPtr) != nil {
		op = "replace"
	}

	// Ensure the top-level modules object exists.
	topKeyPtr := "/" + modulesKey
	if root.Find(topKeyPtr) == nil {
		topKeyPatch := fmt.Sprintf(`[{"op":"add","path":%q,"value":{}}]`, topKeyPtr)
		if err := root.Patch([]byte(topKeyPatch)); err != nil {
			return fmt.Errorf("creating %q in %s: %w", modulesKey, path, err)
		}
	}

	patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, entryPtr, value)
	if err := root.Patch([]byte(patch)); err != nil {
		return fmt.Errorf("writing module entry: %w", err)
	}

	return writeConfigFile(path, string(l.platform.finalize(root)))
}

func (l *baseLink) CopyAssets(ctx context.Context, assets []string, project Project) error {
	_, err := l.platform.AssetStore(project).Copy(ctx, l.dep.Root, assets)
	return err
}

// entryJSON builds the modules file entry for dep.
func (l *baseLink) entryJSON(dep *dependency.Config) (string, error) {
	pc := dep.Platforms[string(l.platform.id)]

	src := filepath.Join(dep.Root, filepath.FromSlash(pc.SourceDir))
	rel, err := filepath.Rel(l.project.SourceDir, src)
	if err != nil {
		rel = src
	}

	entry := moduleEntry{
		Version:   dep.Version,
		SourceDir: filepath.ToSlash(rel),
		Options:   pc.Options,
	}
	if len(l.params) > 0 {
		entry.Params = l.params
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// finalize formats the JSONC AST and produces final output bytes.
func (b *basePlatform) finalize(root *hujson.Value) []byte {
	root.Format()
	removeTrailingCommas(root)

	if b.modulesFormat != "jsonc" {
		root.Standardize()
	}
	return root.Pack()
}

// readModules parses a modules file, treating a missing file as empty.
func readModules(path string) (*hujson.Value, error) {
	content, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if content == "" {
		content = "{}"
	}
	root, err := hujson.Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &root, nil
}

func entryPointer(name string) string {
	return "/" + modulesKey + "/" + jsonPointerEscape(name)
}

// --- Shared Helpers ---

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// readConfigFile reads a config file. Returns empty string if not found.
func readConfigFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// writeConfigFile writes content atomically, creating parent directories.
func writeConfigFile(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// jsonPointerEscape escapes a string for use as a JSON Pointer token (RFC 6901).
func jsonPointerEscape(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			result = append(result, '~', '0')
		case '/':
			result = append(result, '~', '1')
		default:
			result = append(result, s[i])
		}
	}
	return string(result)
}

// removeTrailingCommas walks the JSONC AST and removes trailing commas.
func removeTrailingCommas(v *hujson.Value) {
	switch vv := v.Value.(type) {
	case *hujson.Object:
		for i := range vv.Members {
			removeTrailingCommas(&vv.Members[i].Name)
			removeTrailingCommas(&vv.Members[i].Value)
		}
		if len(vv.Members) > 0 {
			vv.Members[len(vv.Members)-1].Value.AfterExtra = nil
		}
	case *hujson.Array:
		for i := range vv.Elements {
			removeTrailingCommas(&vv.Elements[i])
		}
		if len(vv.Elements) > 0 {
			vv.Elements[len(vv.Elements)-1].AfterExtra = nil
		}
	}
}
