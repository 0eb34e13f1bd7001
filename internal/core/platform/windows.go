package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/barysiuk/linkrow/internal/core/asset"
	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// WindowsPlatform links dependencies into a Visual Studio solution. Its
// modules file is strict JSON, consumed by MSBuild tasks, so it is edited
// with gjson/sjson instead of the JSONC AST.
type WindowsPlatform struct {
	basePlatform
}

// NewWindows creates a configured Windows adapter.
func NewWindows() *WindowsPlatform {
	return &WindowsPlatform{basePlatform{
		id:            Windows,
		displayName:   "Windows",
		sourceDir:     "windows",
		detectSignals: []string{"*.sln"},
		modulesFile:   "linkrow.modules.json",
		assetsDir:     "Assets",
		layout: asset.Layout{
			asset.KindFont:  "Fonts",
			asset.KindImage: "Images",
			asset.KindSound: "Sounds",
			asset.KindOther: "Other",
		},
	}}
}

func (w *WindowsPlatform) LinkConfig(project Project, dep *dependency.Config, params dependency.Values) LinkConfig {
	return &windowsLink{baseLink: w.newLink(project, dep, params)}
}

type windowsLink struct {
	*baseLink
}

func (l *windowsLink) IsInstalled(ctx context.Context, project Project, dep *dependency.Config) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	content, err := readStrictModules(l.platform.ModulesPath(project))
	if err != nil {
		return false, err
	}
	found := false
	gjson.Get(content, modulesKey).ForEach(func(key, _ gjson.Result) bool {
		found = key.String() == dep.Name
		return !found
	})
	return found, nil
}

func (l *windowsLink) Register(ctx context.Context, dep *dependency.Config) error {
	l.platform.mu.Lock()
	defer l.platform.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	path := l.platform.ModulesPath(l.project)
	content, err := readStrictModules(path)
	if err != nil {
		return err
	}

	value, err := l.entryJSON(dep)
	if err != nil {
		return err
	}

	// Module names may contain path syntax characters ("@scope/name"), so
	// the whole modules object is rebuilt rather than addressed by key.
	modules := make(map[string]json.RawMessage)
	gjson.Get(content, modulesKey).ForEach(func(key, v gjson.Result) bool {
		modules[key.String()] = json.RawMessage(v.Raw)
		return true
	})
	modules[dep.Name] = json.RawMessage(value)

	raw, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("encoding modules: %w", err)
	}
	content, err = sjson.SetRaw(content, modulesKey, string(raw))
	if err != nil {
		return fmt.Errorf("writing module entry: %w", err)
	}
	return writeConfigFile(path, gjson.Get(content, "@pretty").Raw)
}

// readStrictModules reads a strict JSON modules file, treating a missing
// file as empty.
func readStrictModules(path string) (string, error) {
	content, err := readConfigFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if content == "" {
		return "{}", nil
	}
	if !gjson.Valid(content) {
		return "", fmt.Errorf("parsing %s: invalid JSON", path)
	}
	return content, nil
}
