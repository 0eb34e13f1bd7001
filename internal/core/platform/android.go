package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/barysiuk/linkrow/internal/core/asset"
	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// settingsFiles are the Gradle settings scripts, in lookup order.
var settingsFiles = []string{"settings.gradle", "settings.gradle.kts"}

// AndroidPlatform links dependencies into a Gradle project. Besides the
// modules file it includes the dependency as a Gradle subproject when the
// project has a settings script.
type AndroidPlatform struct {
	basePlatform
}

// NewAndroid creates a configured Android adapter.
func NewAndroid() *AndroidPlatform {
	return &AndroidPlatform{basePlatform{
		id:            Android,
		displayName:   "Android",
		sourceDir:     "android",
		detectSignals: []string{"settings.gradle", "settings.gradle.kts", "build.gradle", "build.gradle.kts"},
		modulesFile:   "linkrow.modules.jsonc",
		modulesFormat: "jsonc",
		assetsDir:     "app/src/main/assets",
		layout: asset.Layout{
			asset.KindFont:  "fonts",
			asset.KindImage: "images",
			asset.KindSound: "sounds",
			asset.KindOther: "other",
		},
	}}
}

func (a *AndroidPlatform) LinkConfig(project Project, dep *dependency.Config, params dependency.Values) LinkConfig {
	return &androidLink{baseLink: a.newLink(project, dep, params)}
}

type androidLink struct {
	*baseLink
}

func (l *androidLink) IsInstalled(ctx context.Context, project Project, dep *dependency.Config) (bool, error) {
	ok, err := l.baseLink.IsInstalled(ctx, project, dep)
	if err != nil || !ok {
		return ok, err
	}
	settings := findSettings(project.SourceDir)
	if settings == "" {
		return true, nil
	}
	content, err := readConfigFile(settings)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", settings, err)
	}
	return strings.Contains(content, includeLine(settings, dep.Name)), nil
}

func (l *androidLink) Register(ctx context.Context, dep *dependency.Config) error {
	l.platform.mu.Lock()
	defer l.platform.mu.Unlock()

	if err := l.registerModule(ctx, dep); err != nil {
		return err
	}

	settings := findSettings(l.project.SourceDir)
	if settings == "" {
		return nil
	}
	content, err := readConfigFile(settings)
	if err != nil {
		return fmt.Errorf("reading %s: %w", settings, err)
	}
	include := includeLine(settings, dep.Name)
	if strings.Contains(content, include) {
		return nil
	}

	pc := dep.Platforms[string(Android)]
	src := filepath.Join(dep.Root, filepath.FromSlash(pc.SourceDir))
	rel, err := filepath.Rel(l.project.SourceDir, src)
	if err != nil {
		rel = src
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += include + "\n" + projectDirLine(settings, dep.Name, filepath.ToSlash(rel)) + "\n"
	return writeConfigFile(settings, content)
}

func findSettings(dir string) string {
	for _, name := range settingsFiles {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// gradleProjectName turns a package name into a Gradle project path
// segment: "@scope/name" becomes "scope_name".
func gradleProjectName(name string) string {
	name = strings.TrimPrefix(name, "@")
	return strings.ReplaceAll(name, "/", "_")
}

func includeLine(settings, name string) string {
	if strings.HasSuffix(settings, ".kts") {
		return fmt.Sprintf(`include(":%s")`, gradleProjectName(name))
	}
	return fmt.Sprintf(`include ':%s'`, gradleProjectName(name))
}

func projectDirLine(settings, name, dir string) string {
	if strings.HasSuffix(settings, ".kts") {
		return fmt.Sprintf(`project(":%s").projectDir = File(rootProject.projectDir, "%s")`, gradleProjectName(name), dir)
	}
	return fmt.Sprintf(`project(':%s').projectDir = new File(rootProject.projectDir, '%s')`, gradleProjectName(name), dir)
}
