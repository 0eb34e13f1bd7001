package platform

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tailscale/hujson"

	"github.com/barysiuk/linkrow/internal/core/dependency"
)

// setupProject creates a host project with the given files and one module
// under modules/<name>.
func setupProject(t *testing.T, files map[string]string, name string) (string, *dependency.Config) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	depRoot := filepath.Join(root, "modules", filepath.FromSlash(name))
	if err := os.MkdirAll(depRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	dep := &dependency.Config{
		Name:    name,
		Version: "1.2.0",
		Root:    depRoot,
		Platforms: map[string]dependency.PlatformConfig{
			"ios":     {SourceDir: "ios"},
			"android": {SourceDir: "android", Options: map[string]string{"packageImportPath": "com.example.Blur"}},
			"windows": {},
		},
	}
	return root, dep
}

// readModulesFile decodes a JSON or JSONC modules file.
func readModulesFile(t *testing.T, path string) map[string]map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading modules file: %v", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		t.Fatalf("parsing modules file: %v", err)
	}
	var doc struct {
		Modules map[string]map[string]any `json:"modules"`
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		t.Fatalf("decoding modules file: %v", err)
	}
	return doc.Modules
}

func TestBuiltin(t *testing.T) {
	all := Builtin()
	if len(all) != 3 {
		t.Fatalf("expected 3 adapters, got %d", len(all))
	}
	want := []ID{IOS, Android, Windows}
	for i, a := range all {
		if a.ID() != want[i] {
			t.Errorf("Builtin()[%d] = %q, want %q", i, a.ID(), want[i])
		}
	}

	// Every call returns fresh instances.
	if Builtin()[0] == all[0] {
		t.Error("expected Builtin to return new adapters")
	}
}

func TestParseIDs(t *testing.T) {
	available := Map(Builtin())

	ids, err := ParseIDs([]string{"android", " ios ", ""}, available)
	if err != nil {
		t.Fatalf("ParseIDs() error: %v", err)
	}
	if len(ids) != 2 || ids[0] != Android || ids[1] != IOS {
		t.Errorf("ParseIDs() = %v", ids)
	}

	_, err = ParseIDs([]string{"ios", "tizen"}, available)
	if err == nil {
		t.Fatal("expected error for unknown platform")
	}
	if !strings.Contains(err.Error(), "tizen") {
		t.Errorf("error = %v, want mention of tizen", err)
	}
}

func TestDetect(t *testing.T) {
	root, _ := setupProject(t, map[string]string{
		"ios/Podfile":                   "platform :ios",
		"android/settings.gradle":       "rootProject.name = 'App'",
		"windows/README.md":             "no solution here",
		"ios/App.xcodeproj/project.pbx": "",
	}, "dep")

	tests := []struct {
		adapter Adapter
		want    bool
	}{
		{NewIOS(), true},
		{NewAndroid(), true},
		{NewWindows(), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.adapter.ID()), func(t *testing.T) {
			project, ok := tt.adapter.Detect(root)
			if ok != tt.want {
				t.Fatalf("Detect() = %v, want %v", ok, tt.want)
			}
			if !ok {
				return
			}
			if project.Platform != tt.adapter.ID() {
				t.Errorf("Platform = %q", project.Platform)
			}
			if project.SourceDir != filepath.Join(root, string(tt.adapter.ID())) {
				t.Errorf("SourceDir = %q", project.SourceDir)
			}
		})
	}
}

func TestIOS_Register(t *testing.T) {
	root, dep := setupProject(t, map[string]string{"ios/Podfile": ""}, "react-native-blur")
	ios := NewIOS()
	project, ok := ios.Detect(root)
	if !ok {
		t.Fatal("expected ios to be detected")
	}
	ctx := context.Background()
	lc := ios.LinkConfig(project, dep, dependency.Values{"appId": "com.example"})

	installed, err := lc.IsInstalled(ctx, project, dep)
	if err != nil {
		t.Fatalf("IsInstalled() error: %v", err)
	}
	if installed {
		t.Fatal("expected dependency not installed before Register")
	}

	if err := lc.Register(ctx, dep); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	installed, err = lc.IsInstalled(ctx, project, dep)
	if err != nil {
		t.Fatalf("IsInstalled() error: %v", err)
	}
	if !installed {
		t.Fatal("expected dependency installed after Register")
	}

	modules := readModulesFile(t, filepath.Join(root, "ios", "linkrow.modules.jsonc"))
	entry, ok := modules["react-native-blur"]
	if !ok {
		t.Fatalf("entry missing: %v", modules)
	}
	if entry["sourceDir"] != "../modules/react-native-blur/ios" {
		t.Errorf("sourceDir = %v", entry["sourceDir"])
	}
	if entry["version"] != "1.2.0" {
		t.Errorf("version = %v", entry["version"])
	}
	params, _ := entry["params"].(map[string]any)
	if params["appId"] != "com.example" {
		t.Errorf("params = %v", entry["params"])
	}
}

func TestIOS_RegisterPreservesComments(t *testing.T) {
	existing := `{
  // managed by linkrow
  "modules": {
    "other": {"sourceDir": "../other"},
  },
}`
	root, dep := setupProject(t, map[string]string{
		"ios/Podfile":               "",
		"ios/linkrow.modules.jsonc": existing,
	}, "react-native-blur")
	ios := NewIOS()
	project, _ := ios.Detect(root)
	lc := ios.LinkConfig(project, dep, nil)

	// Registering twice replaces the entry.
	for i := 0; i < 2; i++ {
		if err := lc.Register(context.Background(), dep); err != nil {
			t.Fatalf("Register() #%d error: %v", i+1, err)
		}
	}

	path := filepath.Join(root, "ios", "linkrow.modules.jsonc")
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "// managed by linkrow") {
		t.Errorf("comment lost:\n%s", data)
	}
	if n := strings.Count(string(data), `"react-native-blur"`); n != 1 {
		t.Errorf("entry appears %d times, want 1", n)
	}
	modules := readModulesFile(t, path)
	if _, ok := modules["other"]; !ok {
		t.Error("existing entry lost")
	}
}

func TestIOS_ScopedName(t *testing.T) {
	root, dep := setupProject(t, map[string]string{"ios/Podfile": ""}, "@scope/something")
	ios := NewIOS()
	project, _ := ios.Detect(root)
	lc := ios.LinkConfig(project, dep, nil)
	ctx := context.Background()

	if err := lc.Register(ctx, dep); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	installed, err := lc.IsInstalled(ctx, project, dep)
	if err != nil || !installed {
		t.Fatalf("IsInstalled() = %v, %v", installed, err)
	}
	modules := readModulesFile(t, filepath.Join(root, "ios", "linkrow.modules.jsonc"))
	if _, ok := modules["@scope/something"]; !ok {
		t.Errorf("scoped entry missing: %v", modules)
	}
}

func TestIOS_InvalidModulesFile(t *testing.T) {
	root, dep := setupProject(t, map[string]string{
		"ios/Podfile":               "",
		"ios/linkrow.modules.jsonc": `{"modules": `,
	}, "dep")
	ios := NewIOS()
	project, _ := ios.Detect(root)
	lc := ios.LinkConfig(project, dep, nil)

	if _, err := lc.IsInstalled(context.Background(), project, dep); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAndroid_RegisterIncludesProject(t *testing.T) {
	root, dep := setupProject(t, map[string]string{
		"android/settings.gradle": "rootProject.name = 'App'\ninclude ':app'",
	}, "react-native-blur")
	android := NewAndroid()
	project, ok := android.Detect(root)
	if !ok {
		t.Fatal("expected android to be detected")
	}
	ctx := context.Background()
	lc := android.LinkConfig(project, dep, nil)

	for i := 0; i < 2; i++ {
		if err := lc.Register(ctx, dep); err != nil {
			t.Fatalf("Register() #%d error: %v", i+1, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "android", "settings.gradle"))
	if err != nil {
		t.Fatal(err)
	}
	settings := string(data)
	if n := strings.Count(settings, "include ':react-native-blur'"); n != 1 {
		t.Errorf("include line appears %d times, want 1:\n%s", n, settings)
	}
	if !strings.Contains(settings, "'../modules/react-native-blur/android'") {
		t.Errorf("projectDir line missing:\n%s", settings)
	}

	modules := readModulesFile(t, filepath.Join(root, "android", "linkrow.modules.jsonc"))
	options, _ := modules["react-native-blur"]["options"].(map[string]any)
	if options["packageImportPath"] != "com.example.Blur" {
		t.Errorf("options = %v", modules["react-native-blur"]["options"])
	}

	installed, err := lc.IsInstalled(ctx, project, dep)
	if err != nil || !installed {
		t.Fatalf("IsInstalled() = %v, %v", installed, err)
	}
}

func TestAndroid_IsInstalledRequiresInclude(t *testing.T) {
	root, dep := setupProject(t, map[string]string{
		"android/settings.gradle.kts":   `rootProject.name = "App"`,
		"android/linkrow.modules.jsonc": `{"modules": {"@scope/blur": {"sourceDir": "x"}}}`,
	}, "@scope/blur")
	android := NewAndroid()
	project, _ := android.Detect(root)
	ctx := context.Background()
	lc := android.LinkConfig(project, dep, nil)

	installed, err := lc.IsInstalled(ctx, project, dep)
	if err != nil {
		t.Fatalf("IsInstalled() error: %v", err)
	}
	if installed {
		t.Fatal("expected not installed while settings script lacks the include")
	}

	if err := lc.Register(ctx, dep); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "android", "settings.gradle.kts"))
	if !strings.Contains(string(data), `include(":scope_blur")`) {
		t.Errorf("kotlin include missing:\n%s", data)
	}
	installed, _ = lc.IsInstalled(ctx, project, dep)
	if !installed {
		t.Error("expected installed after Register")
	}
}

func TestWindows_Register(t *testing.T) {
	root, dep := setupProject(t, map[string]string{
		"windows/App.sln":              "",
		"windows/linkrow.modules.json": `{"schema": 1, "modules": {"other": {"sourceDir": "../other"}}}`,
	}, "@scope/win.module")
	windows := NewWindows()
	project, ok := windows.Detect(root)
	if !ok {
		t.Fatal("expected windows to be detected")
	}
	ctx := context.Background()
	lc := windows.LinkConfig(project, dep, nil)

	installed, err := lc.IsInstalled(ctx, project, dep)
	if err != nil || installed {
		t.Fatalf("IsInstalled() before Register = %v, %v", installed, err)
	}
	for i := 0; i < 2; i++ {
		if err := lc.Register(ctx, dep); err != nil {
			t.Fatalf("Register() #%d error: %v", i+1, err)
		}
	}

	path := filepath.Join(root, "windows", "linkrow.modules.json")
	data, _ := os.ReadFile(path)
	if !json.Valid(data) {
		t.Fatalf("modules file is not strict JSON:\n%s", data)
	}
	if !strings.Contains(string(data), `"schema"`) {
		t.Error("unrelated key lost")
	}
	modules := readModulesFile(t, path)
	if len(modules) != 2 {
		t.Errorf("modules = %v", modules)
	}
	if modules["@scope/win.module"]["sourceDir"] != "../modules/@scope/win.module" {
		t.Errorf("sourceDir = %v", modules["@scope/win.module"]["sourceDir"])
	}

	installed, err = lc.IsInstalled(ctx, project, dep)
	if err != nil || !installed {
		t.Fatalf("IsInstalled() after Register = %v, %v", installed, err)
	}
}

func TestCopyAssets(t *testing.T) {
	root, dep := setupProject(t, map[string]string{
		"ios/Podfile":                    "",
		"android/build.gradle":           "",
		"windows/App.sln":                "",
		"modules/fonts-dep/Fonts/A.ttf":  "font",
		"modules/fonts-dep/img/logo.png": "png",
	}, "fonts-dep")
	assets := []string{"Fonts/A.ttf", "img/logo.png"}

	tests := []struct {
		adapter Adapter
		font    string
		image   string
	}{
		{NewIOS(), "ios/Resources/Fonts/A.ttf", "ios/Resources/Images/logo.png"},
		{NewAndroid(), "android/app/src/main/assets/fonts/A.ttf", "android/app/src/main/assets/images/logo.png"},
		{NewWindows(), "windows/Assets/Fonts/A.ttf", "windows/Assets/Images/logo.png"},
	}
	for _, tt := range tests {
		t.Run(string(tt.adapter.ID()), func(t *testing.T) {
			project, ok := tt.adapter.Detect(root)
			if !ok {
				t.Fatal("expected platform to be detected")
			}
			copier, ok := tt.adapter.LinkConfig(project, dep, nil).(AssetCopier)
			if !ok {
				t.Fatal("expected LinkConfig to copy assets")
			}
			if err := copier.CopyAssets(context.Background(), assets, project); err != nil {
				t.Fatalf("CopyAssets() error: %v", err)
			}
			for _, rel := range []string{tt.font, tt.image} {
				if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
					t.Errorf("asset not copied to %s: %v", rel, err)
				}
			}
		})
	}
}

func TestCopyProjectAssets(t *testing.T) {
	root, _ := setupProject(t, map[string]string{
		"ios/Podfile":            "",
		"android/build.gradle":   "",
		"assets/Brand.ttf":       "font",
		"assets/sounds/ding.mp3": "mp3",
	}, "dep")
	assets := []string{"assets/Brand.ttf", "assets/sounds/ding.mp3"}

	tests := []struct {
		adapter Adapter
		want    []string
	}{
		{NewIOS(), []string{"ios/Resources/Fonts/Brand.ttf", "ios/Resources/Sounds/ding.mp3"}},
		{NewAndroid(), []string{"android/app/src/main/assets/fonts/Brand.ttf", "android/app/src/main/assets/sounds/ding.mp3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.adapter.ID()), func(t *testing.T) {
			project, ok := tt.adapter.Detect(root)
			if !ok {
				t.Fatal("expected platform to be detected")
			}
			copier, ok := tt.adapter.(ProjectAssetCopier)
			if !ok {
				t.Fatal("expected adapter to copy project assets")
			}
			if err := copier.CopyProjectAssets(context.Background(), assets, project); err != nil {
				t.Fatalf("CopyProjectAssets() error: %v", err)
			}
			for _, rel := range tt.want {
				if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
					t.Errorf("asset not copied to %s: %v", rel, err)
				}
			}
		})
	}
}

func TestCopyAssets_CanceledContext(t *testing.T) {
	root, dep := setupProject(t, map[string]string{
		"ios/Podfile":             "",
		"modules/dep/Fonts/A.ttf": "font",
	}, "dep")
	ios := NewIOS()
	project, _ := ios.Detect(root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	copier := ios.LinkConfig(project, dep, nil).(AssetCopier)
	if err := copier.CopyAssets(ctx, []string{"Fonts/A.ttf"}, project); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, err := os.Stat(filepath.Join(root, "ios", "Resources", "Fonts", "A.ttf")); !os.IsNotExist(err) {
		t.Error("expected no asset to be copied")
	}
}

func TestRegister_CanceledContext(t *testing.T) {
	root, dep := setupProject(t, map[string]string{"ios/Podfile": ""}, "dep")
	ios := NewIOS()
	project, _ := ios.Detect(root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ios.LinkConfig(project, dep, nil).Register(ctx, dep); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, err := os.Stat(filepath.Join(root, "ios", "linkrow.modules.jsonc")); !os.IsNotExist(err) {
		t.Error("expected no modules file to be written")
	}
}
