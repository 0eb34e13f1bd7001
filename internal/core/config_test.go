package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, path, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want none", path)
	}
	if s.LogLevel != "info" {
		t.Errorf("LogLevel = %q", s.LogLevel)
	}
	if s.Concurrency != 1 {
		t.Errorf("Concurrency = %d", s.Concurrency)
	}
	if s.FailFast {
		t.Error("FailFast should default to false")
	}
	if len(s.Platforms) != 0 {
		t.Errorf("Platforms = %v", s.Platforms)
	}
}

func TestLoadSettings_DefaultFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir := filepath.Join(xdg, "linkrow")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "log_level: debug\nconcurrency: 4\nfail_fast: true\nplatforms:\n  - ios\n  - android\nmodules_dir: vendor\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, path, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if path != SettingsPath() {
		t.Errorf("path = %q, want %q", path, SettingsPath())
	}
	if s.LogLevel != "debug" || s.Concurrency != 4 || !s.FailFast || s.ModulesDir != "vendor" {
		t.Errorf("settings = %+v", s)
	}
	if len(s.Platforms) != 2 || s.Platforms[0] != "ios" {
		t.Errorf("Platforms = %v", s.Platforms)
	}
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LINKROW_CONCURRENCY", "8")
	t.Setenv("LINKROW_LOG_LEVEL", "warn")

	s, _, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if s.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", s.Concurrency)
	}
	if s.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", s.LogLevel)
	}
}

func TestLoadSettings_ExplicitPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("concurrency: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if got != path {
		t.Errorf("path = %q", got)
	}
	if s.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want clamp to 1", s.Concurrency)
	}

	if _, _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit settings file")
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("concurrency: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadSettings(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("LINKROW_TEST_DIR", "/opt/mods")
	tests := []struct {
		in, want string
	}{
		{"modules", filepath.Join("/project", "modules")},
		{"/abs/modules", "/abs/modules"},
		{"$LINKROW_TEST_DIR/x", "/opt/mods/x"},
	}
	for _, tt := range tests {
		if got := resolvePath("/project", tt.in); got != tt.want {
			t.Errorf("resolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
