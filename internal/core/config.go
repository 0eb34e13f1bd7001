package core

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "linkrow"

	// EnvPrefix prefixes environment variables that override settings,
	// e.g. LINKROW_CONCURRENCY.
	EnvPrefix = "LINKROW"

	settingsFileName = "config"
	settingsFileType = "yaml"
)

// Settings are user-level defaults for link invocations. Command-line flags
// take precedence over them.
type Settings struct {
	LogLevel    string   `mapstructure:"log_level"`
	Concurrency int      `mapstructure:"concurrency"`
	FailFast    bool     `mapstructure:"fail_fast"`
	Platforms   []string `mapstructure:"platforms"`
	ModulesDir  string   `mapstructure:"modules_dir"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:    "info",
		Concurrency: 1,
		Platforms:   []string{},
	}
}

// SettingsDir returns the linkrow configuration directory
// ($XDG_CONFIG_HOME/linkrow).
func SettingsDir() string {
	return filepath.Join(xdgConfigHome(), AppName)
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(SettingsDir(), settingsFileName+"."+settingsFileType)
}

// LoadSettings reads the settings file and LINKROW_* environment variables.
// An explicit path must exist; the default path is optional. It returns the
// settings and the file they were read from, if any.
func LoadSettings(path string) (*Settings, string, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("fail_fast", defaults.FailFast)
	v.SetDefault("platforms", defaults.Platforms)
	v.SetDefault("modules_dir", defaults.ModulesDir)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolved := ""
	if path != "" {
		path = expandPath(path)
		if !fileExists(path) {
			return nil, "", fmt.Errorf("settings file not found: %s", path)
		}
		resolved = path
	} else if p := SettingsPath(); fileExists(p) {
		resolved = p
	}

	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType(settingsFileType)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading settings %s: %w", resolved, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, "", fmt.Errorf("decoding settings: %w", err)
	}
	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	return &s, resolved, nil
}
