// Package manifest decodes linkrow project files and module manifests.
//
// Three on-disk formats are accepted (YAML, JSON with comments, TOML). Every
// document is normalized to plain JSON, validated against an embedded JSON
// schema, and only then unmarshaled into the caller's struct, so the typed
// models only need json tags.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a manifest file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Formats lists the accepted formats in lookup priority order.
var Formats = []Format{FormatYAML, FormatJSON, FormatTOML}

// Extensions returns the file extensions recognized for a format.
func (f Format) Extensions() []string {
	switch f {
	case FormatYAML:
		return []string{".yaml", ".yml"}
	case FormatJSON:
		return []string{".json", ".jsonc"}
	case FormatTOML:
		return []string{".toml"}
	default:
		return nil
	}
}

// FormatFromPath detects the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats {
		for _, e := range f.Extensions() {
			if e == ext {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported manifest extension %q in %s", ext, path)
}

// Find returns the first existing "<dir>/<base>.<ext>" across all formats.
// It returns "" when no candidate exists.
func Find(dir, base string) string {
	for _, f := range Formats {
		for _, ext := range f.Extensions() {
			p := filepath.Join(dir, base+ext)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

// Decode parses raw bytes of the given format into JSON-compatible values.
func Decode(data []byte, format Format) (any, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case FormatJSON:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		if err := json.Unmarshal(std, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
		raw = m
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return normalize(raw), nil
}

// Load reads path, validates it against the named embedded schema and
// unmarshals the result into v.
func Load(path string, schema Schema, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return Unmarshal(path, data, format, schema, v)
}

// Unmarshal decodes data, validates it and fills v. The path is only used
// in error messages.
func Unmarshal(path string, data []byte, format Format, schema Schema, v any) error {
	raw, err := Decode(data, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%s: converting to JSON: %w", path, err)
	}

	if err := validate(path, schema, jsonData); err != nil {
		return err
	}

	if err := json.Unmarshal(jsonData, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// normalize converts YAML/TOML decoded trees to JSON-compatible types.
// yaml.v3 produces map[interface{}]interface{} for non-string keys.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = normalize(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = normalize(v)
		}
		return a
	case []map[string]any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = normalize(v)
		}
		return a
	default:
		return val
	}
}
