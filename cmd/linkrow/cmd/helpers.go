package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/linkrow/internal/core"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

// resolveTargetDir resolves the --dir flag or falls back to cwd.
func resolveTargetDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// loadProject loads the project in the target directory, honoring the
// --modules-dir flag and the modules_dir setting.
func loadProject(cmd *cobra.Command, d *deps) (*core.ProjectConfig, error) {
	dir, err := resolveTargetDir(cmd)
	if err != nil {
		return nil, err
	}
	modulesDir := d.settings.ModulesDir
	if flag, _ := cmd.Flags().GetString("modules-dir"); flag != "" {
		modulesDir = flag
	}
	return core.LoadProject(dir, core.LoadOptions{
		ModulesDir: modulesDir,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseParams turns repeated key=value flags into a map.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

// platformDisplayNames converts platform IDs to display names.
func platformDisplayNames(cfg *core.ProjectConfig, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if a, ok := cfg.Platforms[platform.ID(id)]; ok {
			names = append(names, a.DisplayName())
		} else {
			names = append(names, id)
		}
	}
	return strings.Join(names, ", ")
}

// addDirFlags adds the --dir and --modules-dir flags shared by project
// commands.
func addDirFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("dir", "d", "", "Project directory (default: current directory)")
	cmd.Flags().String("modules-dir", "", "Modules directory, relative to the project (default: from project file)")
}
