package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/barysiuk/linkrow/internal/core"
	"github.com/barysiuk/linkrow/internal/core/dependency"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

const (
	nameColumnWidth     = 32
	platformColumnWidth = 12
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which modules are linked into each platform",
	Long: `Show the platforms of the current project and, for every module in the
modules directory, whether it is linked into each of them.

A dash means the module does not support that platform.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadProject(cmd, d)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project: %s\n", cfg.Root)
		if len(cfg.Project) == 0 {
			fmt.Fprintln(out, "  Platforms: none detected")
			return nil
		}
		ids := make([]string, 0, len(cfg.Project))
		for _, p := range cfg.Project {
			ids = append(ids, string(p.Platform))
		}
		fmt.Fprintf(out, "  Platforms: %s\n", platformDisplayNames(cfg, ids))

		names, err := cfg.Dependencies.Names()
		if err != nil {
			return fmt.Errorf("listing modules: %w", err)
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "  Modules: none found")
		} else {
			fmt.Fprintln(out)
			if err := showModuleTable(cmd, out, cfg, names); err != nil {
				return err
			}
		}

		lf, err := core.ReadLockFile(cfg.Root)
		if err != nil {
			d.logger.Warn("could not read lock file", "err", err)
		} else if lf != nil {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Lock file: %d module(s) recorded\n", len(lf.Modules))
		}
		return nil
	},
}

func showModuleTable(cmd *cobra.Command, w io.Writer, cfg *core.ProjectConfig, names []string) error {
	nameCell := lipgloss.NewStyle().Width(nameColumnWidth)
	cell := lipgloss.NewStyle().Width(platformColumnWidth)

	var header strings.Builder
	header.WriteString(nameCell.Inherit(headingStyle).Render("MODULE"))
	for _, p := range cfg.Project {
		header.WriteString(cell.Inherit(headingStyle).Render(strings.ToUpper(string(p.Platform))))
	}
	fmt.Fprintln(w, header.String())

	for _, name := range names {
		dep, err := core.Resolve(name, cfg.Dependencies)
		if err != nil {
			fmt.Fprintf(w, "%s%s\n", nameCell.Render(truncateName(name)), dangerStyle.Render(err.Error()))
			continue
		}

		label := dep.Name
		if dep.Version != "" {
			label += "@" + dep.Version
		}
		var row strings.Builder
		row.WriteString(nameCell.Render(truncateName(label)))
		for _, p := range cfg.Project {
			row.WriteString(cell.Render(linkState(cmd, cfg, dep, p.Platform)))
		}
		fmt.Fprintln(w, row.String())
	}
	return nil
}

// linkState reports whether dep is registered with the platform.
func linkState(cmd *cobra.Command, cfg *core.ProjectConfig, dep *dependency.Config, id platform.ID) string {
	if !dep.Supports(string(id)) {
		return mutedStyle.Render("-")
	}
	lc, err := core.GetLinkConfig(id, cfg, dep, dependency.ResolveValues(dep.Params, nil))
	if err != nil {
		return mutedStyle.Render("-")
	}
	installed, err := lc.IsInstalled(cmd.Context(), mustProject(cfg, id), dep)
	switch {
	case err != nil:
		return dangerStyle.Render("error")
	case installed:
		return successStyle.Render("linked")
	default:
		return warningStyle.Render("not linked")
	}
}

func mustProject(cfg *core.ProjectConfig, id platform.ID) platform.Project {
	p, _ := cfg.ProjectPlatform(id)
	return p
}

func truncateName(s string) string {
	return ansi.Truncate(s, nameColumnWidth-2, "…")
}

func init() {
	addDirFlags(statusCmd)

	rootCmd.AddCommand(statusCmd)
}
