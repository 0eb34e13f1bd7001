package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/barysiuk/linkrow/internal/core"
	"github.com/barysiuk/linkrow/internal/core/asset"
)

const readmeFile = "README.md"

var infoCmd = &cobra.Command{
	Use:   "info <module>",
	Short: "Show what a module declares",
	Long: `Show the version, platforms, assets and params a module declares,
followed by its README when it ships one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadProject(cmd, d)
		if err != nil {
			return err
		}

		dep, err := core.Resolve(args[0], cfg.Dependencies)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", headingStyle.Render(dep.Name))
		if dep.Version != "" {
			fmt.Fprintf(out, "  Version:   %s\n", dep.Version)
		}
		fmt.Fprintf(out, "  Path:      %s\n", dep.Root)
		if platforms := dep.PlatformNames(); len(platforms) > 0 {
			fmt.Fprintf(out, "  Platforms: %s\n", platformDisplayNames(cfg, platforms))
		} else {
			fmt.Fprintf(out, "  Platforms: %s\n", mutedStyle.Render("none"))
		}

		if len(dep.Assets) > 0 {
			fmt.Fprintf(out, "  Assets (%d):\n", len(dep.Assets))
			groups := asset.Group(dep.Assets)
			for _, kind := range asset.Kinds() {
				if paths := groups[kind]; len(paths) > 0 {
					fmt.Fprintf(out, "    %-6s %s\n", kind+":", strings.Join(paths, ", "))
				}
			}
		}
		if len(dep.Params) > 0 {
			fmt.Fprintf(out, "  Params (%d):\n", len(dep.Params))
			for _, p := range dep.Params {
				line := "    - " + p.Name
				if p.Default != "" {
					line += " (default: " + p.Default + ")"
				}
				if p.Message != "" {
					line += "  " + mutedStyle.Render(p.Message)
				}
				fmt.Fprintln(out, line)
			}
		}

		var hooks []string
		if dep.Hooks.Prelink != nil {
			hooks = append(hooks, "prelink")
		}
		if dep.Hooks.Postlink != nil {
			hooks = append(hooks, "postlink")
		}
		if len(hooks) > 0 {
			fmt.Fprintf(out, "  Hooks:     %s\n", strings.Join(hooks, ", "))
		}

		readme, err := os.ReadFile(filepath.Join(dep.Root, readmeFile))
		if err != nil {
			return nil
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			d.logger.Debug("markdown renderer unavailable", "err", err)
			fmt.Fprintf(out, "\n%s\n", readme)
			return nil
		}
		rendered, err := r.Render(string(readme))
		if err != nil {
			d.logger.Debug("rendering readme failed", "err", err)
			rendered = string(readme)
		}
		fmt.Fprint(out, "\n"+rendered)
		return nil
	},
}

func init() {
	addDirFlags(infoCmd)

	rootCmd.AddCommand(infoCmd)
}
