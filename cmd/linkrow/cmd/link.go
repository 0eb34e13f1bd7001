package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/barysiuk/linkrow/internal/core"
	"github.com/barysiuk/linkrow/internal/core/platform"
)

var linkCmd = &cobra.Command{
	Use:   "link [module[@version]...]",
	Short: "Link modules into the project's platforms",
	Long: `Link native modules into the platform projects of the current app.

With no arguments every module in the modules directory is linked. Each
module is registered with every platform that both the project and the
module support, its prelink and postlink hooks run around registration,
and its assets are copied into each platform's asset store. Without
arguments the project's own assets are copied as well.

Modules that are already registered are not registered again.

Examples:
  linkrow link
  linkrow link react-native-blur
  linkrow link @acme/maps@2.1.0 --platforms ios,android
  linkrow link analytics --param apiKey=abc123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadProject(cmd, d)
		if err != nil {
			return err
		}

		opts, err := linkOptions(cmd, d, cfg)
		if err != nil {
			return err
		}

		orch := core.NewOrchestrator(d.logger)
		var result *core.LinkResult
		var linkErr error
		if len(args) == 0 {
			result, linkErr = orch.LinkAll(cmd.Context(), cfg, opts)
		} else {
			result, linkErr = orch.Link(cmd.Context(), args, cfg, opts)
		}
		if result == nil {
			return linkErr
		}

		printLinkResult(cmd.OutOrStdout(), result)

		if noLock, _ := cmd.Flags().GetBool("no-lock"); !noLock {
			if entries := core.LockEntries(result); len(entries) > 0 {
				if err := core.AddOrUpdateLockEntries(cfg.Root, entries...); err != nil {
					d.logger.Warn("could not update lock file", "err", err)
				}
			}
		}

		return linkErr
	},
}

// linkOptions merges settings with flags. Flags win only when set.
func linkOptions(cmd *cobra.Command, d *deps, cfg *core.ProjectConfig) (core.LinkOptions, error) {
	opts := core.LinkOptions{
		Concurrency: d.settings.Concurrency,
		FailFast:    d.settings.FailFast,
	}

	names := d.settings.Platforms
	if cmd.Flags().Changed("platforms") {
		flag, _ := cmd.Flags().GetString("platforms")
		names = splitList(flag)
	}
	ids, err := platform.ParseIDs(names, cfg.Platforms)
	if err != nil {
		return opts, err
	}
	opts.Platforms = ids

	pairs, _ := cmd.Flags().GetStringArray("param")
	if opts.Params, err = parseParams(pairs); err != nil {
		return opts, err
	}

	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if opts.Concurrency < 1 {
		return opts, fmt.Errorf("--concurrency must be at least 1")
	}
	if cmd.Flags().Changed("fail-fast") {
		opts.FailFast, _ = cmd.Flags().GetBool("fail-fast")
	}
	return opts, nil
}

func printLinkResult(w io.Writer, result *core.LinkResult) {
	for _, d := range result.Dependencies {
		switch {
		case d.Skipped:
			fmt.Fprintf(w, "%s %s\n", mutedStyle.Render("Skipped"), d.Requested)
			continue
		case d.Dependency == nil:
			var nf *core.DependencyNotFoundError
			if errors.As(d.Err, &nf) {
				fmt.Fprintf(w, "%s %s: not found in modules directory\n", dangerStyle.Render("Failed"), d.Requested)
			} else {
				fmt.Fprintf(w, "%s %s: %v\n", dangerStyle.Render("Failed"), d.Requested, d.Err)
			}
			continue
		case d.Err != nil:
			fmt.Fprintf(w, "%s %s\n", dangerStyle.Render("Failed"), displayName(d))
		default:
			fmt.Fprintf(w, "%s %s\n", successStyle.Render("Linked"), displayName(d))
		}

		if len(d.Platforms) == 0 && d.Err == nil {
			fmt.Fprintf(w, "  %s\n", mutedStyle.Render("no matching platforms"))
		}
		platformErr := false
		for _, p := range d.Platforms {
			fmt.Fprintf(w, "  %s: %s\n", p.Platform, platformOutcome(p))
			platformErr = platformErr || p.Err != nil
		}
		if d.Err != nil && !platformErr {
			fmt.Fprintf(w, "  %v\n", d.Err)
		}
	}

	for _, pa := range result.ProjectAssets {
		if pa.Err != nil {
			fmt.Fprintf(w, "%s project assets for %s (%s)\n", dangerStyle.Render("Failed"), pa.Platform, warningStyle.Render(errorCause(pa.Err).Error()))
		} else if pa.Copied {
			fmt.Fprintf(w, "%s project assets for %s\n", successStyle.Render("Copied"), pa.Platform)
		}
	}

	// A module that registered but failed a hook counts as failed only.
	linked := 0
	for _, d := range result.Linked() {
		if d.Err == nil {
			linked++
		}
	}
	failed := 0
	for _, d := range result.Dependencies {
		if d.Err != nil {
			failed++
		}
	}
	p := message.NewPrinter(language.English)
	summary := p.Sprintf("%d of %d modules linked", linked, len(result.Dependencies))
	if failed > 0 {
		summary += p.Sprintf(", %d failed", failed)
	}
	fmt.Fprintln(w, summary)
}

func platformOutcome(p core.PlatformResult) string {
	var parts []string
	switch p.Outcome {
	case core.OutcomeRegistered:
		parts = append(parts, successStyle.Render("registered"))
	case core.OutcomeAlreadyInstalled:
		parts = append(parts, mutedStyle.Render("already linked"))
	case core.OutcomeFailed:
		parts = append(parts, dangerStyle.Render("failed"))
	}
	if p.AssetsCopied {
		parts = append(parts, "assets copied")
	}
	out := strings.Join(parts, ", ")
	if p.Err != nil {
		out += " (" + warningStyle.Render(p.Err.Error()) + ")"
	}
	return out
}

func errorCause(err error) error {
	if u := errors.Unwrap(err); u != nil {
		return u
	}
	return err
}

func displayName(d core.DependencyResult) string {
	if d.Dependency.Version == "" {
		return d.Dependency.Name
	}
	return d.Dependency.Name + "@" + d.Dependency.Version
}

func init() {
	addDirFlags(linkCmd)
	linkCmd.Flags().String("platforms", "", "Comma-separated platforms to link (default: all supported)")
	linkCmd.Flags().StringArray("param", nil, "Module param as key=value (repeatable)")
	linkCmd.Flags().Int("concurrency", 1, "Number of modules linked at once")
	linkCmd.Flags().Bool("fail-fast", false, "Stop after the first module that fails")
	linkCmd.Flags().Bool("no-lock", false, "Do not record linked modules in linkrow.lock.json")

	rootCmd.AddCommand(linkCmd)
}
