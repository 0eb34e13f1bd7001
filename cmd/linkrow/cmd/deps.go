package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/barysiuk/linkrow/internal/core"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	settings *core.Settings
	logger   *log.Logger
}

// newDeps loads settings and builds the logger. Called lazily by commands
// that need them.
func newDeps(cmd *cobra.Command) (*deps, error) {
	configPath, _ := cmd.Flags().GetString("config")
	settings, _, err := core.LoadSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	level := log.InfoLevel
	if settings.LogLevel != "" {
		level, err = log.ParseLevel(strings.ToLower(settings.LogLevel))
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q", settings.LogLevel)
		}
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: core.AppName,
		Level:  level,
	})

	return &deps{
		settings: settings,
		logger:   logger,
	}, nil
}
