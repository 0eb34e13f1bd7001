package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "linkrow",
	Short: "Link native modules into your app's platform projects",
	Long: `linkrow wires third-party native modules into the iOS, Android and
Windows projects of a host app.

It resolves the requested modules, runs their prelink and postlink hooks,
registers each module with every platform it supports, and copies the
fonts, images and sounds it ships into the platform's asset store.
Modules that are already linked are left alone.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "linkrow %s\n", versionString())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Settings file (default is $XDG_CONFIG_HOME/linkrow/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// Execute runs the root command.
func Execute() error {
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}
