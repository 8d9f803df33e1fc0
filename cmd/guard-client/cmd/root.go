package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the server address from the configuration.
	serverAddress string

	// rootCmd represents the base command; every operation is a subcommand.
	rootCmd = &cobra.Command{
		Use:   "guard-client",
		Short: "Query and control a running guard-server.",
		Long: `Talks to guard-server over gRPC: reads or follows the danger state, acknowledges
a confirmed danger, reads and updates the sensitivity profile, selects danger modes
and replays recorded motion samples.

Server address is loaded from the configuration file unless --server is given.`,
		SilenceUsage: true,
	}
)

// Execute runs the guard-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:gocritic // stop is called explicitly above.
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&serverAddress, "server", "s", "", "guard-server address (overrides config)")
}
