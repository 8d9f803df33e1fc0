package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/service/server"
	"github.com/oshokin/movement-guard/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// profileFile path where the explicit sensitivity profile is persisted.
	profileFile string
	// serialPort is the IMU device to read motion samples from.
	serialPort string
	// dangerMode is the danger mode selected at startup.
	dangerMode string
	// allowMultiple skips the running-process check.
	allowMultiple bool

	// rootCmd represents the base command for running the gRPC server.
	rootCmd = &cobra.Command{
		Use:   "guard-server [listen-address]",
		Short: "Run the movement guard danger engine and its gRPC server.",
		Long: `Starts the danger engine that watches motion samples for a shock followed by
stillness, and the gRPC server that reports the danger state and accepts control calls.

Motion samples arrive from clients over PushSamples or from an IMU on a serial port.
Only the port from ServerAddress config is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).
The explicit sensitivity profile is persisted to a JSON file and restored on restart.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:             configPath,
				ListenAddress:          listenAddress,
				ProfileFile:            profileFile,
				SerialPort:             serialPort,
				Mode:                   dangerMode,
				AllowMultipleInstances: allowMultiple,
			})
		},
	}
)

// Execute runs the guard-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&profileFile, "profile-file", "p", "", "path to persist the sensitivity profile (overrides config)")
	flags.StringVar(&serialPort, "serial-port", "", "IMU serial device, e.g. /dev/ttyUSB0 (overrides config)")
	flags.StringVarP(&dangerMode, "mode", "m", "", "danger mode selected at startup (overrides config)")
	flags.BoolVar(&allowMultiple, "allow-multiple", false, "do not refuse to start when another guard-server is running")

	if err := flags.MarkHidden("allow-multiple"); err != nil {
		panic(err)
	}
}
