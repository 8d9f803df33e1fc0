package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/oshokin/movement-guard/internal/service/client"
)

// errNothingToUpdate is returned by update-config without any profile flag.
var errNothingToUpdate = errors.New("no profile field given, see --help")

var (
	// watchFlags collects the watch flags.
	watchFlags = client.WatchOptions{}
	// updatePatch collects the update-config flags.
	updatePatch struct {
		threshold float64
		average   float64
	}
	// replayRealtime paces replay by the recorded timestamps.
	replayRealtime bool
)

// options builds the connection options from the persistent flags.
func options(cmd *cobra.Command) client.Options {
	return client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the current danger state.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := options(cmd)

		return client.State(cmd.Context(), &opts)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the danger state and every change.",
	Long: `Follows the danger state until interrupted, reconnecting when the stream breaks.
With --until-danger it exits successfully as soon as danger is confirmed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := watchFlags
		opts.Options = options(cmd)

		return client.Watch(cmd.Context(), &opts)
	},
}

var setSafeCmd = &cobra.Command{
	Use:   "set-safe",
	Short: "Acknowledge a confirmed danger and return to safe.",
	Long: `Sends the acknowledgement together with the local user and hostname, retrying
until the server confirms the safe state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := options(cmd)

		return client.SetSafe(cmd.Context(), &opts)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the sensitivity profiles and danger modes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := options(cmd)

		return client.ShowConfig(cmd.Context(), &opts)
	},
}

var updateConfigCmd = &cobra.Command{
	Use:   "update-config",
	Short: "Change fields of the explicit sensitivity profile.",
	Long: `Reads the explicit profile from the server, replaces the fields given as flags
and sends it back. The server persists the profile and keeps the danger state as is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		patch, err := profilePatch(cmd)
		if err != nil {
			return err
		}

		opts := options(cmd)

		return client.UpdateConfig(cmd.Context(), &opts, patch)
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode [name]",
	Short: "Select a danger mode, or clear the selection without a name.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) > 0 {
			name = args[0]
		}

		opts := options(cmd)

		return client.SelectMode(cmd.Context(), &opts, name)
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Stream recorded motion samples to the server.",
	Long: `Sends every line of a recorded sample file ("-" reads stdin) over PushSamples.
Lines have the serial form ax,ay,az,gx,gy,gz with an optional leading unix_ms timestamp.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.Replay(cmd.Context(), &client.ReplayOptions{
			Options:  options(cmd),
			File:     args[0],
			Realtime: replayRealtime,
		})
	},
}

// profilePatch converts the update-config flags that were set into a patch.
func profilePatch(cmd *cobra.Command) (client.ProfilePatch, error) {
	var patch client.ProfilePatch

	flags := cmd.Flags()

	if flags.Changed("threshold") {
		patch.PreDangerThreshold = &updatePatch.threshold
	}

	if flags.Changed("timeout") {
		timeout, err := flags.GetDuration("timeout")
		if err != nil {
			return patch, err
		}

		patch.PreDangerTimeout = &timeout
	}

	if flags.Changed("average") {
		patch.DangerAverageThreshold = &updatePatch.average
	}

	if patch.Empty() {
		return patch, errNothingToUpdate
	}

	return patch, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	watchCmd.Flags().DurationVar(&watchFlags.RetryInterval, "retry", 0, "delay before reconnecting a broken stream")
	watchCmd.Flags().BoolVar(&watchFlags.UntilDanger, "until-danger", false, "exit once danger is confirmed")

	updateConfigCmd.Flags().Float64Var(&updatePatch.threshold, "threshold", 0, "pre-danger shock threshold")
	updateConfigCmd.Flags().Duration("timeout", 0, "pre-danger debounce timeout, e.g. 10s")
	updateConfigCmd.Flags().Float64Var(&updatePatch.average, "average", 0, "danger stillness average threshold")

	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "pace samples by their recorded timestamps")

	rootCmd.AddCommand(stateCmd, watchCmd, setSafeCmd, configCmd, updateConfigCmd, modeCmd, replayCmd)
}
