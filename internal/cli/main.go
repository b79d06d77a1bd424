package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/clipmix/internal/pipeline"
)

var version = "dev"

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if pipeline.IsInputError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "clipmix",
		Short:        "Build a compilation of random non-silent clips",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true
	root.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/clipmix/config.toml)")

	root.AddCommand(newGoCommand())
	return root
}

func newGoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "go <files...>",
		Short: "Generate a new compilation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}

	// Visible flags
	cmd.Flags().Int("level", 30, "Silence level, 0 dB to 60 dB below full scale")
	cmd.Flags().Float64("duration", 0.75, "Minimum silence duration in seconds")
	cmd.Flags().Int("count", 3, "Clip count in compilation")
	cmd.Flags().String("out", "clip_compilation.mp4", "Output file")
	cmd.Flags().String("manifest", "", "Write a JSON manifest of the compilation to this path")

	// Tuning flags
	cmd.Flags().Int("parallel", 0, "Max clips processed at once (0 = one per clip)")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducible selection (0 = random)")
	cmd.Flags().Duration("timeout", 0, "Abort the run after this long (default 3h)")
	_ = cmd.Flags().MarkHidden("seed")

	return cmd
}
