package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/forPelevin/clipmix/internal/config"
	"github.com/forPelevin/clipmix/internal/logging"
	"github.com/forPelevin/clipmix/internal/pipeline"
	"github.com/forPelevin/clipmix/internal/storage"
)

func run(cmd *cobra.Command, inputs []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, usedConfig, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if usedConfig != "" {
		logger.Debug("config loaded", "file", usedConfig)
	}

	absIns := make([]string, 0, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		absIns = append(absIns, abs)
	}
	absOut, err := filepath.Abs(cfg.Output)
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{
		Inputs:          absIns,
		Output:          absOut,
		ManifestPath:    cfg.Manifest,
		Level:           cfg.Level,
		SilenceDuration: cfg.SilenceDuration,
		Count:           cfg.Count,
		Parallelism:     cfg.Parallelism,
		Seed:            cfg.Seed,
		TempDir:         cfg.TempDir,
		FFmpegPath:      cfg.FFmpegPath,
		S3: storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.S3Prefix,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
		Logger: logger,
	}
	if err := pcfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := cfg.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	m, err := pipeline.Run(ctx, pcfg)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), m)
	return nil
}

// applyFlags overrides config values with flags set on the command line.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("level") {
		cfg.Level, _ = fs.GetInt("level")
	}
	if fs.Changed("duration") {
		cfg.SilenceDuration, _ = fs.GetFloat64("duration")
	}
	if fs.Changed("count") {
		cfg.Count, _ = fs.GetInt("count")
	}
	if fs.Changed("out") {
		cfg.Output, _ = fs.GetString("out")
	}
	if fs.Changed("manifest") {
		cfg.Manifest, _ = fs.GetString("manifest")
	}
	if fs.Changed("parallel") {
		cfg.Parallelism, _ = fs.GetInt("parallel")
	}
	if fs.Changed("seed") {
		cfg.Seed, _ = fs.GetInt64("seed")
	}
	if fs.Changed("timeout") {
		d, _ := fs.GetDuration("timeout")
		cfg.TimeoutSeconds = int(d.Seconds())
	}
}
