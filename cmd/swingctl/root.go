package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/swingscope/internal/config"
	"github.com/okian/swingscope/pkg/logger"
)

// rootOptions is shared by every subcommand. cfg is populated before any
// subcommand runs.
type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "swingctl",
		Short: "Segment and score baseball swings",
		Long: `swingctl segments baseball swings into phases and scores their quality.

Videos are sampled with ffmpeg and run through an ONNX pose model. Keypoint
files and metric maps can be scored directly without either tool installed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (overrides SWING_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newAnalyzeCommand(opts),
		newBatchCommand(opts),
		newScoreCommand(opts),
		newSimulateCommand(opts),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	// reports go to stdout, so logs stay on stderr
	if err := logger.InitWriter(cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	if o.configPath != "" {
		if err := os.Setenv(config.EnvFile, o.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = logger.SetLevelString("info")
	}
	o.cfg = cfg
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
