// Package main provides the visgator evaluation CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/visgator-ml/visgator/internal/checkpoint"
	"github.com/visgator-ml/visgator/internal/config"
	"github.com/visgator-ml/visgator/internal/dataset"
	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/engine"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "visgator",
		Short:         "Visual grounding evaluation harness",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(newEvalCmd(), newDevicesCmd(), newVersionCmd())
	return root
}

func newEvalCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a grounding model over an annotated dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Debug)

			dev, err := cfg.ResolveDevice()
			if err != nil {
				return err
			}

			data, err := dataset.OpenFile(cfg.Dataset.Path, cfg.Dataset.MaxSide, cfg.Dataset.MaxSamples, dev)
			if err != nil {
				return err
			}

			model, err := buildModel(cfg, dev, logger)
			if err != nil {
				return err
			}

			tok, err := dataset.NewTokenizer()
			if err != nil {
				logger.Warn().Err(err).Msg("tokenizer unavailable, captions will be dropped")
				tok = nil
			}

			results, err := engine.New(cfg, model, data, tok, logger).Run(cmd.Context())
			if err != nil {
				return err
			}

			for _, name := range []string{"IoU", "GIoU", "Accuracy@50", "Accuracy@75", "Accuracy@90"} {
				fmt.Printf("%-12s %.4f\n", name, results[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	return cmd
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List compute devices visible to the harness",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("cpu")
			for i := 0; i < device.AcceleratedCount(); i++ {
				fmt.Printf("cuda:%d\n", i)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("visgator %s\n", version)
		},
	}
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// buildModel constructs the configured model. Only the full-image
// baseline ships with the harness; trained models plug in through the
// engine.Model interface.
func buildModel(cfg config.Config, dev device.Device, logger zerolog.Logger) (engine.Model, error) {
	switch cfg.Model.Name {
	case "", "baseline":
		if cfg.Model.Weights != "" {
			weights, err := checkpoint.Load(cfg.Model.Weights, dev)
			if err != nil {
				return nil, err
			}
			logger.Info().Int("tensors", len(weights)).Str("path", cfg.Model.Weights).Msg("loaded weights")
		}
		return engine.Baseline{}, nil
	default:
		return nil, fmt.Errorf("unknown model %q", cfg.Model.Name)
	}
}
