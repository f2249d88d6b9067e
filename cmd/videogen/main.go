package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sengkue/video-generator/internal/config"
	"github.com/Sengkue/video-generator/internal/ffmpeg"
	"github.com/Sengkue/video-generator/internal/logging"
	"github.com/Sengkue/video-generator/internal/render"
)

var (
	cfgFile     string
	verbose     bool
	quiet       bool
	logJSON     bool
	listPresets bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "videogen",
	Short:         "videogen - music slideshow video generator",
	Long:          "Turns an audio track and a set of images into a slideshow video sized for social media, with the song title burned in.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.Options{Verbose: verbose, Quiet: quiet, JSON: logJSON})

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Path != "" {
			log.Debug().Str("path", cfg.Path).Msg("config loaded")
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPresets {
			printPresets(cmd.OutOrStdout(), config.FromContext(cmd.Context()).Presets)
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config/presets.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON lines")
	rootCmd.Flags().BoolVar(&listPresets, "list-presets", false, "list available presets and exit")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(titleCmd)
}

// newOrchestrator wires the ffmpeg executor and config into a render
// orchestrator
func newOrchestrator(cmd *cobra.Command) (*render.Orchestrator, *config.Config, error) {
	cfg := config.FromContext(cmd.Context())

	exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.ExecutorOptions())
	if err != nil {
		return nil, nil, err
	}
	opts, err := render.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", config.ErrConfigLoad, err)
	}
	return render.New(log.Logger, exec, opts), cfg, nil
}
