package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sengkue/video-generator/internal/config"
	"github.com/Sengkue/video-generator/internal/presets"
)

// defaultConfigPath is where edits are saved when no config file was loaded
const defaultConfigPath = "config/presets.json"

// editableConfig rereads the loaded file without environment overrides so
// saving back never persists them
func editableConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadFile(config.FromContext(cmd.Context()).Path)
}

func saveConfig(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := cfg.Path
	if path == "" {
		path = defaultConfigPath
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	log.Info().Str("path", path).Msg("config saved")
	return nil
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage output presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printPresets(cmd.OutOrStdout(), config.FromContext(cmd.Context()).Presets)
		return nil
	},
}

var (
	addPreset presets.Preset
	addForce  bool
)

var presetsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add or replace a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := editableConfig(cmd)
		if err != nil {
			return err
		}

		p := addPreset
		p.Name = args[0]
		table, err := cfg.Presets.With(p, addForce)
		if err != nil {
			return err
		}
		cfg.Presets = table
		return saveConfig(cmd, cfg)
	},
}

var presetsRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := editableConfig(cmd)
		if err != nil {
			return err
		}

		table, err := cfg.Presets.Without(args[0])
		if err != nil {
			return err
		}
		cfg.Presets = table
		return saveConfig(cmd, cfg)
	},
}

var titleCmd = &cobra.Command{
	Use:   "title",
	Short: "Show or change the title style",
}

var titleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the title style",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printTitleStyle(cmd.OutOrStdout(), config.FromContext(cmd.Context()).TitleStyle)
		return nil
	},
}

var titleSet config.TitleStyleConfig

var titleSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the title style",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := editableConfig(cmd)
		if err != nil {
			return err
		}
		style := &cfg.TitleStyle
		flags := cmd.Flags()

		if flags.Changed("fontsize") {
			style.FontSize = titleSet.FontSize
		}
		if flags.Changed("color") {
			style.Color = titleSet.Color
		}
		if flags.Changed("stroke-color") {
			style.StrokeColor = titleSet.StrokeColor
		}
		if flags.Changed("stroke-width") {
			style.StrokeWidth = titleSet.StrokeWidth
		}
		if flags.Changed("font") {
			style.Font = titleSet.Font
		}
		if flags.Changed("top-offset") {
			style.TopOffset = titleSet.TopOffset
		}
		if flags.Changed("opacity") {
			style.Opacity = titleSet.Opacity
		}
		if flags.Changed("source") {
			style.Source = titleSet.Source
		}

		if err := saveConfig(cmd, cfg); err != nil {
			return err
		}
		printTitleStyle(cmd.OutOrStdout(), cfg.TitleStyle)
		return nil
	},
}

func init() {
	presetsAddCmd.Flags().IntVar(&addPreset.Width, "width", 0, "width in pixels")
	presetsAddCmd.Flags().IntVar(&addPreset.Height, "height", 0, "height in pixels")
	presetsAddCmd.Flags().IntVar(&addPreset.FPS, "fps", presets.DefaultFPS, "frames per second")
	presetsAddCmd.Flags().StringVar(&addPreset.AspectRatio, "aspect", "", "aspect ratio label (default: W:H)")
	presetsAddCmd.Flags().StringVar(&addPreset.Description, "description", "", "description")
	presetsAddCmd.Flags().BoolVarP(&addForce, "force", "f", false, "replace an existing preset")
	_ = presetsAddCmd.MarkFlagRequired("width")
	_ = presetsAddCmd.MarkFlagRequired("height")

	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsAddCmd)
	presetsCmd.AddCommand(presetsRemoveCmd)

	titleSetCmd.Flags().IntVar(&titleSet.FontSize, "fontsize", 0, "font size in points")
	titleSetCmd.Flags().StringVar(&titleSet.Color, "color", "", "text color (name or #rrggbb)")
	titleSetCmd.Flags().StringVar(&titleSet.StrokeColor, "stroke-color", "", "outline color")
	titleSetCmd.Flags().IntVar(&titleSet.StrokeWidth, "stroke-width", 0, "outline width in pixels")
	titleSetCmd.Flags().StringVar(&titleSet.Font, "font", "", "TrueType font file")
	titleSetCmd.Flags().IntVar(&titleSet.TopOffset, "top-offset", 0, "distance from the top edge in pixels")
	titleSetCmd.Flags().Float64Var(&titleSet.Opacity, "opacity", 0, "opacity from 0 to 1")
	titleSetCmd.Flags().StringVar(&titleSet.Source, "source", "", "title source: filename or tags")

	titleCmd.AddCommand(titleShowCmd)
	titleCmd.AddCommand(titleSetCmd)
}
