package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sengkue/video-generator/internal/config"
	"github.com/Sengkue/video-generator/internal/render"
	"github.com/Sengkue/video-generator/internal/watch"
	"github.com/Sengkue/video-generator/pkg/util"
)

const defaultPreset = "youtube"

// jobFlags are the flags shared by every command that renders
type jobFlags struct {
	images     string
	preset     string
	width      int
	height     int
	duration   float64
	transition float64
}

func (f *jobFlags) register(cmd *cobra.Command, requireImages bool) {
	cmd.Flags().StringVarP(&f.images, "images", "i", "", "image folder, single image or comma-separated list")
	cmd.Flags().StringVarP(&f.preset, "preset", "p", defaultPreset, "output preset, or \"custom\" with --width and --height")
	cmd.Flags().IntVar(&f.width, "width", 0, "width for the custom preset")
	cmd.Flags().IntVar(&f.height, "height", 0, "height for the custom preset")
	cmd.Flags().Float64VarP(&f.duration, "duration", "d", 0, "seconds per image (default: spread images over the audio)")
	cmd.Flags().Float64Var(&f.transition, "transition", 0, "crossfade seconds, 0 for hard cuts (default from config)")
	if requireImages {
		_ = cmd.MarkFlagRequired("images")
	}
}

// timing returns the per-image and crossfade durations, falling back to
// config for flags that were not given
func (f *jobFlags) timing(cmd *cobra.Command, cfg *config.Config) (time.Duration, time.Duration) {
	imageDur := cfg.Timeline.ImageDurationValue()
	if cmd.Flags().Changed("duration") {
		imageDur = util.Seconds(f.duration)
	}
	crossfade := cfg.Timeline.CrossfadeValue()
	if cmd.Flags().Changed("transition") {
		crossfade = util.Seconds(f.transition)
	}
	return imageDur, crossfade
}

func (f *jobFlags) request(cmd *cobra.Command, cfg *config.Config, audio string) render.Request {
	imageDur, crossfade := f.timing(cmd, cfg)
	return render.Request{
		AudioPath:     audio,
		Images:        render.ParseImageSource(f.images),
		Preset:        f.preset,
		Width:         f.width,
		Height:        f.height,
		ImageDuration: imageDur,
		Crossfade:     crossfade,
	}
}

var (
	renderFlags jobFlags
	renderAudio string
	renderOut   string
	renderTitle string
	renderData  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Create one video from an audio file and images",
	Long:  "Create one video from an audio file and images. Inputs not given with --audio and --images are taken from the --data folder.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := renderFlags.request(cmd, config.FromContext(cmd.Context()), renderAudio)
		if renderAudio == "" || renderFlags.images == "" {
			audio, images, err := render.DataFolder(renderData)
			if err != nil {
				return err
			}
			if renderAudio == "" {
				req.AudioPath = audio
			}
			if renderFlags.images == "" {
				req.Images = images
			}
			fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render(
				fmt.Sprintf("Using %s with images from %s", req.AudioPath, req.Images)))
		}
		req.OutputPath = renderOut
		req.Title = renderTitle

		orch, _, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		out, err := orch.Render(cmd.Context(), req)
		if err != nil {
			return err
		}

		printCreated(cmd.OutOrStdout(), out, time.Since(start))
		return nil
	},
}

var (
	batchFlags  jobFlags
	batchFolder string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Create one video per audio file in a folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cfg, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}

		imageDur, crossfade := batchFlags.timing(cmd, cfg)
		results, err := orch.Batch(cmd.Context(), render.BatchRequest{
			AudioFolder:   batchFolder,
			Images:        render.ParseImageSource(batchFlags.images),
			Preset:        batchFlags.preset,
			Width:         batchFlags.width,
			Height:        batchFlags.height,
			ImageDuration: imageDur,
			Crossfade:     crossfade,
		})
		if err != nil {
			return err
		}

		if failed := printBatchSummary(cmd.OutOrStdout(), results); failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(results))
		}
		return nil
	},
}

var (
	watchFlags    jobFlags
	watchFolder   string
	watchDebounce time.Duration
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render every audio file that appears in a folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cfg, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}

		imageDur, crossfade := watchFlags.timing(cmd, cfg)
		w := watch.New(log.Logger, orch, watch.Config{
			AudioFolder:   watchFolder,
			Images:        render.ParseImageSource(watchFlags.images),
			Preset:        watchFlags.preset,
			Width:         watchFlags.width,
			Height:        watchFlags.height,
			ImageDuration: imageDur,
			Crossfade:     crossfade,
			Debounce:      watchDebounce,
			Existing:      watchExisting,
		})
		if err := w.Start(cmd.Context()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Watching %s (Ctrl+C to stop)", watchFolder)))
		for res := range w.Results() {
			printResult(out, res)
		}
		return nil
	},
}

var (
	previewFlags jobFlags
	previewAudio string
	previewAt    string
	previewOut   string
	previewTitle string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Write the frame shown at a given time as a PNG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := util.ParseTimestamp(previewAt)
		if err != nil {
			return err
		}

		orch, cfg, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}

		req := previewFlags.request(cmd, cfg, previewAudio)
		req.Title = previewTitle

		job, err := orch.Preview(cmd.Context(), req, at, previewOut)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Preview written:"), previewOut)
		fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render(fmt.Sprintf("%q at %s of %s, %d segments",
			job.Title, util.FormatDuration(at), util.FormatDuration(job.AudioDuration), len(job.Segments))))
		return nil
	},
}

func init() {
	renderFlags.register(renderCmd, false)
	renderCmd.Flags().StringVarP(&renderAudio, "audio", "a", "", "audio file")
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output video (default: <output_dir>/<audio>_<preset>.mp4)")
	renderCmd.Flags().StringVarP(&renderTitle, "title", "t", "", "title text (default: derived from the audio)")
	renderCmd.Flags().StringVar(&renderData, "data", render.DefaultDataDir, "folder scanned for audio and images not given with -a and -i")

	batchFlags.register(batchCmd, true)
	batchCmd.Flags().StringVar(&batchFolder, "audio-folder", "", "folder of audio files")
	_ = batchCmd.MarkFlagRequired("audio-folder")

	watchFlags.register(watchCmd, true)
	watchCmd.Flags().StringVar(&watchFolder, "audio-folder", "", "folder to watch")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a new file is rendered")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also render files already in the folder")
	_ = watchCmd.MarkFlagRequired("audio-folder")

	previewFlags.register(previewCmd, true)
	previewCmd.Flags().StringVarP(&previewAudio, "audio", "a", "", "audio file")
	previewCmd.Flags().StringVar(&previewAt, "at", "0", "time to preview (seconds, MM:SS or HH:MM:SS)")
	previewCmd.Flags().StringVarP(&previewOut, "output", "o", "preview.png", "output image")
	previewCmd.Flags().StringVarP(&previewTitle, "title", "t", "", "title text (default: derived from the audio)")
	_ = previewCmd.MarkFlagRequired("audio")
}
