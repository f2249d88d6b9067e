package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/Sengkue/video-generator/pkg/util"
)

// Slide is one still image on the slideshow timeline. The image must
// already be sized to the output canvas.
type Slide struct {
	Path        string
	Start       time.Duration
	Length      time.Duration
	CrossfadeIn time.Duration
}

// SlideshowJob describes a complete encode: slides chained with
// crossfades, an optional full-frame overlay and a single audio track
type SlideshowJob struct {
	Slides      []Slide
	OverlayPath string
	AudioPath   string
	// Duration is the length of the output, which is the audio length. The
	// slides may end earlier.
	Duration time.Duration
	Width    int
	Height   int
	FPS      int
	Settings Settings
	Output   string

	ProgressFunc ProgressFunc
}

func (j SlideshowJob) validate() error {
	switch {
	case len(j.Slides) == 0:
		return fmt.Errorf("no slides")
	case j.AudioPath == "":
		return fmt.Errorf("audio path is required")
	case j.Output == "":
		return fmt.Errorf("output path is required")
	case j.Width <= 0 || j.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", j.Width, j.Height)
	case j.FPS <= 0:
		return fmt.Errorf("invalid fps %d", j.FPS)
	case j.Duration <= 0:
		return fmt.Errorf("invalid duration %v", j.Duration)
	}
	for i, s := range j.Slides {
		if s.Path == "" || s.Length <= 0 {
			return fmt.Errorf("slide %d: path and positive length are required", i)
		}
		if i > 0 && s.CrossfadeIn >= s.Length {
			return fmt.Errorf("slide %d: crossfade %v not shorter than slide %v", i, s.CrossfadeIn, s.Length)
		}
	}
	return nil
}

// BuildSlideshowArgs returns the ffmpeg arguments (without the global
// flags Run adds) that encode the job
func BuildSlideshowArgs(job SlideshowJob) ([]string, error) {
	if err := job.validate(); err != nil {
		return nil, fmt.Errorf("invalid slideshow job: %w", err)
	}
	settings := job.Settings.withDefaults()
	fps := strconv.Itoa(job.FPS)

	video := slideStream(job.Slides[0], fps)
	var pending []*ffmpeggo.Stream
	for _, s := range job.Slides[1:] {
		next := slideStream(s, fps)
		if s.CrossfadeIn <= 0 {
			// hard cuts are concatenated in one go
			if len(pending) == 0 {
				pending = append(pending, video)
			}
			pending = append(pending, next)
			continue
		}
		if len(pending) > 0 {
			video = ffmpeggo.Concat(pending)
			pending = nil
		}
		video = ffmpeggo.Filter([]*ffmpeggo.Stream{video, next}, "xfade", ffmpeggo.Args{}, ffmpeggo.KwArgs{
			"transition": "fade",
			"duration":   util.FormatSeconds(s.CrossfadeIn),
			"offset":     util.FormatSeconds(s.Start),
		})
	}
	if len(pending) > 0 {
		video = ffmpeggo.Concat(pending)
	}

	if job.OverlayPath != "" {
		title := ffmpeggo.Input(job.OverlayPath, ffmpeggo.KwArgs{
			"loop":      1,
			"framerate": fps,
			"t":         util.FormatSeconds(job.Duration),
		})
		video = ffmpeggo.Filter([]*ffmpeggo.Stream{video, title}, "overlay", ffmpeggo.Args{}, ffmpeggo.KwArgs{
			"x":          0,
			"y":          0,
			"format":     "auto",
			"eof_action": "pass",
		})
	}
	video = video.Filter("format", ffmpeggo.Args{settings.PixFmt})

	audio := ffmpeggo.Input(job.AudioPath).Audio()

	out := ffmpeggo.Output([]*ffmpeggo.Stream{video, audio}, job.Output, ffmpeggo.KwArgs{
		"c:v":      settings.VideoCodec,
		"b:v":      settings.Bitrate,
		"preset":   settings.Preset,
		"c:a":      settings.AudioCodec,
		"b:a":      settings.AudioBitrate,
		"r":        fps,
		"t":        util.FormatSeconds(job.Duration),
		"movflags": "+faststart",
	})
	return out.GetArgs(), nil
}

// slideStream loops a still for the slide length at a constant frame rate
// and timebase, which xfade requires of both its inputs
func slideStream(s Slide, fps string) *ffmpeggo.Stream {
	return ffmpeggo.Input(s.Path, ffmpeggo.KwArgs{
		"loop":      1,
		"framerate": fps,
		"t":         util.FormatSeconds(s.Length),
	}).
		Filter("fps", ffmpeggo.Args{fps}).
		Filter("settb", ffmpeggo.Args{"AVTB"}).
		Filter("setsar", ffmpeggo.Args{"1"})
}

// EncodeSlideshow renders the job to job.Output
func (e *Executor) EncodeSlideshow(ctx context.Context, job SlideshowJob) error {
	args, err := BuildSlideshowArgs(job)
	if err != nil {
		return err
	}

	e.logger.Info().
		Int("slides", len(job.Slides)).
		Str("audio", job.AudioPath).
		Str("output", job.Output).
		Dur("duration", job.Duration).
		Msg("encoding slideshow")

	return e.Run(ctx, RunOptions{
		Args:            args,
		Duration:        job.Duration,
		ProgressHandler: job.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("encode output")
		},
	})
}
