package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sengkue/video-generator/internal/config"
	"github.com/Sengkue/video-generator/internal/ffmpeg"
	"github.com/Sengkue/video-generator/internal/fit"
	"github.com/Sengkue/video-generator/internal/presets"
	"github.com/Sengkue/video-generator/internal/timeline"
	"github.com/Sengkue/video-generator/internal/title"
	"github.com/Sengkue/video-generator/pkg/util"
)

var (
	ErrNoImagesFound = errors.New("no images found")
	ErrAudioLoad     = errors.New("audio load failed")
	ErrEncode        = errors.New("encode failed")
)

// Encoder probes audio and encodes slideshows. *ffmpeg.Executor implements it.
type Encoder interface {
	ProbeAudio(ctx context.Context, path string) (*ffmpeg.AudioInfo, error)
	EncodeSlideshow(ctx context.Context, job ffmpeg.SlideshowJob) error
}

// Options holds the settings shared by every render
type Options struct {
	Presets     *presets.Table
	Style       title.Style
	FontPath    string
	TitleSource string
	Settings    ffmpeg.Settings
	Timeline    timeline.Options
	Fill        timeline.FillPolicy
	Background  color.Color
	OutputDir   string
	TempDir     string
	Workers     int
}

// OptionsFromConfig converts application config into render options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	style, err := title.ParseStyle(cfg.TitleStyle.Spec())
	if err != nil {
		return Options{}, fmt.Errorf("title style: %w", err)
	}
	fill, err := timeline.ParseFillPolicy(cfg.Timeline.Fill)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Presets:     cfg.Presets,
		Style:       style,
		FontPath:    cfg.TitleStyle.Font,
		TitleSource: cfg.TitleStyle.Source,
		Settings:    cfg.VideoSettings,
		Timeline:    cfg.Timeline.Options(),
		Fill:        fill,
		OutputDir:   cfg.OutputDir,
		TempDir:     cfg.TempDir,
		Workers:     cfg.Workers,
	}, nil
}

// Request describes one video to produce
type Request struct {
	AudioPath string
	Images    ImageSource
	// Preset names an entry of the preset table or "custom"
	Preset string
	// Width and Height are only used by the custom preset
	Width  int
	Height int
	// OutputPath defaults to <output dir>/<audio stem>_<preset>.mp4
	OutputPath string
	Title      string
	// ImageDuration of zero spreads the images over the audio
	ImageDuration time.Duration
	Crossfade     time.Duration

	Progress ffmpeg.ProgressFunc
}

// Job is a fully planned render: everything is decoded, fitted and laid out
type Job struct {
	ID            string
	AudioPath     string
	AudioDuration time.Duration
	Images        []fit.ImageAsset
	Preset        presets.Preset
	Title         string
	OutputPath    string
	Segments      []timeline.Segment
	Overlay       *title.Overlay
}

// Orchestrator turns requests into finished videos
type Orchestrator struct {
	logger  zerolog.Logger
	encoder Encoder
	fitter  *fit.Fitter
	titles  *title.Renderer
	opts    Options
}

// New creates an orchestrator
func New(logger zerolog.Logger, encoder Encoder, opts Options) *Orchestrator {
	if opts.Presets == nil {
		opts.Presets = presets.Default()
	}
	if opts.Style.FontSize == 0 {
		opts.Style = title.DefaultStyle()
	}
	if opts.Fill == "" {
		opts.Fill = timeline.FillHold
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	fitter := fit.New()
	if opts.Background != nil {
		fitter.Background = opts.Background
	}

	return &Orchestrator{
		logger:  logger.With().Str("component", "render").Logger(),
		encoder: encoder,
		fitter:  fitter,
		titles:  title.NewRenderer(logger, opts.FontPath),
		opts:    opts,
	}
}

// RenderFromFolder renders audio over every image in dir
func (o *Orchestrator) RenderFromFolder(ctx context.Context, audioPath, dir, preset string) (string, error) {
	return o.Render(ctx, Request{AudioPath: audioPath, Images: Directory(dir), Preset: preset})
}

// RenderFromList renders audio over the given images in order
func (o *Orchestrator) RenderFromList(ctx context.Context, audioPath string, images []string, preset string) (string, error) {
	return o.Render(ctx, Request{AudioPath: audioPath, Images: ExplicitList(images...), Preset: preset})
}

// Render produces the video described by req and returns its path. The
// named output path is only ever written by a final rename, so a failed
// render leaves nothing there.
func (o *Orchestrator) Render(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	job, err := o.Prepare(ctx, req)
	if err != nil {
		return "", err
	}
	logger := o.logger.With().Str("job", job.ID).Logger()

	workDir, err := o.workDir(job.ID)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn().Err(err).Str("dir", workDir).Msg("failed to remove work dir")
		}
	}()

	encJob, err := o.writeAssets(job, workDir)
	if err != nil {
		return "", err
	}

	if err := util.EnsureDir(filepath.Dir(job.OutputPath)); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := util.TempFile(filepath.Dir(job.OutputPath), "."+util.Stem(job.OutputPath)+"-", ".mp4")
	if err != nil {
		return "", fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	encJob.Output = tmpPath
	encJob.ProgressFunc = o.progress(logger, req.Progress)

	if err := o.encoder.EncodeSlideshow(ctx, encJob); err != nil {
		util.CleanupFiles(tmpPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		util.CleanupFiles(tmpPath)
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := os.Rename(tmpPath, job.OutputPath); err != nil {
		util.CleanupFiles(tmpPath)
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}

	logger.Info().
		Str("output", job.OutputPath).
		Dur("duration", timeline.Total(job.Segments)).
		Dur("elapsed", time.Since(start)).
		Msg("video created")

	return job.OutputPath, nil
}

// Prepare validates req and does all the work that precedes encoding:
// preset lookup, image discovery and fitting, audio probing, timeline
// layout and title rendering
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Job, error) {
	preset, err := o.opts.Presets.Resolve(req.Preset, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	if req.ImageDuration < 0 || req.Crossfade < 0 {
		return nil, fmt.Errorf("%w: durations must not be negative", timeline.ErrInvalidDuration)
	}
	if req.ImageDuration > 0 && req.Crossfade >= req.ImageDuration {
		return nil, fmt.Errorf("%w: crossfade %v must be shorter than image duration %v",
			timeline.ErrInvalidTransition, req.Crossfade, req.ImageDuration)
	}

	paths, err := req.Images.Resolve()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioLoad, err)
	}
	info, err := o.encoder.ProbeAudio(ctx, req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAudioLoad, req.AudioPath, err)
	}

	perFrame := timeline.SegmentDuration(req.ImageDuration, info.Duration, len(paths), o.opts.Timeline)
	if req.Crossfade > 0 && req.Crossfade >= perFrame {
		return nil, fmt.Errorf("%w: crossfade %v must be shorter than image duration %v",
			timeline.ErrInvalidTransition, req.Crossfade, perFrame)
	}

	job := &Job{
		ID:            uuid.NewString(),
		AudioPath:     req.AudioPath,
		AudioDuration: info.Duration,
		Preset:        preset,
		OutputPath:    req.OutputPath,
	}
	if job.OutputPath == "" {
		job.OutputPath = o.DefaultOutputPath(req.AudioPath, preset.Name)
	}
	logger := o.logger.With().Str("job", job.ID).Logger()

	logger.Info().
		Str("audio", req.AudioPath).
		Dur("audio_duration", info.Duration).
		Str("preset", preset.Name).
		Str("size", preset.Size()).
		Int("images", len(paths)).
		Msg("starting render")

	frames := make([]fit.FittedFrame, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := o.fitter.FitFile(p, preset.Width, preset.Height)
		if err != nil {
			return nil, err
		}
		logger.Debug().
			Str("image", p).
			Int("width", frame.Source.Width).
			Int("height", frame.Source.Height).
			Msg("image fitted")
		frames = append(frames, frame)
		job.Images = append(job.Images, frame.Source)
	}

	segs, err := timeline.Build(frames, req.ImageDuration, req.Crossfade, info.Duration, o.opts.Timeline)
	if err != nil {
		return nil, err
	}
	segs = timeline.Fill(segs, frames, perFrame, req.Crossfade, info.Duration, o.opts.Fill)
	job.Segments = segs

	logger.Debug().
		Int("segments", len(segs)).
		Dur("image_duration", perFrame).
		Dur("crossfade", req.Crossfade).
		Dur("visual", timeline.Total(segs)).
		Str("fill", string(o.opts.Fill)).
		Msg("timeline built")

	job.Title = o.resolveTitle(logger, req, info)
	job.Overlay, err = o.titles.Generate(job.Title, preset.Width, preset.Height, o.opts.Style)
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}

	return job, nil
}

func (o *Orchestrator) resolveTitle(logger zerolog.Logger, req Request, info *ffmpeg.AudioInfo) string {
	if req.Title == "" && o.opts.TitleSource == config.TitleFromTags {
		t, err := title.FromTags(req.AudioPath)
		if err != nil || t == "" {
			t = info.Title
		}
		if t != "" {
			return t
		}
		logger.Debug().Err(err).Msg("no title tag, deriving from file name")
	}
	return title.Derive(req.AudioPath, req.Title)
}

// DefaultOutputPath is where a render goes when no output is requested
func (o *Orchestrator) DefaultOutputPath(audioPath, preset string) string {
	return filepath.Join(o.opts.OutputDir, fmt.Sprintf("%s_%s.mp4", util.Stem(audioPath), preset))
}

func (o *Orchestrator) workDir(id string) (string, error) {
	base := o.opts.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "videogen-"+id)
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// writeAssets saves fitted frames and the title as PNGs in dir and
// describes the encode
func (o *Orchestrator) writeAssets(job *Job, dir string) (ffmpeg.SlideshowJob, error) {
	written := make(map[string]string)
	slides := make([]ffmpeg.Slide, len(job.Segments))

	for i, seg := range job.Segments {
		src := seg.Frame.Source.Path
		path, ok := written[src]
		if !ok {
			path = filepath.Join(dir, fmt.Sprintf("frame_%03d.png", len(written)))
			if err := imaging.Save(seg.Frame.Image, path); err != nil {
				return ffmpeg.SlideshowJob{}, fmt.Errorf("write frame: %w", err)
			}
			written[src] = path
		}
		slides[i] = ffmpeg.Slide{
			Path:        path,
			Start:       seg.Start,
			Length:      seg.Length,
			CrossfadeIn: seg.CrossfadeIn,
		}
	}

	titlePath := filepath.Join(dir, "title.png")
	if err := imaging.Save(job.Overlay.Image, titlePath); err != nil {
		return ffmpeg.SlideshowJob{}, fmt.Errorf("write title: %w", err)
	}

	return ffmpeg.SlideshowJob{
		Slides:      slides,
		OverlayPath: titlePath,
		AudioPath:   job.AudioPath,
		Duration:    job.AudioDuration,
		Width:       job.Preset.Width,
		Height:      job.Preset.Height,
		FPS:         job.Preset.FPS,
		Settings:    o.opts.Settings,
	}, nil
}

// progress logs encoder progress at most every two seconds and forwards it
func (o *Orchestrator) progress(logger zerolog.Logger, next ffmpeg.ProgressFunc) ffmpeg.ProgressFunc {
	var last time.Time
	return func(p *ffmpeg.Progress) {
		if now := time.Now(); now.Sub(last) >= 2*time.Second {
			last = now
			logger.Debug().
				Float64("percent", p.Percentage).
				Int("frame", p.Frame).
				Str("speed", p.Speed).
				Msg("encoding")
		}
		if next != nil {
			next(p)
		}
	}
}
