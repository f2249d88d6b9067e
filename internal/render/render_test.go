package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sengkue/video-generator/internal/ffmpeg"
	"github.com/Sengkue/video-generator/internal/fit"
	"github.com/Sengkue/video-generator/internal/presets"
	"github.com/Sengkue/video-generator/internal/timeline"
	"github.com/Sengkue/video-generator/internal/title"
)

// fakeEncoder stands in for ffmpeg. Audio durations come from durations;
// a missing entry fails the probe.
type fakeEncoder struct {
	mu        sync.Mutex
	durations map[string]time.Duration
	encodeErr error
	jobs      []ffmpeg.SlideshowJob
	probes    int
	// slideSizes records the decoded size of every slide at encode time
	slideSizes []image.Point
}

func (f *fakeEncoder) ProbeAudio(_ context.Context, path string) (*ffmpeg.AudioInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	d, ok := f.durations[filepath.Base(path)]
	if !ok {
		return nil, errors.New("Invalid data found when processing input")
	}
	return &ffmpeg.AudioInfo{FilePath: path, Duration: d, Codec: "mp3"}, nil
}

func (f *fakeEncoder) EncodeSlideshow(_ context.Context, job ffmpeg.SlideshowJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)

	for _, s := range job.Slides {
		img, err := imaging.Open(s.Path)
		if err != nil {
			return err
		}
		f.slideSizes = append(f.slideSizes, img.Bounds().Size())
	}
	if _, err := os.Stat(job.OverlayPath); err != nil {
		return err
	}

	if err := os.WriteFile(job.Output, []byte("partial"), 0644); err != nil {
		return err
	}
	if f.encodeErr != nil {
		return f.encodeErr
	}
	return os.WriteFile(job.Output, []byte("mp4 data"), 0644)
}

type fixture struct {
	dir     string
	images  string
	output  string
	temp    string
	encoder *fakeEncoder
	orch    *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		images:  filepath.Join(dir, "images"),
		output:  filepath.Join(dir, "output"),
		temp:    filepath.Join(dir, "tmp"),
		encoder: &fakeEncoder{durations: map[string]time.Duration{}},
	}
	require.NoError(t, os.MkdirAll(f.images, 0755))
	require.NoError(t, os.MkdirAll(f.temp, 0755))

	style := title.DefaultStyle()
	style.FontSize = 12
	style.TopOffset = 4
	style.StrokeWidth = 1

	f.orch = New(zerolog.Nop(), f.encoder, Options{
		Style:     style,
		OutputDir: f.output,
		TempDir:   f.temp,
	})
	return f
}

func (f *fixture) image(t *testing.T, name string, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(f.images, name)
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
	return path
}

func (f *fixture) audio(t *testing.T, name string, d time.Duration) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0644))
	if d > 0 {
		f.encoder.durations[name] = d
	}
	return path
}

func TestRenderFromFolder(t *testing.T) {
	f := newFixture(t)
	f.image(t, "b.png", 40, 20, color.NRGBA{R: 255, A: 255})
	f.image(t, "a.jpg", 20, 40, color.NRGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(f.images, "notes.txt"), []byte("x"), 0644))
	audio := f.audio(t, "for love.mp3", 10*time.Second)

	out, err := f.orch.Render(context.Background(), Request{
		AudioPath: audio,
		Images:    Directory(f.images),
		Preset:    "custom",
		Width:     160,
		Height:    90,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.output, "for love_custom.mp4"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "mp4 data", string(data))

	require.Len(t, f.encoder.jobs, 1)
	job := f.encoder.jobs[0]
	// ten seconds of audio and two images: five seconds each
	require.Len(t, job.Slides, 2)
	assert.Equal(t, 5*time.Second, job.Slides[0].Length)
	assert.Equal(t, 5*time.Second, job.Slides[1].Start)
	assert.Equal(t, 10*time.Second, job.Duration)
	assert.Equal(t, 160, job.Width)
	assert.Equal(t, 90, job.Height)
	assert.Equal(t, presets.DefaultFPS, job.FPS)
	assert.Equal(t, audio, job.AudioPath)

	for _, size := range f.encoder.slideSizes {
		assert.Equal(t, image.Pt(160, 90), size)
	}

	// only the finished file is left in the output dir; the work dir is gone
	entries, err := os.ReadDir(f.output)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	entries, err = os.ReadDir(f.temp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderFromListKeepsOrder(t *testing.T) {
	f := newFixture(t)
	second := f.image(t, "a.png", 16, 9, color.White)
	first := f.image(t, "z.png", 16, 9, color.Black)
	audio := f.audio(t, "song.wav", 6*time.Second)

	job, err := f.orch.Prepare(context.Background(), Request{
		AudioPath:     audio,
		Images:        ExplicitList(first, second),
		Preset:        "youtube",
		ImageDuration: 3 * time.Second,
	})
	require.NoError(t, err)
	require.Len(t, job.Images, 2)
	assert.Equal(t, first, job.Images[0].Path)
	assert.Equal(t, second, job.Images[1].Path)
	assert.Equal(t, "youtube", job.Preset.Name)
	assert.Equal(t, filepath.Join(f.output, "song_youtube.mp4"), job.OutputPath)

	out, err := f.orch.RenderFromList(context.Background(), audio, []string{first, second}, "instagram_post")
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestRenderCrossfadeAndHold(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"1.png", "2.png", "3.png"} {
		f.image(t, n, 32, 18, color.Gray{Y: 128})
	}
	audio := f.audio(t, "long.mp3", 20*time.Second)

	_, err := f.orch.Render(context.Background(), Request{
		AudioPath:     audio,
		Images:        Directory(f.images),
		Preset:        "custom",
		Width:         64,
		Height:        36,
		OutputPath:    filepath.Join(f.dir, "nested", "final.mp4"),
		ImageDuration: 4 * time.Second,
		Crossfade:     time.Second,
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.dir, "nested", "final.mp4"))

	job := f.encoder.jobs[0]
	require.Len(t, job.Slides, 3)
	assert.Equal(t, []time.Duration{0, 3 * time.Second, 6 * time.Second},
		[]time.Duration{job.Slides[0].Start, job.Slides[1].Start, job.Slides[2].Start})
	assert.Zero(t, job.Slides[0].CrossfadeIn)
	assert.Equal(t, time.Second, job.Slides[2].CrossfadeIn)
	// the last image is held until the audio ends
	assert.Equal(t, 14*time.Second, job.Slides[2].Length)
	assert.Equal(t, 20*time.Second, job.Duration)
}

func TestRenderFillNoneKeepsAudio(t *testing.T) {
	f := newFixture(t)
	f.orch.opts.Fill = timeline.FillNone
	f.image(t, "1.png", 32, 18, color.White)
	f.image(t, "2.png", 32, 18, color.Black)
	audio := f.audio(t, "long.mp3", 20*time.Second)

	_, err := f.orch.Render(context.Background(), Request{
		AudioPath:     audio,
		Images:        Directory(f.images),
		Preset:        "custom",
		Width:         32,
		Height:        18,
		ImageDuration: 3 * time.Second,
	})
	require.NoError(t, err)

	job := f.encoder.jobs[0]
	require.Len(t, job.Slides, 2)
	assert.Equal(t, 3*time.Second, job.Slides[1].Length)
	// the slides stop at six seconds but the output runs as long as the audio
	assert.Equal(t, 20*time.Second, job.Duration)
}

func TestRenderOutputIsWorldReadable(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 8, 8, color.White)
	audio := f.audio(t, "song.mp3", 5*time.Second)

	out, err := f.orch.Render(context.Background(), Request{AudioPath: audio, Images: Directory(f.images), Preset: "custom", Width: 16, Height: 16})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestRenderRejectsAutoCrossfadeBeforeFitting(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 8, 8, color.White)
	// would fail to decode if fitting were reached
	require.NoError(t, os.WriteFile(filepath.Join(f.images, "2.png"), []byte("not a png"), 0644))
	audio := f.audio(t, "song.mp3", 6*time.Second)

	// auto duration is max(3s, 6s/2) = 3s, so a 3s crossfade cannot fit
	_, err := f.orch.Render(context.Background(), Request{
		AudioPath: audio,
		Images:    Directory(f.images),
		Preset:    "tiktok",
		Crossfade: 3 * time.Second,
	})
	assert.ErrorIs(t, err, timeline.ErrInvalidTransition)
	assert.NotErrorIs(t, err, fit.ErrInvalidImage)
	assert.Empty(t, f.encoder.jobs)
}

func TestRenderTruncatesToAudio(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"1.png", "2.png", "3.png", "4.png"} {
		f.image(t, n, 32, 18, color.White)
	}
	audio := f.audio(t, "short.mp3", 7*time.Second)

	_, err := f.orch.Render(context.Background(), Request{
		AudioPath:     audio,
		Images:        Directory(f.images),
		Preset:        "custom",
		Width:         32,
		Height:        18,
		ImageDuration: 5 * time.Second,
	})
	require.NoError(t, err)

	job := f.encoder.jobs[0]
	require.Len(t, job.Slides, 2)
	assert.Equal(t, 2*time.Second, job.Slides[1].Length)
	assert.Equal(t, 7*time.Second, job.Duration)
}

func TestRenderValidationHappensFirst(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 8, 8, color.White)
	audio := f.audio(t, "song.mp3", 5*time.Second)
	empty := filepath.Join(f.dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0755))

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			name: "unknown preset",
			req:  Request{AudioPath: audio, Images: Directory(f.images), Preset: "myspace"},
			want: presets.ErrUnknownPreset,
		},
		{
			name: "custom without size",
			req:  Request{AudioPath: audio, Images: Directory(f.images), Preset: "custom"},
			want: presets.ErrInvalidDimensions,
		},
		{
			name: "crossfade too long",
			req:  Request{AudioPath: audio, Images: Directory(f.images), Preset: "tiktok", ImageDuration: time.Second, Crossfade: time.Second},
			want: timeline.ErrInvalidTransition,
		},
		{
			name: "negative duration",
			req:  Request{AudioPath: audio, Images: Directory(f.images), Preset: "tiktok", ImageDuration: -time.Second},
			want: timeline.ErrInvalidDuration,
		},
		{
			name: "empty folder",
			req:  Request{AudioPath: audio, Images: Directory(empty), Preset: "tiktok"},
			want: ErrNoImagesFound,
		},
		{
			name: "missing folder",
			req:  Request{AudioPath: audio, Images: Directory(filepath.Join(f.dir, "nope")), Preset: "tiktok"},
			want: ErrNoImagesFound,
		},
		{
			name: "empty list",
			req:  Request{AudioPath: audio, Images: ExplicitList(), Preset: "tiktok"},
			want: ErrNoImagesFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.Render(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.encoder.probes)
	assert.Empty(t, f.encoder.jobs)
}

func TestRenderAudioLoad(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 8, 8, color.White)

	_, err := f.orch.Render(context.Background(), Request{
		AudioPath: filepath.Join(f.dir, "missing.mp3"),
		Images:    Directory(f.images),
		Preset:    "tiktok",
	})
	assert.ErrorIs(t, err, ErrAudioLoad)

	// exists but cannot be probed
	broken := f.audio(t, "broken.mp3", 0)
	_, err = f.orch.Render(context.Background(), Request{
		AudioPath: broken,
		Images:    Directory(f.images),
		Preset:    "tiktok",
	})
	assert.ErrorIs(t, err, ErrAudioLoad)
	assert.Empty(t, f.encoder.jobs)
}

func TestRenderInvalidImage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.images, "bad.png"), []byte("not a png"), 0644))
	audio := f.audio(t, "song.mp3", 5*time.Second)

	_, err := f.orch.Render(context.Background(), Request{AudioPath: audio, Images: Directory(f.images), Preset: "tiktok"})
	assert.ErrorIs(t, err, fit.ErrInvalidImage)
	assert.Empty(t, f.encoder.jobs)
}

func TestRenderEncodeFailureLeavesNoOutput(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 8, 8, color.White)
	audio := f.audio(t, "song.mp3", 5*time.Second)
	f.encoder.encodeErr = &ffmpeg.ExitError{Code: 1}

	out := filepath.Join(f.output, "named.mp4")
	_, err := f.orch.Render(context.Background(), Request{
		AudioPath:  audio,
		Images:     Directory(f.images),
		Preset:     "custom",
		Width:      32,
		Height:     32,
		OutputPath: out,
	})
	assert.ErrorIs(t, err, ErrEncode)

	var exitErr *ffmpeg.ExitError
	assert.ErrorAs(t, err, &exitErr)

	assert.NoFileExists(t, out)
	entries, err := os.ReadDir(f.output)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderTitle(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 8, 8, color.White)
	audio := f.audio(t, "for love.mp3", 5*time.Second)

	job, err := f.orch.Prepare(context.Background(), Request{AudioPath: audio, Images: Directory(f.images), Preset: "custom", Width: 120, Height: 60})
	require.NoError(t, err)
	assert.Equal(t, "For Love", job.Title)
	assert.Equal(t, "For Love", job.Overlay.Text)
	assert.Equal(t, image.Pt(120, 60), job.Overlay.Image.Bounds().Size())

	job, err = f.orch.Prepare(context.Background(), Request{AudioPath: audio, Images: Directory(f.images), Preset: "custom", Width: 120, Height: 60, Title: "Summer Mix"})
	require.NoError(t, err)
	assert.Equal(t, "Summer Mix", job.Title)
}

func TestPreviewBlendsCrossfade(t *testing.T) {
	f := newFixture(t)
	f.image(t, "1.png", 160, 90, color.NRGBA{R: 255, A: 255})
	f.image(t, "2.png", 160, 90, color.NRGBA{B: 255, A: 255})
	audio := f.audio(t, "song.mp3", 6*time.Second)

	req := Request{
		AudioPath:     audio,
		Images:        Directory(f.images),
		Preset:        "custom",
		Width:         160,
		Height:        90,
		ImageDuration: 4 * time.Second,
		Crossfade:     2 * time.Second,
	}

	out := filepath.Join(f.dir, "previews", "mid.png")
	_, err := f.orch.Preview(context.Background(), req, 3*time.Second, out)
	require.NoError(t, err)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(160, 90), img.Bounds().Size())

	// bottom corner is clear of the title
	c := color.NRGBAModel.Convert(img.At(2, 88)).(color.NRGBA)
	assert.InDelta(t, 128, int(c.R), 1)
	assert.Zero(t, c.G)
	assert.InDelta(t, 128, int(c.B), 1)

	// past the end: last frame
	_, err = f.orch.Preview(context.Background(), req, time.Minute, out)
	require.NoError(t, err)
	img, err = imaging.Open(out)
	require.NoError(t, err)
	c = color.NRGBAModel.Convert(img.At(2, 88)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, c)

	assert.Empty(t, f.encoder.jobs)
}

func TestParseImageSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.png")
	require.NoError(t, imaging.Save(imaging.New(2, 2, color.White), file))

	s := ParseImageSource(" a.png, b.jpg ,,c.png ")
	assert.False(t, s.IsDirectory())
	paths, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.jpg", "c.png"}, paths)

	s = ParseImageSource(file)
	assert.False(t, s.IsDirectory())
	assert.Equal(t, file, s.String())

	s = ParseImageSource(dir)
	assert.True(t, s.IsDirectory())
	paths, err = s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)
}
