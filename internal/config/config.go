package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Sengkue/video-generator/internal/ffmpeg"
	"github.com/Sengkue/video-generator/internal/presets"
	"github.com/Sengkue/video-generator/internal/timeline"
	"github.com/Sengkue/video-generator/internal/title"
	"github.com/Sengkue/video-generator/pkg/util"
)

// ErrConfigLoad is returned for a missing or malformed configuration file
var ErrConfigLoad = errors.New("config load failed")

// Environment variables that override file settings
const (
	EnvConfig    = "VIDEOGEN_CONFIG"
	EnvFFmpeg    = "VIDEOGEN_FFMPEG"
	EnvFFprobe   = "VIDEOGEN_FFPROBE"
	EnvOutputDir = "VIDEOGEN_OUTPUT_DIR"
	EnvWorkers   = "VIDEOGEN_WORKERS"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	Presets       *presets.Table   `yaml:"presets" json:"presets"`
	TitleStyle    TitleStyleConfig `yaml:"title_style" json:"title_style"`
	VideoSettings ffmpeg.Settings  `yaml:"video_settings" json:"video_settings"`
	Timeline      TimelineConfig   `yaml:"timeline" json:"timeline"`

	// Core settings
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	TempDir   string `yaml:"temp_dir" json:"temp_dir"`
	Workers   int    `yaml:"workers" json:"workers"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg" json:"ffmpeg"`

	// Path is the file the config was loaded from, empty for defaults
	Path string `yaml:"-" json:"-"`
}

// TitleStyleConfig is the on-disk form of the title look
type TitleStyleConfig struct {
	FontSize    int     `yaml:"fontsize" json:"fontsize"`
	Color       string  `yaml:"color" json:"color"`
	StrokeColor string  `yaml:"stroke_color" json:"stroke_color"`
	StrokeWidth int     `yaml:"stroke_width" json:"stroke_width"`
	Font        string  `yaml:"font,omitempty" json:"font,omitempty"`
	TopOffset   int     `yaml:"top_offset" json:"top_offset"`
	Opacity     float64 `yaml:"opacity" json:"opacity"`
	// Source is "filename" or "tags"
	Source string `yaml:"source" json:"source"`
}

// Title sources
const (
	TitleFromFilename = "filename"
	TitleFromTags     = "tags"
)

// Spec converts the config into a title.StyleSpec
func (t TitleStyleConfig) Spec() title.StyleSpec {
	return title.StyleSpec{
		FontSize:    t.FontSize,
		Color:       t.Color,
		StrokeColor: t.StrokeColor,
		StrokeWidth: t.StrokeWidth,
		TopOffset:   t.TopOffset,
		Opacity:     t.Opacity,
	}
}

// TimelineConfig holds slideshow timing, in seconds
type TimelineConfig struct {
	// ImageDuration of 0 spreads the images over the audio
	ImageDuration    float64 `yaml:"image_duration" json:"image_duration"`
	Crossfade        float64 `yaml:"crossfade" json:"crossfade"`
	MinImageDuration float64 `yaml:"min_image_duration" json:"min_image_duration"`
	Fill             string  `yaml:"fill" json:"fill"`
}

// ImageDurationValue returns ImageDuration as a time.Duration
func (t TimelineConfig) ImageDurationValue() time.Duration { return util.Seconds(t.ImageDuration) }

// CrossfadeValue returns Crossfade as a time.Duration
func (t TimelineConfig) CrossfadeValue() time.Duration { return util.Seconds(t.Crossfade) }

// Options returns the timeline build options
func (t TimelineConfig) Options() timeline.Options {
	return timeline.Options{MinDuration: util.Seconds(t.MinImageDuration)}
}

type FFmpegConfig struct {
	BinaryPath  string `yaml:"binary_path" json:"binary_path"`
	FFprobePath string `yaml:"ffprobe_path" json:"ffprobe_path"`
	Threads     int    `yaml:"threads" json:"threads"`
}

// ExecutorOptions converts the config for ffmpeg.New
func (f FFmpegConfig) ExecutorOptions() ffmpeg.Options {
	return ffmpeg.Options{
		FFmpegPath:  f.BinaryPath,
		FFprobePath: f.FFprobePath,
		Threads:     f.Threads,
	}
}

// Load reads configuration from file or returns defaults. A ".env" file in
// the working directory is loaded into the environment first; variables
// already set win.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadFile reads configuration like Load but without environment overrides,
// for editing and saving back
func LoadFile(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, env bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err != nil && !explicit && os.IsNotExist(err):
			path = ""
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
		default:
			if err := decode(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrConfigLoad, path, err)
			}
		}
	}
	cfg.Path = path

	if env {
		if err := cfg.applyEnv(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	return cfg, nil
}

// decode reads YAML or JSON; JSON is a subset of YAML so one decoder serves
// both and keeps preset order
func decode(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

// Save writes configuration to file, as YAML for .yaml/.yml paths and as
// indented JSON otherwise
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Presets: presets.Default(),
		TitleStyle: TitleStyleConfig{
			FontSize:    70,
			Color:       "white",
			StrokeColor: "black",
			StrokeWidth: 3,
			TopOffset:   title.DefaultTopOffset,
			Opacity:     1,
			Source:      TitleFromFilename,
		},
		VideoSettings: ffmpeg.DefaultSettings(),
		Timeline: TimelineConfig{
			ImageDuration:    0,
			Crossfade:        0.5,
			MinImageDuration: timeline.DefaultMinDuration.Seconds(),
			Fill:             string(timeline.FillHold),
		},
		OutputDir: "output",
		TempDir:   "",
		Workers:   1,
		FFmpeg: FFmpegConfig{
			BinaryPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			Threads:     4,
		},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvFFmpeg); v != "" {
		c.FFmpeg.BinaryPath = v
	}
	if v := os.Getenv(EnvFFprobe); v != "" {
		c.FFmpeg.FFprobePath = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a render
func (c *Config) Validate() error {
	var errs []error

	if c.Presets == nil || c.Presets.Len() == 0 {
		errs = append(errs, errors.New("presets: at least one preset is required"))
	}
	if _, err := title.ParseStyle(c.TitleStyle.Spec()); err != nil {
		errs = append(errs, fmt.Errorf("title_style: %w", err))
	}
	switch c.TitleStyle.Source {
	case "", TitleFromFilename, TitleFromTags:
	default:
		errs = append(errs, fmt.Errorf("title_style.source: must be %q or %q, got %q", TitleFromFilename, TitleFromTags, c.TitleStyle.Source))
	}

	t := c.Timeline
	if t.ImageDuration < 0 || t.Crossfade < 0 || t.MinImageDuration < 0 {
		errs = append(errs, errors.New("timeline: durations must not be negative"))
	}
	if t.ImageDuration > 0 && t.Crossfade >= t.ImageDuration {
		errs = append(errs, fmt.Errorf("timeline: crossfade %gs must be shorter than image_duration %gs", t.Crossfade, t.ImageDuration))
	}
	if _, err := timeline.ParseFillPolicy(t.Fill); err != nil {
		errs = append(errs, fmt.Errorf("timeline.fill: %w", err))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.FFmpeg.Threads < 0 {
		errs = append(errs, fmt.Errorf("ffmpeg.threads must not be negative, got %d", c.FFmpeg.Threads))
	}

	return errors.Join(errs...)
}

func findConfigFile() string {
	candidates := []string{
		filepath.Join(".", "config", "presets.json"),
		"./presets.json",
		"./config.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".videogen", "presets.json"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
