package ffmpeg

import "time"

// AudioInfo contains metadata about an audio file
type AudioInfo struct {
	FilePath   string
	Duration   time.Duration
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    int64
	Title      string
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	Time       string
	OutTime    time.Duration
	Speed      string
	Percentage float64
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args []string
	// Duration is the expected output length, used to fill Progress.Percentage
	Duration        time.Duration
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)

// Default encoding settings
const (
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultBitrate      = "5000k"
	DefaultAudioBitrate = "192k"
	DefaultPreset       = "medium"
	DefaultPixFmt       = "yuv420p"
)

// Settings are the encoder parameters for the final mp4
type Settings struct {
	VideoCodec   string `yaml:"codec" json:"codec"`
	AudioCodec   string `yaml:"audio_codec" json:"audio_codec"`
	Bitrate      string `yaml:"bitrate" json:"bitrate"`
	AudioBitrate string `yaml:"audio_bitrate" json:"audio_bitrate"`
	Preset       string `yaml:"preset" json:"preset"`
	PixFmt       string `yaml:"pix_fmt" json:"pix_fmt"`
}

// DefaultSettings returns H.264/AAC settings suitable for social platforms
func DefaultSettings() Settings {
	return Settings{
		VideoCodec:   DefaultVideoCodec,
		AudioCodec:   DefaultAudioCodec,
		Bitrate:      DefaultBitrate,
		AudioBitrate: DefaultAudioBitrate,
		Preset:       DefaultPreset,
		PixFmt:       DefaultPixFmt,
	}
}

// withDefaults fills empty fields from DefaultSettings
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.VideoCodec == "" {
		s.VideoCodec = d.VideoCodec
	}
	if s.AudioCodec == "" {
		s.AudioCodec = d.AudioCodec
	}
	if s.Bitrate == "" {
		s.Bitrate = d.Bitrate
	}
	if s.AudioBitrate == "" {
		s.AudioBitrate = d.AudioBitrate
	}
	if s.Preset == "" {
		s.Preset = d.Preset
	}
	if s.PixFmt == "" {
		s.PixFmt = d.PixFmt
	}
	return s
}
