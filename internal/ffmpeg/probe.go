package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/Sengkue/video-generator/pkg/util"
)

// ErrNoAudioStream is returned when a probed file carries no audio
var ErrNoAudioStream = errors.New("no audio stream")

// ProbeAudio extracts metadata from an audio file
func (e *Executor) ProbeAudio(ctx context.Context, filePath string) (*AudioInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	e.logger.Debug().Str("cmd", "ffprobe").Str("file", filePath).Msg("probing audio")

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseAudioProbe(output)
	if err != nil {
		return nil, err
	}
	info.FilePath = filePath
	return info, nil
}

func parseAudioProbe(data []byte) (*AudioInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &AudioInfo{Title: probe.Format.Tags.Title}
	found := false

	for _, stream := range probe.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		found = true
		info.Codec = stream.CodecName
		info.Channels = stream.Channels
		info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
		if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
			info.Bitrate = br
		}
		if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
			info.Duration = util.Seconds(dur)
		}
		break
	}
	if !found {
		return nil, ErrNoAudioStream
	}

	// container duration is more reliable for VBR mp3
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && dur > 0 {
		info.Duration = util.Seconds(dur)
	}
	if info.Bitrate == 0 {
		if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
			info.Bitrate = br
		}
	}

	if info.Duration <= 0 {
		return nil, fmt.Errorf("audio has no duration")
	}
	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
		Tags     struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		BitRate    string `json:"bit_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}
