package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sengkue/video-generator/internal/fit"
)

// FillPolicy decides what happens when the images run out before the audio
type FillPolicy string

const (
	// FillNone leaves the visual track shorter than the audio
	FillNone FillPolicy = "none"
	// FillHold stretches the last image to the end of the audio
	FillHold FillPolicy = "hold"
	// FillLoop repeats the image sequence until the audio ends
	FillLoop FillPolicy = "loop"
)

// ParseFillPolicy maps a config value to a policy; empty means hold
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch p := FillPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return FillHold, nil
	case FillNone, FillHold, FillLoop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown fill policy %q (want none, hold or loop)", s)
	}
}

// Fill extends a timeline built by Build so it covers target. perFrame must
// be the resolved segment length and crossfade the one Build used.
func Fill(segs []Segment, frames []fit.FittedFrame, perFrame, crossfade, target time.Duration, policy FillPolicy) []Segment {
	if target <= 0 || len(segs) == 0 || Total(segs) >= target {
		return segs
	}

	switch policy {
	case FillHold:
		out := append([]Segment(nil), segs...)
		last := &out[len(out)-1]
		last.Length = target - last.Start
		return out

	case FillLoop:
		if len(frames) == 0 || perFrame <= crossfade {
			return segs
		}
		step := perFrame - crossfade
		count := int((target-crossfade)/step) + 1
		if Span(count, perFrame, crossfade) < target {
			count++
		}

		cycled := make([]fit.FittedFrame, count)
		for i := range cycled {
			cycled[i] = frames[i%len(frames)]
		}
		return Truncate(layout(cycled, perFrame, crossfade, 0), target)

	default:
		return segs
	}
}
