package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sengkue/video-generator/internal/fit"
)

// DefaultMinDuration is the floor for automatically derived segment lengths
const DefaultMinDuration = 3 * time.Second

var (
	ErrNoFrames          = errors.New("timeline has no frames")
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Segment is one image shown on the visual track
type Segment struct {
	Frame       fit.FittedFrame
	Start       time.Duration
	Length      time.Duration
	CrossfadeIn time.Duration
}

// End returns the time the segment stops being visible
func (s Segment) End() time.Duration {
	return s.Start + s.Length
}

// Options tunes Build
type Options struct {
	// MinDuration bounds automatically derived segment lengths from below.
	// Zero means DefaultMinDuration.
	MinDuration time.Duration
}

func (o Options) minDuration() time.Duration {
	if o.MinDuration <= 0 {
		return DefaultMinDuration
	}
	return o.MinDuration
}

// SegmentDuration resolves a per-frame duration. Zero means auto:
// max(min, target/count).
func SegmentDuration(perFrame, target time.Duration, count int, opts Options) time.Duration {
	if perFrame > 0 {
		return perFrame
	}
	d := opts.minDuration()
	if count > 0 && target > 0 {
		if share := target / time.Duration(count); share > d {
			d = share
		}
	}
	return d
}

// Build lays frames out back to back, overlapping each pair by crossfade,
// and truncates the result at target when target is positive.
func Build(frames []fit.FittedFrame, perFrame, crossfade, target time.Duration, opts Options) ([]Segment, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if perFrame < 0 || crossfade < 0 || target < 0 {
		return nil, fmt.Errorf("%w: durations must not be negative (image %v, crossfade %v, target %v)",
			ErrInvalidDuration, perFrame, crossfade, target)
	}

	perFrame = SegmentDuration(perFrame, target, len(frames), opts)
	if crossfade > 0 && crossfade >= perFrame {
		return nil, fmt.Errorf("%w: crossfade %v must be shorter than image duration %v",
			ErrInvalidTransition, crossfade, perFrame)
	}

	return Truncate(layout(frames, perFrame, crossfade, 0), target), nil
}

func layout(frames []fit.FittedFrame, perFrame, crossfade time.Duration, first int) []Segment {
	segs := make([]Segment, len(frames))
	step := perFrame - crossfade
	for i, f := range frames {
		n := time.Duration(first + i)
		segs[i] = Segment{
			Frame:       f,
			Start:       n * step,
			Length:      perFrame,
			CrossfadeIn: crossfade,
		}
		if first+i == 0 {
			segs[i].CrossfadeIn = 0
		}
	}
	return segs
}

// Truncate cuts the timeline at target. A trailing segment survives only
// if more of it than its fade-in lies before the cut, and the last survivor
// is shortened to end exactly at target. Target <= 0 disables the cut.
func Truncate(segs []Segment, target time.Duration) []Segment {
	if target <= 0 || Total(segs) <= target {
		return segs
	}

	out := append([]Segment(nil), segs...)
	for len(out) > 0 {
		last := &out[len(out)-1]
		remaining := target - last.Start
		if remaining > 0 && remaining > last.CrossfadeIn {
			if last.Length > remaining {
				last.Length = remaining
			}
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

// Total returns the visual track length of segs
func Total(segs []Segment) time.Duration {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].End()
}

// Span returns the untrimmed length of count frames: count*perFrame minus
// one crossfade per join.
func Span(count int, perFrame, crossfade time.Duration) time.Duration {
	if count <= 0 {
		return 0
	}
	return time.Duration(count)*perFrame - time.Duration(count-1)*crossfade
}
