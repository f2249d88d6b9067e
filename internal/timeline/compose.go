package timeline

import (
	"image"
	"time"
)

// FrameAt returns the picture visible at t. Inside a crossfade the incoming
// segment is blended over the outgoing one with linearly rising opacity.
func FrameAt(segs []Segment, t time.Duration) image.Image {
	if len(segs) == 0 {
		return nil
	}
	if t < 0 {
		t = 0
	}

	idx := len(segs) - 1
	for i, s := range segs {
		if t < s.End() {
			idx = i
			break
		}
	}

	// a later segment may already be fading in over this one
	if idx+1 < len(segs) && t >= segs[idx+1].Start {
		idx++
	}

	cur := segs[idx]
	if idx == 0 || cur.CrossfadeIn <= 0 || t >= cur.Start+cur.CrossfadeIn {
		return cur.Frame.Image
	}

	alpha := float64(t-cur.Start) / float64(cur.CrossfadeIn)
	return Blend(segs[idx-1].Frame.Image, cur.Frame.Image, alpha)
}

// Blend mixes two same-sized images: alpha 0 yields from, 1 yields to
func Blend(from, to *image.NRGBA, alpha float64) *image.NRGBA {
	switch {
	case alpha <= 0:
		return from
	case alpha >= 1:
		return to
	}

	out := image.NewNRGBA(to.Bounds())
	n := len(out.Pix)
	if len(from.Pix) < n {
		n = len(from.Pix)
	}
	for i := 0; i < n; i++ {
		a, b := float64(from.Pix[i]), float64(to.Pix[i])
		out.Pix[i] = uint8(a + (b-a)*alpha + 0.5)
	}
	return out
}
