package fit

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned for undecodable or zero-sized sources
var ErrInvalidImage = errors.New("invalid image")

// ImageAsset is a source image on disk
type ImageAsset struct {
	Path   string
	Width  int
	Height int
}

// FittedFrame is a source image letterboxed onto a canvas of exact size
type FittedFrame struct {
	Image  *image.NRGBA
	Source ImageAsset
}

// Fitter scales images into a fixed canvas without cropping
type Fitter struct {
	Background color.Color
	Filter     imaging.ResampleFilter
}

// New returns a fitter with a black background and Lanczos resampling
func New() *Fitter {
	return &Fitter{
		Background: color.Black,
		Filter:     imaging.Lanczos,
	}
}

// Fit scales img uniformly so it fits inside width x height and centers it
// on a background-filled canvas of exactly that size.
func (f *Fitter) Fit(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target canvas %dx%d", ErrInvalidImage, width, height)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}

	src := img.Bounds()
	srcW, srcH := src.Dx(), src.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("%w: source is %dx%d", ErrInvalidImage, srcW, srcH)
	}

	canvas := imaging.New(width, height, f.background())
	if srcW == width && srcH == height {
		return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0), nil
	}

	w, h := ScaledSize(srcW, srcH, width, height)

	var scaled image.Image = img
	if w != srcW || h != srcH {
		scaled = imaging.Resize(img, w, h, f.Filter)
	}

	// transparent source pixels show the background
	offset := image.Pt((width-w)/2, (height-h)/2)
	return imaging.Overlay(canvas, scaled, offset, 1.0), nil
}

// ScaledSize returns the size of a srcW x srcH image scaled by
// min(width/srcW, height/srcH), clamped to [1, target] on each axis.
func ScaledSize(srcW, srcH, width, height int) (int, int) {
	scale := math.Min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	w := clamp(int(math.Round(float64(srcW)*scale)), 1, width)
	h := clamp(int(math.Round(float64(srcH)*scale)), 1, height)
	return w, h
}

// FitFile decodes the image at path and fits it onto the canvas
func (f *Fitter) FitFile(path string, width, height int) (FittedFrame, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return FittedFrame{}, fmt.Errorf("%w: %s: %v", ErrInvalidImage, path, err)
	}

	fitted, err := f.Fit(img, width, height)
	if err != nil {
		return FittedFrame{}, fmt.Errorf("%s: %w", path, err)
	}

	b := img.Bounds()
	return FittedFrame{
		Image: fitted,
		Source: ImageAsset{
			Path:   path,
			Width:  b.Dx(),
			Height: b.Dy(),
		},
	}, nil
}

func (f *Fitter) background() color.Color {
	if f.Background == nil {
		return color.Black
	}
	return f.Background
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
