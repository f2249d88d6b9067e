package title

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
)

// SystemFonts lists bold sans-serif fonts commonly installed on Windows,
// Linux and macOS, most preferred first
var SystemFonts = []string{
	"C:/Windows/Fonts/arialbd.ttf",
	"C:/Windows/Fonts/Arial.ttf",
	"C:/Windows/Fonts/calibrib.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	"/Library/Fonts/Arial Bold.ttf",
}

// FontSource produces a face at a given point size or reports why it can't
type FontSource interface {
	Name() string
	Face(size float64) (font.Face, error)
}

// FileFont loads a TrueType font from disk
type FileFont string

func (f FileFont) Name() string { return string(f) }

func (f FileFont) Face(size float64) (font.Face, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, err
	}
	return parseFace(data, size)
}

// EmbeddedFont is a TrueType font compiled into the binary
type EmbeddedFont struct {
	Label string
	Data  []byte
}

func (e EmbeddedFont) Name() string { return e.Label }

func (e EmbeddedFont) Face(size float64) (font.Face, error) {
	return parseFace(e.Data, size)
}

// GoBold is the embedded Go Bold typeface
var GoBold = EmbeddedFont{Label: "embedded:gobold", Data: gobold.TTF}

// BasicFont is the fixed 7x13 bitmap face. It ignores size and never fails.
type BasicFont struct{}

func (BasicFont) Name() string { return "embedded:basic7x13" }

func (BasicFont) Face(float64) (font.Face, error) {
	return basicfont.Face7x13, nil
}

func parseFace(data []byte, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %g", size)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// SystemSources returns the preferred font sources: an explicit font file
// when given, followed by SystemFonts
func SystemSources(explicit string) []FontSource {
	var sources []FontSource
	if explicit != "" {
		sources = append(sources, FileFont(explicit))
	}
	for _, p := range SystemFonts {
		sources = append(sources, FileFont(p))
	}
	return sources
}

// FallbackSources always yield a face
func FallbackSources() []FontSource {
	return []FontSource{GoBold, BasicFont{}}
}
