package title

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// DefaultTopOffset is the distance in pixels from the canvas top to the
// top edge of the title text
const DefaultTopOffset = 50

// Style controls how a title is drawn
type Style struct {
	FontSize    float64
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth int
	TopOffset   int
	Opacity     float64
}

// StyleSpec is the textual form of a Style as it appears in configuration
type StyleSpec struct {
	FontSize    int
	Color       string
	StrokeColor string
	StrokeWidth int
	TopOffset   int
	Opacity     float64
}

// DefaultStyle returns white text with a 3px black outline
func DefaultStyle() Style {
	return Style{
		FontSize:    70,
		Fill:        color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Stroke:      color.NRGBA{A: 255},
		StrokeWidth: 3,
		TopOffset:   DefaultTopOffset,
		Opacity:     1,
	}
}

// ParseStyle converts a StyleSpec, filling unset fields from DefaultStyle
func ParseStyle(spec StyleSpec) (Style, error) {
	style := DefaultStyle()

	if spec.FontSize < 0 {
		return Style{}, fmt.Errorf("font size must not be negative, got %d", spec.FontSize)
	}
	if spec.FontSize > 0 {
		style.FontSize = float64(spec.FontSize)
	}

	if spec.Color != "" {
		c, err := ParseColor(spec.Color)
		if err != nil {
			return Style{}, fmt.Errorf("color: %w", err)
		}
		style.Fill = c
	}
	if spec.StrokeColor != "" {
		c, err := ParseColor(spec.StrokeColor)
		if err != nil {
			return Style{}, fmt.Errorf("stroke_color: %w", err)
		}
		style.Stroke = c
	}

	if spec.StrokeWidth < 0 {
		return Style{}, fmt.Errorf("stroke width must not be negative, got %d", spec.StrokeWidth)
	}
	style.StrokeWidth = spec.StrokeWidth

	if spec.TopOffset > 0 {
		style.TopOffset = spec.TopOffset
	}

	switch {
	case spec.Opacity < 0 || spec.Opacity > 1:
		return Style{}, fmt.Errorf("opacity must be between 0 and 1, got %g", spec.Opacity)
	case spec.Opacity > 0:
		style.Opacity = spec.Opacity
	}

	return style, nil
}

// ParseColor accepts CSS color names ("white", "gold") and hex values
// ("#ffcc00", "#fc0", "ffcc00")
func ParseColor(s string) (color.NRGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.NRGBA{}, fmt.Errorf("empty color")
	}

	if c, ok := colornames.Map[name]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}, nil
	}

	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	c, err := colorful.Hex(name)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("unrecognized color %q", s)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
