package title

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Overlay is a rendered title on a transparent canvas
type Overlay struct {
	Text   string
	Width  int
	Height int
	Style  Style
	Font   string
	// TextBounds is the area covered by the fill pass, without the stroke
	TextBounds image.Rectangle
	Image      *image.NRGBA
}

// Renderer rasterizes titles. Preferred sources are tried in order; when
// all of them fail the fallbacks are used and a warning is logged.
type Renderer struct {
	logger    zerolog.Logger
	preferred []FontSource
	fallbacks []FontSource
}

// NewRenderer creates a renderer that prefers fontPath (optional) and the
// usual system fonts before falling back to embedded faces
func NewRenderer(logger zerolog.Logger, fontPath string) *Renderer {
	return NewRendererWithSources(logger, SystemSources(fontPath), FallbackSources())
}

// NewRendererWithSources creates a renderer with explicit font sources
func NewRendererWithSources(logger zerolog.Logger, preferred, fallbacks []FontSource) *Renderer {
	if len(fallbacks) == 0 {
		fallbacks = []FontSource{BasicFont{}}
	}
	return &Renderer{
		logger:    logger.With().Str("component", "title").Logger(),
		preferred: preferred,
		fallbacks: fallbacks,
	}
}

// Generate draws text horizontally centered with its top edge at
// style.TopOffset, outlined when style.StrokeWidth > 0
func (r *Renderer) Generate(text string, width, height int, style Style) (*Overlay, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("title canvas must be positive, got %dx%d", width, height)
	}

	face, source := r.resolveFace(style.FontSize)
	defer face.Close()

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{Dst: canvas, Face: face}

	b, _ := d.BoundString(text)
	textW := (b.Max.X - b.Min.X).Ceil()
	textH := (b.Max.Y - b.Min.Y).Ceil()
	x := (width - textW) / 2
	origin := fixed.Point26_6{
		X: fixed.I(x) - b.Min.X,
		Y: fixed.I(style.TopOffset) - b.Min.Y,
	}

	if sw := style.StrokeWidth; sw > 0 {
		d.Src = image.NewUniform(style.Stroke)
		for dy := -sw; dy <= sw; dy++ {
			for dx := -sw; dx <= sw; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				d.Dot = origin.Add(fixed.P(dx, dy))
				d.DrawString(text)
			}
		}
	}

	d.Src = image.NewUniform(style.Fill)
	d.Dot = origin
	d.DrawString(text)

	out := imaging.Clone(canvas)
	if style.Opacity > 0 && style.Opacity < 1 {
		for i := 3; i < len(out.Pix); i += 4 {
			out.Pix[i] = uint8(float64(out.Pix[i])*style.Opacity + 0.5)
		}
	}

	r.logger.Debug().
		Str("text", text).
		Str("font", source).
		Int("text_width", textW).
		Int("text_height", textH).
		Msg("title rendered")

	return &Overlay{
		Text:       text,
		Width:      width,
		Height:     height,
		Style:      style,
		Font:       source,
		TextBounds: image.Rect(x, style.TopOffset, x+textW, style.TopOffset+textH),
		Image:      out,
	}, nil
}

func (r *Renderer) resolveFace(size float64) (font.Face, string) {
	for _, src := range r.preferred {
		face, err := src.Face(size)
		if err == nil {
			return face, src.Name()
		}
		r.logger.Debug().Err(err).Str("font", src.Name()).Msg("font unavailable")
	}

	for _, src := range r.fallbacks {
		face, err := src.Face(size)
		if err != nil {
			r.logger.Debug().Err(err).Str("font", src.Name()).Msg("fallback font unavailable")
			continue
		}
		r.logger.Warn().Str("font", src.Name()).Msg("using default font (custom font not found)")
		return face, src.Name()
	}

	// unreachable with BasicFont in the chain
	r.logger.Warn().Msg("no font source succeeded, using basic bitmap font")
	return BasicFont{}.mustFace(), BasicFont{}.Name()
}

func (BasicFont) mustFace() font.Face {
	face, _ := BasicFont{}.Face(0)
	return face
}
