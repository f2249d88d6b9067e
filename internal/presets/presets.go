package presets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// CustomName is the reserved preset name for caller-supplied dimensions
const CustomName = "custom"

// DefaultFPS is used when a preset or custom request leaves fps unset
const DefaultFPS = 30

var (
	ErrUnknownPreset     = errors.New("unknown preset")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrPresetExists      = errors.New("preset already exists")
)

// Preset is a named canvas size and frame rate for one target platform
type Preset struct {
	Name        string `yaml:"-" json:"-"`
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
	FPS         int    `yaml:"fps" json:"fps"`
	AspectRatio string `yaml:"aspect_ratio" json:"aspect_ratio"`
	Description string `yaml:"description" json:"description"`
}

// Size returns the canvas dimensions as a string like 1920x1080
func (p Preset) Size() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

func (p Preset) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %s must have positive width and height, got %s", ErrInvalidDimensions, p.Name, p.Size())
	}
	return nil
}

// Table holds presets in declaration order. A Table is never modified in
// place; With and Without return new tables.
type Table struct {
	items []Preset
}

// NewTable builds a table from presets, rejecting duplicates and bad sizes
func NewTable(items ...Preset) (*Table, error) {
	t := &Table{}
	for _, p := range items {
		next, err := t.With(p, false)
		if err != nil {
			return nil, err
		}
		t = next
	}
	return t, nil
}

// Default returns the built-in social media presets
func Default() *Table {
	return &Table{items: []Preset{
		{Name: "youtube", Width: 1920, Height: 1080, FPS: 30, AspectRatio: "16:9", Description: "YouTube HD (16:9)"},
		{Name: "youtube_short", Width: 1080, Height: 1920, FPS: 30, AspectRatio: "9:16", Description: "YouTube Shorts (9:16)"},
		{Name: "tiktok", Width: 1080, Height: 1920, FPS: 30, AspectRatio: "9:16", Description: "TikTok (9:16)"},
		{Name: "instagram_post", Width: 1080, Height: 1080, FPS: 30, AspectRatio: "1:1", Description: "Instagram Post (1:1)"},
		{Name: "instagram_story", Width: 1080, Height: 1920, FPS: 30, AspectRatio: "9:16", Description: "Instagram Story (9:16)"},
		{Name: "facebook", Width: 1280, Height: 720, FPS: 30, AspectRatio: "16:9", Description: "Facebook (16:9)"},
	}}
}

// Len returns the number of presets
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// List returns presets in declaration order
func (t *Table) List() []Preset {
	if t == nil {
		return nil
	}
	out := make([]Preset, len(t.items))
	copy(out, t.items)
	return out
}

// Names returns preset names in declaration order
func (t *Table) Names() []string {
	names := make([]string, 0, t.Len())
	for _, p := range t.List() {
		names = append(names, p.Name)
	}
	return names
}

// Lookup finds a preset by name, ignoring case
func (t *Table) Lookup(name string) (Preset, error) {
	key := normalize(name)
	if key == CustomName {
		return Preset{}, fmt.Errorf("%w: preset %q requires explicit width and height", ErrInvalidDimensions, CustomName)
	}
	if i := t.index(key); i >= 0 {
		return t.items[i], nil
	}
	return Preset{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPreset, name, strings.Join(t.Names(), ", "))
}

// Resolve returns a custom preset for "custom" and a table entry otherwise
func (t *Table) Resolve(name string, width, height int) (Preset, error) {
	if normalize(name) == CustomName {
		return Custom(width, height, 0)
	}
	return t.Lookup(name)
}

// Custom builds an ad-hoc preset from caller dimensions
func Custom(width, height, fps int) (Preset, error) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	p := Preset{
		Name:        CustomName,
		Width:       width,
		Height:      height,
		FPS:         fps,
		AspectRatio: fmt.Sprintf("%d:%d", width, height),
		Description: fmt.Sprintf("Custom (%dx%d)", width, height),
	}
	if err := p.validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// With returns a copy of the table containing p. An existing preset with
// the same name is replaced in place only when overwrite is set.
func (t *Table) With(p Preset, overwrite bool) (*Table, error) {
	p.Name = normalize(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("preset name is required")
	}
	if p.Name == CustomName {
		return nil, fmt.Errorf("preset name %q is reserved", CustomName)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.FPS <= 0 {
		p.FPS = DefaultFPS
	}
	if p.AspectRatio == "" {
		p.AspectRatio = fmt.Sprintf("%d:%d", p.Width, p.Height)
	}

	items := t.List()
	if i := t.index(p.Name); i >= 0 {
		if !overwrite {
			return nil, fmt.Errorf("%w: %q", ErrPresetExists, p.Name)
		}
		items[i] = p
	} else {
		items = append(items, p)
	}
	return &Table{items: items}, nil
}

// Without returns a copy of the table with the named preset removed
func (t *Table) Without(name string) (*Table, error) {
	i := t.index(normalize(name))
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	items := t.List()
	items = append(items[:i], items[i+1:]...)
	return &Table{items: items}, nil
}

func (t *Table) index(key string) int {
	if t == nil {
		return -1
	}
	for i, p := range t.items {
		if p.Name == key {
			return i
		}
	}
	return -1
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnmarshalYAML decodes a mapping of name -> preset keeping key order.
// The yaml decoder also reads JSON documents.
func (t *Table) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("presets: expected a mapping, got %s", nodeKind(value))
	}

	next := &Table{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var p Preset
		if err := value.Content[i+1].Decode(&p); err != nil {
			return fmt.Errorf("presets: %s: %w", value.Content[i].Value, err)
		}
		p.Name = value.Content[i].Value

		var err error
		next, err = next.With(p, false)
		if err != nil {
			return fmt.Errorf("presets: %w", err)
		}
	}

	*t = *next
	return nil
}

// MarshalYAML encodes the table as an ordered mapping
func (t Table) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range t.items {
		var val yaml.Node
		if err := val.Encode(p); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name},
			&val,
		)
	}
	return node, nil
}

// MarshalJSON encodes the table as an object with keys in table order
func (t Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range t.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
