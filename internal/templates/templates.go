// Package templates loads title and sticker template packs and builds
// timeline clips from them.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/heimdex/clipforge/internal/timeline"
)

//go:embed packs/*.yaml
var bundled embed.FS

const DefaultDuration = 3.0

var (
	ErrNotFound     = errors.New("template not found")
	ErrNotPlaceable = errors.New("template cannot be placed on the timeline")
)

// Template is one entry of a pack. Kind is free-form so packs can carry
// kinds the timeline has no track for yet, such as transitions.
type Template struct {
	ID          string            `yaml:"id" json:"id"`
	Kind        string            `yaml:"kind" json:"kind"`
	DisplayName string            `yaml:"displayName" json:"displayName"`
	Payload     map[string]string `yaml:"payload" json:"payload,omitempty"`
}

type Pack struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Templates []Template `yaml:"templates" json:"templates"`
}

// Catalog indexes the templates of every loaded pack by id.
type Catalog struct {
	packs []Pack
	byID  map[string]Template
}

// LoadBundled loads the packs compiled into the binary.
func LoadBundled() (*Catalog, error) {
	return Load(bundled, "packs/*.yaml")
}

// Load reads every pack matching pattern in fsys, in name order. Template
// ids must be unique across packs.
func Load(fsys fs.FS, pattern string) (*Catalog, error) {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	slices.Sort(files)

	c := &Catalog{byID: make(map[string]Template)}
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", file, err)
		}
		var p Pack
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse pack %s: %w", file, err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("pack %s: missing id", file)
		}
		for _, t := range p.Templates {
			if t.ID == "" || t.Kind == "" {
				return nil, fmt.Errorf("pack %s: template needs id and kind", p.ID)
			}
			if _, dup := c.byID[t.ID]; dup {
				return nil, fmt.Errorf("pack %s: duplicate template id %q", p.ID, t.ID)
			}
			c.byID[t.ID] = t
		}
		c.packs = append(c.packs, p)
	}
	return c, nil
}

func (c *Catalog) Packs() []Pack {
	if c == nil {
		return nil
	}
	return c.packs
}

func (c *Catalog) Find(id string) (Template, error) {
	if c != nil {
		if t, ok := c.byID[id]; ok {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// TimelineKind is the clip kind the template produces. Only titles and
// stickers can be placed.
func (t Template) TimelineKind() (timeline.Kind, error) {
	switch k := timeline.Kind(t.Kind); k {
	case timeline.KindTitle, timeline.KindSticker:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %s is a %s", ErrNotPlaceable, t.ID, t.Kind)
	}
}

// Duration reads the "duration" payload entry, falling back to
// DefaultDuration when it is missing or not positive.
func (t Template) Duration() float64 {
	return t.positive("duration", DefaultDuration)
}

func (t Template) positive(key string, def float64) float64 {
	v, err := strconv.ParseFloat(t.Payload[key], 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Clip builds a generated clip for the template on track at start.
func (t Template) Clip(track timeline.Track, start float64) (timeline.Clip, error) {
	kind, err := t.TimelineKind()
	if err != nil {
		return timeline.Clip{}, err
	}
	if !kind.CompatibleWith(track.Kind) {
		return timeline.Clip{}, fmt.Errorf("%w: %s template on %s track", ErrNotPlaceable, kind, track.Kind)
	}

	name := t.Payload["text"]
	if name == "" {
		name = t.DisplayName
	}
	d := t.Duration()
	return timeline.Clip{
		ID:             uuid.New(),
		Kind:           kind,
		TrackID:        track.ID,
		Name:           name,
		StartTime:      start,
		Duration:       d,
		SourceDuration: d,
		Opacity:        min(t.positive("opacity", 1), 1),
		Transform:      timeline.Identity(),
		LayerHint:      track.Index,
	}, nil
}
