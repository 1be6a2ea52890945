// Package orbit holds the static orbit configuration: categories, their rings,
// and the bodies that travel on them.
package orbit

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrConfigurationInvalid is wrapped by every validation failure.
var ErrConfigurationInvalid = errors.New("configuration invalid")

// ConfigError describes a single validation failure.
type ConfigError struct {
	Category string
	Body     string
	Reason   string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Body != "":
		return fmt.Sprintf("category %q body %q: %s", e.Category, e.Body, e.Reason)
	case e.Category != "":
		return fmt.Sprintf("category %q: %s", e.Category, e.Reason)
	default:
		return e.Reason
	}
}

// Unwrap lets callers match with errors.Is(err, ErrConfigurationInvalid)
// and reach the cause with errors.As.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfigurationInvalid}
	}
	return []error{ErrConfigurationInvalid, e.Err}
}

// Body is a single orbiting item.
type Body struct {
	Name         string
	IconRef      string  // URI: glyph:, file:, data: or a bare path
	InitialAngle float64 // Radians in [0, 2π)
	Size         float64 // Sphere radius in world units
}

// Category groups bodies sharing a ring.
type Category struct {
	Name       string
	Color      colorful.Color
	RingRadius float64
	OrbitTilt  float64 // Radians, applied around X before the azimuthal stagger
	Bodies     []Body
}

// Config is the immutable orbit table. Build one with New, DefaultConfig,
// Load or Parse; all of them validate before returning.
type Config struct {
	categories []Category
}

// CategorySpec is the raw input for a category before derived fields
// (initial angles, sizes) are filled in.
type CategorySpec struct {
	Name       string
	Color      string // Hex, e.g. "#2dd4bf"
	RingRadius float64
	OrbitTilt  float64
	Items      []ItemSpec
}

// ItemSpec is the raw input for a body.
type ItemSpec struct {
	Name    string
	IconRef string
}

// New derives body angles and sizes from specs and validates the result.
func New(specs []CategorySpec) (*Config, error) {
	cats := make([]Category, 0, len(specs))
	for ci, spec := range specs {
		color, err := colorful.Hex(spec.Color)
		if err != nil {
			return nil, &ConfigError{Category: spec.Name, Reason: fmt.Sprintf("bad color %q: %v", spec.Color, err), Err: err}
		}

		cat := Category{
			Name:       spec.Name,
			Color:      color,
			RingRadius: spec.RingRadius,
			OrbitTilt:  spec.OrbitTilt,
			Bodies:     make([]Body, len(spec.Items)),
		}
		for i, item := range spec.Items {
			iconRef := item.IconRef
			if iconRef == "" {
				iconRef = GlyphRef(item.Name)
			}
			cat.Bodies[i] = Body{
				Name:         item.Name,
				IconRef:      iconRef,
				InitialAngle: InitialAngle(i, len(spec.Items)),
				Size:         BodySize(i, ci),
			}
		}
		cats = append(cats, cat)
	}

	cfg := &Config{categories: cats}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitialAngle spreads n bodies evenly around their ring.
func InitialAngle(index, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(index) / float64(count) * 2 * math.Pi
}

// BodySize is a fixed function of body and category index so that repeated
// runs look identical.
func BodySize(bodyIndex, categoryIndex int) float64 {
	step := (bodyIndex*7 + categoryIndex*3 + 3) % 10
	return 0.32 + float64(step)/10*0.16
}

// GlyphRef builds the default icon reference for a body name.
func GlyphRef(name string) string {
	return "glyph:" + name
}

// Validate checks the table invariants.
func (c *Config) Validate() error {
	if len(c.categories) == 0 {
		return &ConfigError{Reason: "no categories"}
	}

	names := make(map[string]bool, len(c.categories))
	radii := make(map[float64]string, len(c.categories))
	for _, cat := range c.categories {
		if cat.Name == "" {
			return &ConfigError{Reason: "category with empty name"}
		}
		if names[cat.Name] {
			return &ConfigError{Category: cat.Name, Reason: "duplicate category name"}
		}
		names[cat.Name] = true

		if cat.RingRadius <= 0 || math.IsNaN(cat.RingRadius) || math.IsInf(cat.RingRadius, 0) {
			return &ConfigError{Category: cat.Name, Reason: fmt.Sprintf("ring radius must be positive, got %v", cat.RingRadius)}
		}
		if other, dup := radii[cat.RingRadius]; dup {
			return &ConfigError{Category: cat.Name, Reason: fmt.Sprintf("ring radius %v already used by %q", cat.RingRadius, other)}
		}
		radii[cat.RingRadius] = cat.Name

		if len(cat.Bodies) == 0 {
			return &ConfigError{Category: cat.Name, Reason: "empty body list"}
		}
		bodies := make(map[string]bool, len(cat.Bodies))
		for _, b := range cat.Bodies {
			if b.Name == "" {
				return &ConfigError{Category: cat.Name, Reason: "body with empty name"}
			}
			if bodies[b.Name] {
				return &ConfigError{Category: cat.Name, Body: b.Name, Reason: "duplicate body name"}
			}
			bodies[b.Name] = true
			if b.Size <= 0 {
				return &ConfigError{Category: cat.Name, Body: b.Name, Reason: "size must be positive"}
			}
		}
	}
	return nil
}

// Categories returns a copy of the categories in display order.
func (c *Config) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i := range c.categories {
		out[i] = c.Category(i)
	}
	return out
}

// Category returns a copy of the category at index i.
func (c *Config) Category(i int) Category {
	cat := c.categories[i]
	cat.Bodies = slices.Clone(cat.Bodies)
	return cat
}

// Len returns the number of categories.
func (c *Config) Len() int {
	return len(c.categories)
}

// BodyCount returns the total number of bodies across all categories.
func (c *Config) BodyCount() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Bodies)
	}
	return n
}

// MaxRadius returns the outermost ring radius.
func (c *Config) MaxRadius() float64 {
	var r float64
	for _, cat := range c.categories {
		r = math.Max(r, cat.RingRadius)
	}
	return r
}
