// Package glow builds the radial halo sprite shared by every body and the
// central body's corona.
package glow

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"

	"github.com/litescript/ls-orrery/internal/surface"
)

// DefaultSize is the reference sprite side length in pixels.
const DefaultSize = 128

// stop is one point of the alpha gradient.
type stop struct {
	at    float64 // Fraction of the radius
	alpha float64
}

// Opaque centre, 35% at 30% radius, transparent edge.
var gradient = []stop{
	{0, 1},
	{0.3, 0.35},
	{1, 0},
}

// Availability is satisfied by the render surface.
type Availability interface {
	Available() bool
}

// Texture is an immutable square sprite: white with a radial alpha ramp.
type Texture struct {
	img  *image.NRGBA
	size int
}

// Image returns the backing image. Callers must not modify it.
func (t *Texture) Image() *image.NRGBA { return t.img }

// Size returns the side length in pixels.
func (t *Texture) Size() int { return t.size }

// Sample returns the alpha (0..1) at normalized coordinates u, v in [0, 1].
// Coordinates outside the square are transparent.
func (t *Texture) Sample(u, v float64) float64 {
	if u < 0 || v < 0 || u >= 1 || v >= 1 {
		return 0
	}
	x := int(u * float64(t.size))
	y := int(v * float64(t.size))
	return float64(t.img.Pix[y*t.img.Stride+x*4+3]) / 255
}

// Cache builds the texture on first use and hands out the same instance
// until Release.
type Cache struct {
	size    int
	surface Availability

	once   sync.Once
	mu     sync.RWMutex
	tex    *Texture
	err    error
	builds atomic.Int32
}

// NewCache prepares a lazily built texture of the given size.
func NewCache(size int, s Availability) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{size: size, surface: s}
}

// Texture returns the shared sprite, building it exactly once. It fails with
// surface.ErrResourceUnavailable when there is no surface to draw with.
func (c *Cache) Texture() (*Texture, error) {
	c.once.Do(func() {
		if c.surface == nil || !c.surface.Available() {
			c.mu.Lock()
			c.err = fmt.Errorf("glow texture: %w", surface.ErrResourceUnavailable)
			c.mu.Unlock()
			return
		}
		tex := Build(c.size)
		c.builds.Add(1)
		c.mu.Lock()
		c.tex = tex
		c.mu.Unlock()
	})

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.tex == nil {
		return nil, fmt.Errorf("glow texture released: %w", surface.ErrResourceUnavailable)
	}
	return c.tex, nil
}

// Builds reports how many times the gradient was computed.
func (c *Cache) Builds() int {
	return int(c.builds.Load())
}

// Release drops the texture. The cache does not rebuild afterwards.
func (c *Cache) Release() {
	c.once.Do(func() {})
	c.mu.Lock()
	c.tex = nil
	c.mu.Unlock()
}

// Build computes the gradient sprite. Prefer Cache.Texture; Build is exposed
// for tools that need a standalone copy.
func Build(size int) *Texture {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float64(x) + 0.5 - half) / half
			dy := (float64(y) + 0.5 - half) / half
			a := Alpha(math.Hypot(dx, dy))
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(a * 255))})
		}
	}
	return &Texture{img: img, size: size}
}

// Alpha evaluates the gradient at distance d from the centre, where 1 is the
// edge.
func Alpha(d float64) float64 {
	if d <= 0 {
		return gradient[0].alpha
	}
	for i := 1; i < len(gradient); i++ {
		if d <= gradient[i].at {
			prev := gradient[i-1]
			next := gradient[i]
			f := (d - prev.at) / (next.at - prev.at)
			return prev.alpha + (next.alpha-prev.alpha)*f
		}
	}
	return 0
}
