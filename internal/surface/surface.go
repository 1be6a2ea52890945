// Package surface provides the RGBA framebuffer that every frame is
// rasterized into.
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// ErrResourceUnavailable means a render surface could not be created or has
// been released. It is fatal to mounting.
var ErrResourceUnavailable = errors.New("render surface unavailable")

// MaxPixels caps the framebuffer allocation (a 4K frame at 1.5x fits).
const MaxPixels = 6144 * 3456

// Region is a display area in logical (CSS-like) pixels.
type Region struct {
	Width  int
	Height int
}

// PixelRatioRange bounds the device pixel ratio used for the framebuffer.
type PixelRatioRange struct {
	Min float64
	Max float64
}

// DefaultPixelRatioRange matches the reference [1, 1.5] band.
var DefaultPixelRatioRange = PixelRatioRange{Min: 1, Max: 1.5}

// Clamp restricts ratio to the range. A non-positive ratio maps to Min.
func (r PixelRatioRange) Clamp(ratio float64) float64 {
	if ratio <= 0 || math.IsNaN(ratio) {
		return r.Min
	}
	if ratio < r.Min {
		return r.Min
	}
	if ratio > r.Max {
		return r.Max
	}
	return ratio
}

// Surface is a framebuffer plus the region it was sized for.
type Surface struct {
	img      *image.RGBA
	region   Region
	ratio    float64
	released bool
}

// New allocates a surface of region × clamped ratio physical pixels.
func New(region Region, ratio float64, bounds PixelRatioRange) (*Surface, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("region %dx%d: %w", region.Width, region.Height, ErrResourceUnavailable)
	}
	ratio = bounds.Clamp(ratio)
	w := int(math.Round(float64(region.Width) * ratio))
	h := int(math.Round(float64(region.Height) * ratio))
	if w*h > MaxPixels || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("framebuffer %dx%d: %w", w, h, ErrResourceUnavailable)
	}
	return &Surface{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		region: region,
		ratio:  ratio,
	}, nil
}

// Available reports whether the surface can still be drawn to.
func (s *Surface) Available() bool {
	return s != nil && !s.released && s.img != nil
}

// Release drops the framebuffer. Further use reports unavailable.
func (s *Surface) Release() {
	s.released = true
	s.img = nil
}

// Image returns the framebuffer.
func (s *Surface) Image() *image.RGBA { return s.img }

// Width returns the framebuffer width in physical pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the framebuffer height in physical pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Region returns the logical region.
func (s *Surface) Region() Region { return s.region }

// PixelRatio returns the clamped ratio in use.
func (s *Surface) PixelRatio() float64 { return s.ratio }

// Clear fills the framebuffer with c.
func (s *Surface) Clear(c color.RGBA) {
	pix := s.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

// Downsample scales the framebuffer to w×h with bilinear filtering. Terminal
// hosts use it to fold a high-ratio frame down to cell resolution.
func (s *Surface) Downsample(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == s.Width() && h == s.Height() {
		copy(dst.Pix, s.img.Pix)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), s.img, s.img.Bounds(), draw.Src, nil)
	return dst
}
