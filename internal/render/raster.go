package render

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// blend composites c over the pixel at (x, y) with coverage a.
func blend(img *image.RGBA, x, y int, c colorful.Color, a float64) {
	if a <= 0 || !(image.Point{x, y}.In(img.Rect)) {
		return
	}
	if a > 1 {
		a = 1
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	r, g, b := c.Clamped().RGB255()
	p[0] = mix8(p[0], r, a)
	p[1] = mix8(p[1], g, a)
	p[2] = mix8(p[2], b, a)
	p[3] = 255
}

// add brightens the pixel at (x, y) by c scaled by a, saturating.
func add(img *image.RGBA, x, y int, c colorful.Color, a float64) {
	if a <= 0 || !(image.Point{x, y}.In(img.Rect)) {
		return
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	p[0] = add8(p[0], c.R*a)
	p[1] = add8(p[1], c.G*a)
	p[2] = add8(p[2], c.B*a)
	p[3] = 255
}

func mix8(dst, src uint8, a float64) uint8 {
	return uint8(math.Round(float64(dst)*(1-a) + float64(src)*a))
}

func add8(dst uint8, v float64) uint8 {
	s := float64(dst) + v*255
	if s >= 255 {
		return 255
	}
	if s <= 0 {
		return dst
	}
	return uint8(s)
}

// line draws an alpha-blended line with a DDA walk.
func line(img *image.RGBA, x0, y0, x1, y1 float64, c colorful.Color, a float64) {
	dx, dy := x1-x0, y1-y0
	steps := math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps < 1 {
		blend(img, int(x0), int(y0), c, a)
		return
	}
	// Segments this long only come from points grazing the near plane.
	if steps > 8192 {
		return
	}
	sx, sy := dx/steps, dy/steps
	x, y := x0, y0
	for i := 0; i <= int(steps); i++ {
		blend(img, int(math.Floor(x)), int(math.Floor(y)), c, a)
		x += sx
		y += sy
	}
}

// overlay draws src centred on (cx, cy) with src-over compositing.
func overlay(dst, src *image.RGBA, cx, cy int) {
	b := src.Bounds()
	ox := cx - b.Dx()/2
	oy := cy - b.Dy()/2
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			a := src.Pix[i+3]
			if a == 0 {
				continue
			}
			// Source pixels are premultiplied.
			fa := float64(a) / 255
			c := colorful.Color{
				R: float64(src.Pix[i]) / 255 / fa,
				G: float64(src.Pix[i+1]) / 255 / fa,
				B: float64(src.Pix[i+2]) / 255 / fa,
			}
			blend(dst, ox+x, oy+y, c, fa)
		}
	}
}
