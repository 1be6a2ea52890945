// Package render rasterizes a composed scene into a surface: starfield,
// orbit rings, lit spheres, the shaded central body, additive glow sprites
// and icon billboards. It also reports where labels belong on screen.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/glow"
	"github.com/litescript/ls-orrery/internal/icon"
	"github.com/litescript/ls-orrery/internal/motion"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/shader"
	"github.com/litescript/ls-orrery/internal/surface"
)

// ErrResourceUnavailable is returned when the surface cannot be drawn to.
var ErrResourceUnavailable = surface.ErrResourceUnavailable

// CentralID labels the central body in label placements.
const CentralID scene.BodyID = -1

const (
	centralGlowScale = 4.0 // Sprite half-size in body radii
	bodyGlowScale    = 3.0
	glowGain         = 0.55
	diffuseGain      = 0.6
	iconHeight       = 0.5 // World units
	minIconPixels    = 6
	maxIconCache     = 256
)

// Background is the default clear colour.
var Background = color.RGBA{R: 5, G: 7, B: 13, A: 255}

// NewSurface allocates a framebuffer for region at the clamped pixel ratio.
func NewSurface(region surface.Region, ratio float64, bounds surface.PixelRatioRange) (*surface.Surface, error) {
	return surface.New(region, ratio, bounds)
}

// Frame is the per-frame state to draw.
type Frame struct {
	Time    float64
	Bodies  []motion.BodyState // Indexed by scene.BodyID
	Central motion.CentralState
}

// Options toggle layers.
type Options struct {
	Background color.RGBA
	Stars      bool
	Rings      bool
	Glow       bool
	Icons      bool
	Program    shader.Program
}

// DefaultOptions draws every layer.
func DefaultOptions() Options {
	return Options{
		Background: Background,
		Stars:      true,
		Rings:      true,
		Glow:       true,
		Icons:      true,
		Program:    shader.Default,
	}
}

// Label is a screen-space label anchor in surface pixels.
type Label struct {
	Body    scene.BodyID
	Text    string
	X, Y    float64
	Depth   float64
	Color   colorful.Color
	Visible bool
}

// Renderer draws frames. It caches scaled icons and is not safe for
// concurrent use.
type Renderer struct {
	Options Options

	glow  *glow.Texture
	icons map[iconKey]*image.RGBA
}

type iconKey struct {
	src    *image.RGBA
	height int
}

// New creates a renderer. tex may be nil, which disables glow sprites.
func New(opts Options, tex *glow.Texture) *Renderer {
	return &Renderer{
		Options: opts,
		glow:    tex,
		icons:   make(map[iconKey]*image.RGBA),
	}
}

// projector maps world points to surface pixels.
type projector struct {
	vp       mgl64.Mat4
	view     mgl64.Mat4
	w, h     float64
	focal    float64 // Pixels per world unit at unit view depth
	nearClip float64
}

func newProjector(v camera.View, w, h int) projector {
	return projector{
		vp:       v.ViewProjection,
		view:     v.View,
		w:        float64(w),
		h:        float64(h),
		focal:    v.Projection.At(1, 1) * float64(h) / 2,
		nearClip: 1e-3,
	}
}

// project returns screen coordinates and view depth. ok is false for points
// behind the camera.
func (p projector) project(pt mgl64.Vec3) (x, y, depth float64, ok bool) {
	clip := p.vp.Mul4x1(pt.Vec4(1))
	if clip.W() <= p.nearClip {
		return 0, 0, 0, false
	}
	nx := clip.X() / clip.W()
	ny := clip.Y() / clip.W()
	return (nx + 1) / 2 * p.w, (1 - ny) / 2 * p.h, clip.W(), true
}

// toView rotates a world direction into view space.
func (p projector) toView(d mgl64.Vec3) mgl64.Vec3 {
	return p.view.Mul4x1(d.Vec4(0)).Vec3()
}

// toWorld rotates a view direction back into world space.
func (p projector) toWorld(d mgl64.Vec3) mgl64.Vec3 {
	return p.view.Transpose().Mul4x1(d.Vec4(0)).Vec3()
}

// Draw renders f into s and returns label placements for the central body
// and every orbiting body.
func (r *Renderer) Draw(s *surface.Surface, sc *scene.Scene, f Frame, v camera.View) ([]Label, error) {
	if !s.Available() {
		return nil, fmt.Errorf("draw: %w", ErrResourceUnavailable)
	}
	if len(f.Bodies) != sc.Len() {
		return nil, fmt.Errorf("draw: frame has %d bodies, scene has %d", len(f.Bodies), sc.Len())
	}

	img := s.Image()
	s.Clear(r.Options.Background)
	p := newProjector(v, s.Width(), s.Height())

	if r.Options.Stars {
		r.drawStars(img, p, sc)
	}
	if r.Options.Rings {
		r.drawRings(img, p, sc)
	}
	r.drawSpheres(img, p, sc, f)
	if r.Options.Glow && r.glow != nil {
		r.drawGlows(img, p, sc, f)
	}
	if r.Options.Icons {
		r.drawIcons(img, p, sc, f)
	}
	return r.labels(p, sc, f), nil
}

func (r *Renderer) drawStars(img *image.RGBA, p projector, sc *scene.Scene) {
	for _, st := range sc.Stars {
		x, y, _, ok := p.project(st.Pos)
		if !ok {
			continue
		}
		add(img, int(x), int(y), colorful.Color{R: 0.85, G: 0.9, B: 1}, st.Brightness*0.8)
	}
}

func (r *Renderer) drawRings(img *image.RGBA, p projector, sc *scene.Scene) {
	for _, ring := range sc.Rings {
		var px, py float64
		prev := false
		for _, pt := range ring.Points {
			x, y, _, ok := p.project(pt)
			if ok && prev {
				line(img, px, py, x, y, ring.Color, ring.Opacity)
			}
			px, py, prev = x, y, ok
		}
	}
}

// sphere is one depth-sorted draw item.
type sphere struct {
	id     scene.BodyID
	world  mgl64.Vec3
	radius float64
	depth  float64
}

func (r *Renderer) drawSpheres(img *image.RGBA, p projector, sc *scene.Scene, f Frame) {
	items := make([]sphere, 0, sc.Len()+1)
	if _, _, d, ok := p.project(mgl64.Vec3{}); ok {
		items = append(items, sphere{id: CentralID, radius: sc.Central.Radius, depth: d})
	}
	for i, b := range sc.Bodies {
		if _, _, d, ok := p.project(f.Bodies[i].World); ok {
			items = append(items, sphere{id: b.ID, world: f.Bodies[i].World, radius: b.Size, depth: d})
		}
	}
	// Painter's order: far to near.
	sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })

	for _, it := range items {
		if it.id == CentralID {
			r.drawCentral(img, p, sc, f.Central)
			continue
		}
		r.drawBody(img, p, sc, sc.Bodies[it.id], it.world)
	}
}

// rasterSphere calls fn for each covered pixel with the view-space normal,
// the radial distance from the projected centre and edge coverage.
func rasterSphere(img *image.RGBA, p projector, centre mgl64.Vec3, radius float64, fn func(x, y int, n mgl64.Vec3, radial, cover float64)) {
	cx, cy, depth, ok := p.project(centre)
	if !ok {
		return
	}
	pr := radius * p.focal / depth
	if pr < 0.5 {
		if !(image.Point{int(cx), int(cy)}.In(img.Rect)) {
			return
		}
		fn(int(cx), int(cy), mgl64.Vec3{0, 0, 1}, 0, math.Max(pr*2, 0.25))
		return
	}
	b := img.Rect
	x0, x1 := max(b.Min.X, int(cx-pr)-1), min(b.Max.X-1, int(cx+pr)+1)
	y0, y1 := max(b.Min.Y, int(cy-pr)-1), min(b.Max.Y-1, int(cy+pr)+1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := (float64(x) + 0.5 - cx) / pr
			dy := (float64(y) + 0.5 - cy) / pr
			r2 := dx*dx + dy*dy
			if r2 > 1 {
				continue
			}
			radial := math.Sqrt(r2)
			cover := math.Min(1, (1-radial)*pr+0.5)
			fn(x, y, mgl64.Vec3{dx, -dy, math.Sqrt(1 - r2)}, radial, cover)
		}
	}
}

func (r *Renderer) drawCentral(img *image.RGBA, p projector, sc *scene.Scene, cs motion.CentralState) {
	// Object space is world space undone by the self-rotation about Y.
	unspin := mgl64.Rotate3DY(-cs.Rotation)
	rasterSphere(img, p, mgl64.Vec3{}, sc.Central.Radius, func(x, y int, n mgl64.Vec3, radial, cover float64) {
		obj := unspin.Mul3x1(p.toWorld(n))
		c := r.Options.Program.Shade(shader.Fragment{Position: obj, Radial: radial}, cs.ShaderTime)
		blend(img, x, y, c, cover)
	})
}

func (r *Renderer) drawBody(img *image.RGBA, p projector, sc *scene.Scene, b *scene.Body, world mgl64.Vec3) {
	light := sc.Lights.Point
	toLight := light.Position.Sub(world)
	dist := toLight.Len()
	lv := p.toView(toLight.Normalize())
	atten := light.Attenuation(dist)
	if light.Intensity > 0 {
		atten /= light.Intensity
	}

	base := b.Color
	rasterSphere(img, p, world, b.Size, func(x, y int, n mgl64.Vec3, _ float64, cover float64) {
		lambert := math.Max(0, n.Dot(lv))
		k := sc.Lights.Ambient + scene.BodyEmissive + diffuseGain*atten*lambert
		c := colorful.Color{R: base.R * k, G: base.G * k, B: base.B * k}
		blend(img, x, y, c, cover)
	})
}

func (r *Renderer) drawGlows(img *image.RGBA, p projector, sc *scene.Scene, f Frame) {
	r.sprite(img, p, mgl64.Vec3{}, sc.Central.Radius*centralGlowScale*f.Central.CoronaScale, sc.Lights.Point.Color)
	for i, b := range sc.Bodies {
		r.sprite(img, p, f.Bodies[i].World, b.Size*bodyGlowScale*f.Bodies[i].GlowScale, b.Color)
	}
}

// sprite additively draws the shared glow texture as a camera-facing square
// of the given world half-size.
func (r *Renderer) sprite(img *image.RGBA, p projector, centre mgl64.Vec3, half float64, tint colorful.Color) {
	cx, cy, depth, ok := p.project(centre)
	if !ok {
		return
	}
	hs := half * p.focal / depth
	if hs < 1 {
		return
	}
	b := img.Rect
	x0, x1 := max(b.Min.X, int(cx-hs)), min(b.Max.X-1, int(cx+hs))
	y0, y1 := max(b.Min.Y, int(cy-hs)), min(b.Max.Y-1, int(cy+hs))
	for y := y0; y <= y1; y++ {
		v := (float64(y) + 0.5 - (cy - hs)) / (2 * hs)
		for x := x0; x <= x1; x++ {
			u := (float64(x) + 0.5 - (cx - hs)) / (2 * hs)
			if a := r.glow.Sample(u, v); a > 0 {
				add(img, x, y, tint, a*glowGain)
			}
		}
	}
}

func (r *Renderer) drawIcons(img *image.RGBA, p projector, sc *scene.Scene, f Frame) {
	for i, b := range sc.Bodies {
		src := b.Icon()
		if src == nil {
			continue
		}
		anchor := f.Bodies[i].World.Add(mgl64.Vec3{0, b.Size + scene.LabelOffset, 0})
		x, y, depth, ok := p.project(anchor)
		if !ok {
			continue
		}
		h := int(iconHeight * p.focal / depth)
		if h < minIconPixels {
			continue
		}
		scaled := r.scaledIcon(src, h)
		overlay(img, scaled, int(x), int(y)-scaled.Bounds().Dy()/2)
	}
}

// Release drops the scaled-icon cache and the glow texture reference.
// Later draws skip glow sprites.
func (r *Renderer) Release() {
	clear(r.icons)
	r.glow = nil
}

// CachedIcons reports the number of scaled icons held.
func (r *Renderer) CachedIcons() int { return len(r.icons) }

func (r *Renderer) scaledIcon(src *image.RGBA, h int) *image.RGBA {
	key := iconKey{src: src, height: h}
	if img, ok := r.icons[key]; ok {
		return img
	}
	if len(r.icons) >= maxIconCache {
		clear(r.icons)
	}
	b := src.Bounds()
	w := max(1, b.Dx()*h/max(1, b.Dy()))
	img := icon.Fit(src, w, h)
	r.icons[key] = img
	return img
}

func (r *Renderer) labels(p projector, sc *scene.Scene, f Frame) []Label {
	out := make([]Label, 0, sc.Len()+1)
	if sc.Central.Label != "" {
		out = append(out, r.label(p, CentralID, sc.Central.Label, mgl64.Vec3{0, scene.CentralLabelHeight, 0}, sc.Lights.Point.Color))
	}
	for i, b := range sc.Bodies {
		anchor := f.Bodies[i].World.Add(mgl64.Vec3{0, b.Size + scene.LabelOffset, 0})
		out = append(out, r.label(p, b.ID, b.Name, anchor, b.Color))
	}
	return out
}

func (r *Renderer) label(p projector, id scene.BodyID, text string, anchor mgl64.Vec3, c colorful.Color) Label {
	x, y, depth, ok := p.project(anchor)
	return Label{
		Body:    id,
		Text:    text,
		X:       x,
		Y:       y,
		Depth:   depth,
		Color:   c,
		Visible: ok && x >= 0 && y >= 0 && x < p.w && y < p.h,
	}
}
