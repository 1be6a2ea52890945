// Package scene composes the static orrery graph from an orbit
// configuration: rings, bodies, the central body, lights and the starfield.
// Per-frame state lives outside the scene, in an arena indexed by BodyID.
package scene

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-orrery/internal/motion"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/starfield"
)

const (
	// RingSegments is the number of segments per orbit ring; each ring has
	// RingSegments+1 points so the polyline closes.
	RingSegments = 128
	RingOpacity  = 0.15

	CentralRadius = 1.5
	// CentralLabelHeight is the label anchor above the central body.
	CentralLabelHeight = 2.3
	// LabelOffset is the gap between a body's top and its label.
	LabelOffset = 0.4

	AmbientIntensity    = 0.15
	PointLightIntensity = 3.0
	PointLightDistance  = 30.0

	// BodyEmissive is the share of a body's own colour it emits unlit.
	BodyEmissive = 0.5

	categoryStagger = 0.35
	starShellMargin = 4.0
)

// BodyID indexes bodies in a scene and in the runtime arena.
type BodyID int

// Ring is an orbit path in world space.
type Ring struct {
	Category  int
	Radius    float64
	Color     colorful.Color
	Opacity   float64
	Points    []mgl64.Vec3
	// Transform is the category group transform (see GroupTransform).
	Transform mgl64.Mat4
}

// Body is a static scene node. Only its icon changes after Compose, and
// only through SetIcon.
type Body struct {
	ID       BodyID
	Category int
	Name     string
	IconRef  string
	Size     float64
	Color    colorful.Color
	Params   motion.BodyParams

	icon atomic.Pointer[image.RGBA]
}

// Icon returns the loaded icon, or nil while loading or after a failure.
func (b *Body) Icon() *image.RGBA { return b.icon.Load() }

// SetIcon attaches a loaded icon. Safe to call from loader goroutines.
func (b *Body) SetIcon(img *image.RGBA) { b.icon.Store(img) }

// Central is the luminous body at the origin.
type Central struct {
	Radius float64
	Label  string
	Color  colorful.Color
}

// PointLight is an omnidirectional light with linear falloff to zero at
// Distance.
type PointLight struct {
	Position  mgl64.Vec3
	Color     colorful.Color
	Intensity float64
	Distance  float64
}

// Attenuation returns the light's intensity factor at distance d.
func (l PointLight) Attenuation(d float64) float64 {
	if l.Distance <= 0 {
		return l.Intensity
	}
	if d >= l.Distance {
		return 0
	}
	f := 1 - d/l.Distance
	return l.Intensity * f * f
}

// Lights is the scene lighting.
type Lights struct {
	Ambient float64
	Point   PointLight
}

// Options tune composition.
type Options struct {
	Stars   starfield.Config
	NoStars bool
	// CentralLabel is drawn above the central body.
	CentralLabel string
}

// DefaultOptions returns the reference composition.
func DefaultOptions() Options {
	return Options{Stars: starfield.DefaultConfig(), CentralLabel: "Tech Stack"}
}

// Scene is the composed graph. It is immutable apart from body icons.
type Scene struct {
	Config  *orbit.Config
	Rings   []Ring
	Bodies  []*Body
	Central Central
	Lights  Lights
	Stars   []starfield.Star
}

// Compose builds the scene graph for cfg. The configuration is validated
// again so hand-built configs cannot produce a broken scene.
func Compose(cfg *orbit.Config, opts Options) (*Scene, error) {
	if cfg == nil {
		return nil, fmt.Errorf("compose scene: %w", &orbit.ConfigError{Reason: "no configuration"})
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("compose scene: %w", err)
	}

	accent, _ := colorful.Hex("#2dd4bf")
	s := &Scene{
		Config: cfg,
		Bodies: make([]*Body, 0, cfg.BodyCount()),
		Central: Central{
			Radius: CentralRadius,
			Label:  opts.CentralLabel,
			Color:  accent,
		},
		Lights: Lights{
			Ambient: AmbientIntensity,
			Point: PointLight{
				Color:     accent,
				Intensity: PointLightIntensity,
				Distance:  PointLightDistance,
			},
		},
	}

	for ci, cat := range cfg.Categories() {
		xf := GroupTransform(ci, cat.OrbitTilt)
		s.Rings = append(s.Rings, Ring{
			Category:  ci,
			Radius:    cat.RingRadius,
			Color:     cat.Color,
			Opacity:   RingOpacity,
			Points:    RingPoints(cat.RingRadius, xf),
			Transform: xf,
		})
		for _, b := range cat.Bodies {
			s.Bodies = append(s.Bodies, &Body{
				ID:       BodyID(len(s.Bodies)),
				Category: ci,
				Name:     b.Name,
				IconRef:  b.IconRef,
				Size:     b.Size,
				Color:    cat.Color,
				Params: motion.BodyParams{
					InitialAngle: b.InitialAngle,
					Radius:       cat.RingRadius,
					Transform:    xf,
				},
			})
		}
	}

	if !opts.NoStars {
		stars := opts.Stars
		// Keep the shell well outside the outermost ring.
		if shell := s.Extent() * starShellMargin; stars.Radius < shell {
			stars.Radius = shell
		}
		s.Stars = starfield.Generate(stars)
	}
	return s, nil
}

// GroupTransform is the static transform of category c: a stagger about Y
// followed by the category tilt about X.
func GroupTransform(c int, tilt float64) mgl64.Mat4 {
	return mgl64.HomogRotate3DY(float64(c) * categoryStagger).Mul4(mgl64.HomogRotate3DX(tilt))
}

// RingPoints returns RingSegments+1 points of a circle of radius r in the
// XZ plane, transformed by xf. The last point equals the first.
func RingPoints(r float64, xf mgl64.Mat4) []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, RingSegments+1)
	for i := range pts {
		a := float64(i) / RingSegments * 2 * math.Pi
		if i == RingSegments {
			a = 0
		}
		pts[i] = mgl64.TransformCoordinate(mgl64.Vec3{r * math.Cos(a), 0, r * math.Sin(a)}, xf)
	}
	return pts
}

// Len returns the number of bodies.
func (s *Scene) Len() int { return len(s.Bodies) }

// Body returns the body with the given id.
func (s *Scene) Body(id BodyID) (*Body, error) {
	if id < 0 || int(id) >= len(s.Bodies) {
		return nil, fmt.Errorf("body %d: %w", id, ErrUnknownBody)
	}
	return s.Bodies[id], nil
}

// ErrUnknownBody is returned for out-of-range body IDs.
var ErrUnknownBody = errors.New("unknown body")

// Params returns the motion parameters of every body, indexed by BodyID.
func (s *Scene) Params() []motion.BodyParams {
	out := make([]motion.BodyParams, len(s.Bodies))
	for i, b := range s.Bodies {
		out[i] = b.Params
	}
	return out
}

// NewArena allocates runtime state for every body.
func (s *Scene) NewArena() []motion.BodyState {
	return make([]motion.BodyState, len(s.Bodies))
}

// Extent returns the world-space radius that contains every ring.
func (s *Scene) Extent() float64 {
	return s.Config.MaxRadius()
}
