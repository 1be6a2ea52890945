// Package camera implements an orbit camera around the scene origin:
// drag to rotate, wheel to zoom, no panning, idle auto-rotation.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-orrery/internal/motion"
)

// Bounds constrain the spherical camera state.
type Bounds struct {
	MinDistance float64
	MaxDistance float64
	MinPolar    float64
	MaxPolar    float64
}

// Config holds the initial camera state and its limits.
type Config struct {
	Bounds

	Distance float64
	Polar    float64
	Azimuth  float64

	AutoRotate bool
	// AutoRotateSpeed is in orbit-control units: 1.0 is one revolution per
	// minute.
	AutoRotateSpeed float64

	// FOV is the vertical field of view in degrees.
	FOV  float64
	Near float64
	Far  float64

	// WheelStep is the zoom factor applied per wheel notch.
	WheelStep float64
}

// DefaultConfig places the camera at (0, 12, 18) looking at the origin.
func DefaultConfig() Config {
	eye := mgl64.Vec3{0, 12, 18}
	return Config{
		Bounds: Bounds{
			MinDistance: 6,
			MaxDistance: 28,
			MinPolar:    math.Pi / 8,
			MaxPolar:    math.Pi / 1.7,
		},
		Distance:        eye.Len(),
		Polar:           math.Acos(eye.Y() / eye.Len()),
		Azimuth:         0,
		AutoRotate:      true,
		AutoRotateSpeed: 0.3,
		FOV:             50,
		Near:            0.1,
		Far:             200,
		WheelStep:       0.95,
	}
}

// State is a snapshot of the camera.
type State struct {
	Distance   float64
	Polar      float64
	Azimuth    float64
	AutoRotate bool
}

// View is the camera transform for one frame.
type View struct {
	Eye        mgl64.Vec3
	View       mgl64.Mat4
	Projection mgl64.Mat4
	// ViewProjection is Projection × View.
	ViewProjection mgl64.Mat4
}

// Controller owns the camera state. It is not safe for concurrent use; the
// frame loop and input handling run on the same goroutine.
type Controller struct {
	cfg   Config
	state State

	interacting bool
	// inputThisFrame suspends auto-rotation for the next Tick.
	inputThisFrame bool
}

// New creates a controller from cfg, clamping the initial state.
func New(cfg Config) *Controller {
	if cfg.MinDistance > cfg.MaxDistance {
		cfg.MinDistance, cfg.MaxDistance = cfg.MaxDistance, cfg.MinDistance
	}
	if cfg.MinPolar > cfg.MaxPolar {
		cfg.MinPolar, cfg.MaxPolar = cfg.MaxPolar, cfg.MinPolar
	}
	if cfg.WheelStep <= 0 || cfg.WheelStep >= 1 {
		cfg.WheelStep = 0.95
	}
	if cfg.FOV <= 0 {
		cfg.FOV = 50
	}
	if cfg.Near <= 0 {
		cfg.Near = 0.1
	}
	if cfg.Far <= cfg.Near {
		cfg.Far = cfg.Near * 2000
	}
	c := &Controller{cfg: cfg}
	c.reset()
	return c
}

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// State returns the current camera state.
func (c *Controller) State() State { return c.state }

// Reset restores the configured initial state. It counts as input for the
// current frame.
func (c *Controller) Reset() {
	c.reset()
	c.inputThisFrame = true
}

func (c *Controller) reset() {
	c.state = State{
		Distance:   c.clampDistance(c.cfg.Distance),
		Polar:      c.clampPolar(c.cfg.Polar),
		Azimuth:    motion.NormalizeAngle(c.cfg.Azimuth),
		AutoRotate: c.cfg.AutoRotate,
	}
	c.interacting = false
}

// SetAutoRotate enables or disables idle rotation.
func (c *Controller) SetAutoRotate(on bool) { c.state.AutoRotate = on }

// ToggleAutoRotate flips idle rotation and returns the new setting.
func (c *Controller) ToggleAutoRotate() bool {
	c.state.AutoRotate = !c.state.AutoRotate
	return c.state.AutoRotate
}

// Rotate changes azimuth and polar angle by the given radians.
func (c *Controller) Rotate(dAzimuth, dPolar float64) {
	c.state.Azimuth = motion.NormalizeAngle(c.state.Azimuth + dAzimuth)
	c.state.Polar = c.clampPolar(c.state.Polar + dPolar)
	c.inputThisFrame = true
}

// Drag rotates by a pointer movement of (dx, dy) pixels in a viewport of
// the given height. A full-height drag turns the camera by one revolution.
func (c *Controller) Drag(dx, dy, viewportHeight float64) {
	if viewportHeight <= 0 {
		return
	}
	c.Rotate(-2*math.Pi*dx/viewportHeight, -2*math.Pi*dy/viewportHeight)
}

// Zoom multiplies the distance by scale. Scale below 1 moves closer.
func (c *Controller) Zoom(scale float64) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	c.SetDistance(c.state.Distance * scale)
}

// SetDistance requests an absolute distance; the result is clamped.
func (c *Controller) SetDistance(d float64) {
	if math.IsNaN(d) {
		return
	}
	c.state.Distance = c.clampDistance(d)
	c.inputThisFrame = true
}

// Wheel zooms by delta notches. Positive delta zooms out.
func (c *Controller) Wheel(delta float64) {
	if delta == 0 {
		return
	}
	c.Zoom(math.Pow(c.cfg.WheelStep, -delta))
}

// BeginInteraction marks the start of a drag; auto-rotation is suspended
// until EndInteraction.
func (c *Controller) BeginInteraction() {
	c.interacting = true
	c.inputThisFrame = true
}

// EndInteraction resumes auto-rotation from the current azimuth.
func (c *Controller) EndInteraction() {
	c.interacting = false
}

// Interacting reports whether a drag is in progress.
func (c *Controller) Interacting() bool { return c.interacting }

// Tick applies idle auto-rotation for a frame of dt seconds. A frame that
// saw input does not rotate.
func (c *Controller) Tick(dt float64) {
	input := c.inputThisFrame
	c.inputThisFrame = false
	if input || c.interacting || !c.state.AutoRotate || dt <= 0 {
		return
	}
	c.state.Azimuth = motion.NormalizeAngle(c.state.Azimuth + c.AngularSpeed()*dt)
}

// AngularSpeed is the auto-rotation rate in radians per second.
func (c *Controller) AngularSpeed() float64 {
	return c.cfg.AutoRotateSpeed * 2 * math.Pi / 60
}

// Eye returns the camera position in world space.
func (c *Controller) Eye() mgl64.Vec3 {
	s := c.state
	sp, cp := math.Sincos(s.Polar)
	sa, ca := math.Sincos(s.Azimuth)
	return mgl64.Vec3{
		s.Distance * sp * sa,
		s.Distance * cp,
		s.Distance * sp * ca,
	}
}

// View builds the view and projection matrices for the given aspect ratio.
func (c *Controller) View(aspect float64) View {
	if aspect <= 0 || math.IsNaN(aspect) {
		aspect = 1
	}
	eye := c.Eye()
	view := mgl64.LookAtV(eye, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(c.cfg.FOV), aspect, c.cfg.Near, c.cfg.Far)
	return View{
		Eye:            eye,
		View:           view,
		Projection:     proj,
		ViewProjection: proj.Mul4(view),
	}
}

func (c *Controller) clampDistance(d float64) float64 {
	return mgl64.Clamp(d, c.cfg.MinDistance, c.cfg.MaxDistance)
}

func (c *Controller) clampPolar(p float64) float64 {
	return mgl64.Clamp(p, c.cfg.MinPolar, c.cfg.MaxPolar)
}
