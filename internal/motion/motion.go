// Package motion advances orbiting and central bodies. Every update is a pure
// function of elapsed time and immutable parameters, so replaying the same
// elapsed times reproduces the same positions.
package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// SpeedConstant is k in speed(r) = k / sqrt(r).
	SpeedConstant = 0.28

	bodyPulseAmp  = 0.08
	bodyPulseFreq = 2.0

	// CentralRotationRate is the central body's self-rotation in rad/s.
	CentralRotationRate = 0.12

	coronaPulseAmp  = 0.06
	coronaPulseFreq = 1.2
)

// Speed returns the angular speed (rad/s) for an orbit of radius r: closer
// orbits are faster, falling off with the square root of the radius.
func Speed(r float64) float64 {
	if r <= 0 {
		return 0
	}
	return SpeedConstant / math.Sqrt(r)
}

// Period returns the seconds needed for one revolution at radius r.
func Period(r float64) float64 {
	s := Speed(r)
	if s == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / s
}

// BodyParams are the immutable inputs for one orbiting body.
type BodyParams struct {
	InitialAngle float64
	Radius       float64
	// Transform is the category's static tilt and stagger, applied around
	// the local orbit frame.
	Transform mgl64.Mat4
}

// BodyState is the per-frame output for one body.
type BodyState struct {
	Angle     float64
	Local     mgl64.Vec3 // Pre-tilt orbit frame
	World     mgl64.Vec3
	GlowScale float64
}

// AdvanceBody evaluates a body at elapsed time t.
func AdvanceBody(p BodyParams, t float64) BodyState {
	angle := p.InitialAngle + t*Speed(p.Radius)
	local := mgl64.Vec3{p.Radius * math.Cos(angle), 0, p.Radius * math.Sin(angle)}
	return BodyState{
		Angle:     angle,
		Local:     local,
		World:     mgl64.TransformCoordinate(local, p.Transform),
		GlowScale: 1 + bodyPulseAmp*math.Sin(bodyPulseFreq*t+p.InitialAngle),
	}
}

// AdvanceBodies fills states (the runtime arena, indexed by body ID) for
// elapsed time t. len(states) must equal len(params).
func AdvanceBodies(params []BodyParams, states []BodyState, t float64) {
	for i := range params {
		states[i] = AdvanceBody(params[i], t)
	}
}

// CentralState is the central body's per-frame output.
type CentralState struct {
	Rotation    float64 // Self-rotation about Y, radians
	ShaderTime  float64
	CoronaScale float64
}

// AdvanceCentral evaluates the central body at elapsed time t.
func AdvanceCentral(t float64) CentralState {
	return CentralState{
		Rotation:    t * CentralRotationRate,
		ShaderTime:  t,
		CoronaScale: 1 + coronaPulseAmp*math.Sin(coronaPulseFreq*t),
	}
}

// NormalizeAngle wraps a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
