// Package shader implements the central body's animated surface as a pure
// function of surface position and elapsed time.
package shader

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// Octaves of value noise summed by FBM.
	Octaves = 4

	// DefaultNoiseScale scales the unit surface position before sampling.
	DefaultNoiseScale = 1.6

	// DriftRate offsets the sample point along Y per second of elapsed time.
	DriftRate = 0.12

	thresholdLow  = 0.18
	thresholdHigh = 0.70
	falloffPower  = 1.8
	falloffFloor  = 0.5
	grainGain     = 0.12
)

// Fragment is one shaded point on the sphere.
type Fragment struct {
	// Position is the object-space unit surface position (the normal).
	Position mgl64.Vec3
	// Radial is the projected distance from the disc centre, 0 at the centre
	// and 1 on the limb.
	Radial float64
}

// Program holds the shader constants.
type Program struct {
	Base       colorful.Color
	Highlight  colorful.Color
	NoiseScale float64
}

// Default is the warm surface used for the central body.
var Default = Program{
	Base:       colorful.Color{R: 0.95, G: 0.42, B: 0.12},
	Highlight:  colorful.Color{R: 1.0, G: 0.9, B: 0.55},
	NoiseScale: DefaultNoiseScale,
}

// Shade evaluates the default program.
func Shade(f Fragment, t float64) colorful.Color {
	return Default.Shade(f, t)
}

// Shade returns the surface colour for f at elapsed time t. The result
// depends only on its arguments and the program constants.
func (p Program) Shade(f Fragment, t float64) colorful.Color {
	sample := f.Position.Mul(p.NoiseScale).Add(mgl64.Vec3{0, DriftRate * t, 0})
	n := FBM(sample)

	c := p.Base.BlendRgb(p.Highlight, Smoothstep(thresholdLow, thresholdHigh, n))

	radial := clamp01(f.Radial)
	falloff := falloffFloor + (1-falloffFloor)*(1-math.Pow(radial, falloffPower))

	grain := grainGain * n
	return colorful.Color{
		R: c.R*falloff + grain,
		G: c.G*falloff + grain,
		B: c.B*falloff + grain,
	}.Clamped()
}

// FBM sums Octaves layers of value noise, halving amplitude and doubling
// frequency each layer. The result lies in [0, 1).
func FBM(p mgl64.Vec3) float64 {
	var sum float64
	amp := 0.5
	for i := 0; i < Octaves; i++ {
		sum += amp * ValueNoise(p)
		p = p.Mul(2)
		amp *= 0.5
	}
	return sum
}

// ValueNoise interpolates hashed lattice values with a smooth cubic, giving
// a continuous field in [0, 1].
func ValueNoise(p mgl64.Vec3) float64 {
	ix, iy, iz := math.Floor(p[0]), math.Floor(p[1]), math.Floor(p[2])
	fx, fy, fz := p[0]-ix, p[1]-iy, p[2]-iz

	ux := fx * fx * (3 - 2*fx)
	uy := fy * fy * (3 - 2*fy)
	uz := fz * fz * (3 - 2*fz)

	x, y, z := int64(ix), int64(iy), int64(iz)

	c000 := lattice(x, y, z)
	c100 := lattice(x+1, y, z)
	c010 := lattice(x, y+1, z)
	c110 := lattice(x+1, y+1, z)
	c001 := lattice(x, y, z+1)
	c101 := lattice(x+1, y, z+1)
	c011 := lattice(x, y+1, z+1)
	c111 := lattice(x+1, y+1, z+1)

	x00 := lerp(c000, c100, ux)
	x10 := lerp(c010, c110, ux)
	x01 := lerp(c001, c101, ux)
	x11 := lerp(c011, c111, ux)

	y0 := lerp(x00, x10, uy)
	y1 := lerp(x01, x11, uy)

	return lerp(y0, y1, uz)
}

// lattice hashes integer coordinates to [0, 1].
func lattice(x, y, z int64) float64 {
	h := uint64(x)*0x9E3779B97F4A7C15 ^ uint64(y)*0xC2B2AE3D27D4EB4F ^ uint64(z)*0x165667B19E3779F9
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}

// Smoothstep is the GLSL smoothstep.
func Smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
