package motion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSpeed_InverseSqrt(t *testing.T) {
	if got, want := Speed(4), 0.14; math.Abs(got-want) > 1e-12 {
		t.Errorf("Speed(4) = %v, want %v", got, want)
	}
	if Speed(0) != 0 || Speed(-1) != 0 {
		t.Error("non-positive radius should not move")
	}
}

func TestSpeed_Ordering(t *testing.T) {
	radii := []float64{1, 2, 4, 7, 10, 13, 20}
	for i := 1; i < len(radii); i++ {
		if Speed(radii[i-1]) <= Speed(radii[i]) {
			t.Errorf("Speed(%v) = %v should exceed Speed(%v) = %v",
				radii[i-1], Speed(radii[i-1]), radii[i], Speed(radii[i]))
		}
	}
}

func TestSpeed_LanguagesVsPlatforms(t *testing.T) {
	ratio := Speed(4) / Speed(13)
	if math.Abs(ratio-math.Sqrt(13.0/4.0)) > 1e-12 {
		t.Errorf("ratio = %v, want sqrt(13/4)", ratio)
	}
	if math.Abs(ratio-1.80) > 0.01 {
		t.Errorf("ratio = %v, want ≈1.80", ratio)
	}
	if Period(4) >= Period(13) {
		t.Errorf("inner ring period %v should be shorter than outer %v", Period(4), Period(13))
	}
}

func TestAdvanceBody_AngleIncreasesAtFixedRate(t *testing.T) {
	p := BodyParams{InitialAngle: 0.5, Radius: 7, Transform: mgl64.Ident4()}
	rate := Speed(7)

	times := []float64{0, 0.1, 1, 2.5, 10, 100}
	prev := AdvanceBody(p, times[0])
	for _, tm := range times[1:] {
		s := AdvanceBody(p, tm)
		if s.Angle <= prev.Angle {
			t.Errorf("angle did not increase from %v to %v", prev.Angle, s.Angle)
		}
		want := p.InitialAngle + tm*rate
		if math.Abs(s.Angle-want) > 1e-12 {
			t.Errorf("angle at %v = %v, want %v", tm, s.Angle, want)
		}
		prev = s
	}
}

func TestAdvanceBody_Deterministic(t *testing.T) {
	p := BodyParams{
		InitialAngle: 1.1,
		Radius:       10,
		Transform:    mgl64.HomogRotate3DY(0.7).Mul4(mgl64.HomogRotate3DX(0.12)),
	}
	for _, tm := range []float64{0, 0.016, 33.3, 1234.5} {
		a := AdvanceBody(p, tm)
		b := AdvanceBody(p, tm)
		if a != b {
			t.Errorf("AdvanceBody not bit-identical at t=%v: %v vs %v", tm, a, b)
		}
	}

	// Replaying a sequence reproduces the same states.
	seq := []float64{0.5, 1.0, 1.5, 2.0}
	first := make([]BodyState, len(seq))
	for i, tm := range seq {
		first[i] = AdvanceBody(p, tm)
	}
	for i, tm := range seq {
		if AdvanceBody(p, tm) != first[i] {
			t.Errorf("replay diverged at t=%v", tm)
		}
	}
}

func TestAdvanceBody_LocalOnRing(t *testing.T) {
	p := BodyParams{InitialAngle: 0, Radius: 4, Transform: mgl64.Ident4()}
	s := AdvanceBody(p, 0)
	if !s.Local.ApproxEqual(mgl64.Vec3{4, 0, 0}) {
		t.Errorf("local at t=0 = %v, want (4,0,0)", s.Local)
	}

	for _, tm := range []float64{1, 7, 30} {
		s := AdvanceBody(p, tm)
		if math.Abs(s.Local.Len()-4) > 1e-9 {
			t.Errorf("local radius %v, want 4", s.Local.Len())
		}
		if s.Local[1] != 0 {
			t.Errorf("local y = %v, want 0", s.Local[1])
		}
	}
}

func TestAdvanceBody_TransformApplied(t *testing.T) {
	tilt := mgl64.HomogRotate3DX(math.Pi / 2)
	p := BodyParams{InitialAngle: math.Pi / 2, Radius: 5, Transform: tilt}
	s := AdvanceBody(p, 0)

	// Local (0,0,5) rotated 90° about X lands on the Y axis.
	if math.Abs(math.Abs(s.World[1])-5) > 1e-9 {
		t.Errorf("world = %v, want |y| = 5", s.World)
	}
	if math.Abs(s.World.Len()-5) > 1e-9 {
		t.Errorf("transform should preserve radius, got %v", s.World.Len())
	}
}

func TestAdvanceBody_GlowPulse(t *testing.T) {
	a := BodyParams{InitialAngle: 0, Radius: 4, Transform: mgl64.Ident4()}
	b := BodyParams{InitialAngle: math.Pi / 2, Radius: 4, Transform: mgl64.Ident4()}

	for _, tm := range []float64{0, 0.3, 1, 2, 5} {
		sa := AdvanceBody(a, tm)
		want := 1 + 0.08*math.Sin(2*tm)
		if math.Abs(sa.GlowScale-want) > 1e-12 {
			t.Errorf("glow at %v = %v, want %v", tm, sa.GlowScale, want)
		}
		if sa.GlowScale < 0.92 || sa.GlowScale > 1.08 {
			t.Errorf("glow %v outside [0.92, 1.08]", sa.GlowScale)
		}
	}

	// Phase shift keeps ring-mates out of lockstep.
	if AdvanceBody(a, 0).GlowScale == AdvanceBody(b, 0).GlowScale {
		t.Error("bodies with different initial angles should pulse out of phase")
	}
}

func TestAdvanceBodies_Arena(t *testing.T) {
	params := []BodyParams{
		{InitialAngle: 0, Radius: 4, Transform: mgl64.Ident4()},
		{InitialAngle: 1, Radius: 7, Transform: mgl64.Ident4()},
	}
	states := make([]BodyState, len(params))
	AdvanceBodies(params, states, 3)

	for i := range params {
		if states[i] != AdvanceBody(params[i], 3) {
			t.Errorf("arena slot %d does not match AdvanceBody", i)
		}
	}
}

func TestAdvanceCentral(t *testing.T) {
	for _, tm := range []float64{0, 1, 10, 100} {
		s := AdvanceCentral(tm)
		if math.Abs(s.Rotation-0.12*tm) > 1e-12 {
			t.Errorf("rotation at %v = %v", tm, s.Rotation)
		}
		if s.ShaderTime != tm {
			t.Errorf("shader time = %v, want %v", s.ShaderTime, tm)
		}
		want := 1 + 0.06*math.Sin(1.2*tm)
		if math.Abs(s.CoronaScale-want) > 1e-12 {
			t.Errorf("corona at %v = %v, want %v", tm, s.CoronaScale, want)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 1.5 * math.Pi},
		{5 * math.Pi, math.Pi},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
