package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestDefaultConfig(t *testing.T) {
	c := New(DefaultConfig())
	eye := c.Eye()
	want := mgl64.Vec3{0, 12, 18}
	if !eye.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("Eye() = %v, want %v", eye, want)
	}
	if !c.State().AutoRotate {
		t.Error("auto-rotate should default to on")
	}
}

func TestSetDistance_Clamps(t *testing.T) {
	tests := []struct {
		name string
		req  float64
		want float64
	}{
		{"below minimum", 1, 6},
		{"above maximum", 100, 28},
		{"inside", 10, 10},
		{"negative", -5, 6},
		{"infinite", math.Inf(1), 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(DefaultConfig())
			c.SetDistance(tt.req)
			if got := c.State().Distance; got != tt.want {
				t.Errorf("SetDistance(%v) distance = %v, want exactly %v", tt.req, got, tt.want)
			}
		})
	}
}

func TestZoomSequence_StaysInBounds(t *testing.T) {
	c := New(DefaultConfig())
	for i := 0; i < 200; i++ {
		if i%3 == 0 {
			c.Wheel(7)
		} else {
			c.Zoom(0.5)
		}
		d := c.State().Distance
		if d < 6 || d > 28 {
			t.Fatalf("step %d: distance %v outside [6, 28]", i, d)
		}
	}
	c.Wheel(-1000)
	if got := c.State().Distance; got != 6 {
		t.Errorf("distance after huge zoom-in = %v, want 6", got)
	}
}

func TestWheel_Direction(t *testing.T) {
	c := New(DefaultConfig())
	c.SetDistance(15)
	c.Wheel(1)
	if c.State().Distance <= 15 {
		t.Errorf("positive wheel should zoom out, distance = %v", c.State().Distance)
	}
	c.SetDistance(15)
	c.Wheel(-1)
	if c.State().Distance >= 15 {
		t.Errorf("negative wheel should zoom in, distance = %v", c.State().Distance)
	}
}

func TestDrag_PolarBand(t *testing.T) {
	c := New(DefaultConfig())
	minP, maxP := math.Pi/8, math.Pi/1.7

	for i := 0; i < 50; i++ {
		c.Drag(3, 400, 600)
		if p := c.State().Polar; p < minP || p > maxP {
			t.Fatalf("polar %v outside band", p)
		}
	}
	if got := c.State().Polar; got != minP {
		t.Errorf("polar after dragging down = %v, want %v", got, minP)
	}
	for i := 0; i < 50; i++ {
		c.Drag(-3, -400, 600)
	}
	if got := c.State().Polar; got != maxP {
		t.Errorf("polar after dragging up = %v, want %v", got, maxP)
	}
}

func TestDrag_ZeroHeightIgnored(t *testing.T) {
	c := New(DefaultConfig())
	before := c.State()
	c.Drag(100, 100, 0)
	if c.State() != before {
		t.Errorf("Drag with zero height changed state: %+v", c.State())
	}
}

func TestRotate_AzimuthWraps(t *testing.T) {
	c := New(DefaultConfig())
	for _, d := range []float64{-1, -7, 20, -math.Pi} {
		c.Rotate(d, 0)
		if az := c.State().Azimuth; az < 0 || az >= 2*math.Pi {
			t.Fatalf("azimuth %v outside [0, 2π) after Rotate(%v)", az, d)
		}
	}
}

func TestTick_AutoRotate(t *testing.T) {
	c := New(DefaultConfig())
	c.Tick(1)
	want := 0.3 * 2 * math.Pi / 60
	if got := c.State().Azimuth; math.Abs(got-want) > 1e-12 {
		t.Errorf("azimuth after 1s = %v, want %v", got, want)
	}

	c.SetAutoRotate(false)
	before := c.State().Azimuth
	c.Tick(1)
	if c.State().Azimuth != before {
		t.Error("Tick rotated with auto-rotate off")
	}
}

func TestTick_InputSuspendsFrame(t *testing.T) {
	c := New(DefaultConfig())
	c.Rotate(0.5, 0)
	az := c.State().Azimuth

	c.Tick(1.0 / 60)
	if got := c.State().Azimuth; got != az {
		t.Errorf("azimuth changed on an input frame: %v -> %v", az, got)
	}

	// Next idle frame resumes from the user-set azimuth.
	dt := 1.0 / 60
	c.Tick(dt)
	step := c.State().Azimuth - az
	if math.Abs(step-c.AngularSpeed()*dt) > 1e-12 {
		t.Errorf("resume step = %v, want one frame of rotation %v", step, c.AngularSpeed()*dt)
	}
}

func TestInteraction_SuspendsUntilEnd(t *testing.T) {
	c := New(DefaultConfig())
	c.BeginInteraction()
	az := c.State().Azimuth
	for i := 0; i < 10; i++ {
		c.Tick(0.1)
	}
	if c.State().Azimuth != az {
		t.Error("auto-rotation ran during an interaction")
	}
	c.EndInteraction()
	c.Tick(0.1)
	if c.State().Azimuth == az {
		t.Error("auto-rotation did not resume after EndInteraction")
	}
}

func TestReset(t *testing.T) {
	c := New(DefaultConfig())
	initial := c.State()
	c.Rotate(1, 0.3)
	c.SetDistance(7)
	c.SetAutoRotate(false)
	c.Reset()
	if c.State() != initial {
		t.Errorf("Reset() state = %+v, want %+v", c.State(), initial)
	}
}

func TestNew_ClampsInitialState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distance = 2
	cfg.Polar = 0
	c := New(cfg)
	if c.State().Distance != 6 || c.State().Polar != math.Pi/8 {
		t.Errorf("initial state not clamped: %+v", c.State())
	}
}

func TestView_ProjectsOriginToCentre(t *testing.T) {
	c := New(DefaultConfig())
	v := c.View(16.0 / 9)
	clip := v.ViewProjection.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	if math.Abs(ndc.X()) > 1e-9 || math.Abs(ndc.Y()) > 1e-9 {
		t.Errorf("origin projects to %v, want screen centre", ndc)
	}
	if ndc.Z() < -1 || ndc.Z() > 1 {
		t.Errorf("origin depth %v outside clip range", ndc.Z())
	}
}

func TestView_BadAspect(t *testing.T) {
	c := New(DefaultConfig())
	v := c.View(0)
	if v.Projection != c.View(1).Projection {
		t.Error("non-positive aspect should fall back to 1")
	}
}
