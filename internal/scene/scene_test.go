package scene

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-orrery/internal/icon"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/motion"
	"github.com/litescript/ls-orrery/internal/orbit"
)

func compose(t *testing.T) *Scene {
	t.Helper()
	s, err := Compose(orbit.DefaultConfig(), Options{NoStars: true})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	return s
}

func TestCompose_Default(t *testing.T) {
	s, err := Compose(orbit.DefaultConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(s.Rings) != 4 {
		t.Errorf("rings = %d, want 4", len(s.Rings))
	}
	if s.Len() != 25 {
		t.Errorf("bodies = %d, want 25", s.Len())
	}
	for i, b := range s.Bodies {
		if int(b.ID) != i {
			t.Errorf("body %d has ID %d", i, b.ID)
		}
	}
	if s.Central.Radius != 1.5 {
		t.Errorf("central radius = %v, want 1.5", s.Central.Radius)
	}
	if s.Lights.Ambient != 0.15 || s.Lights.Point.Intensity != 3 || s.Lights.Point.Distance != 30 {
		t.Errorf("lights = %+v", s.Lights)
	}
	if len(s.Stars) == 0 {
		t.Error("default options should include a starfield")
	}
	if s.Extent() != 13 {
		t.Errorf("Extent() = %v, want 13", s.Extent())
	}
	if cap(s.Bodies) != s.Config.BodyCount() {
		t.Errorf("bodies cap = %d, want %d", cap(s.Bodies), s.Config.BodyCount())
	}
}

func TestCompose_StarShellClearsRings(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		want   float64
	}{
		{"default shell kept", 13, 80},
		{"shell pushed out", 40, 160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := orbit.New([]orbit.CategorySpec{
				{Name: "Wide", Color: "#ffffff", RingRadius: tt.radius, Items: []orbit.ItemSpec{{Name: "x"}}},
			})
			if err != nil {
				t.Fatal(err)
			}
			s, err := Compose(cfg, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Stars) == 0 {
				t.Fatal("no stars")
			}
			for _, st := range s.Stars {
				if math.Abs(st.Pos.Len()-tt.want) > 1e-6 {
					t.Fatalf("star at distance %v, want %v", st.Pos.Len(), tt.want)
				}
			}
		})
	}
}

func TestCompose_Rings(t *testing.T) {
	s := compose(t)
	for _, r := range s.Rings {
		if len(r.Points) != RingSegments+1 {
			t.Fatalf("ring %d has %d points, want %d", r.Category, len(r.Points), RingSegments+1)
		}
		if r.Opacity != 0.15 {
			t.Errorf("ring opacity = %v", r.Opacity)
		}
		if !r.Points[0].ApproxEqualThreshold(r.Points[RingSegments], 1e-12) {
			t.Errorf("ring %d is not closed", r.Category)
		}
		for _, p := range r.Points {
			if math.Abs(p.Len()-r.Radius) > 1e-9 {
				t.Fatalf("ring point %v not at radius %v", p, r.Radius)
			}
		}
	}
}

func TestCompose_BodiesFollowTheirRing(t *testing.T) {
	s := compose(t)
	for _, b := range s.Bodies {
		st := motion.AdvanceBody(b.Params, 3.7)
		ring := s.Rings[b.Category]
		// The body lies in the ring's plane: the transformed local Y axis is
		// orthogonal to the position.
		normal := mgl64.TransformNormal(mgl64.Vec3{0, 1, 0}, ring.Transform)
		if math.Abs(st.World.Dot(normal)) > 1e-9 {
			t.Errorf("%s is off its ring plane", b.Name)
		}
		if math.Abs(st.World.Len()-ring.Radius) > 1e-9 {
			t.Errorf("%s at distance %v, want %v", b.Name, st.World.Len(), ring.Radius)
		}
	}
}

func TestGroupTransform(t *testing.T) {
	xf := GroupTransform(0, 0)
	if !xf.ApproxEqual(mgl64.Ident4()) {
		t.Errorf("GroupTransform(0, 0) = %v, want identity", xf)
	}

	// Category 2 is staggered by 0.7 rad about Y.
	p := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, GroupTransform(2, 0))
	want := mgl64.Vec3{math.Cos(0.7), 0, -math.Sin(0.7)}
	if !p.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("staggered point = %v, want %v", p, want)
	}
}

func TestCompose_Invalid(t *testing.T) {
	if _, err := Compose(nil, Options{}); !errors.Is(err, orbit.ErrConfigurationInvalid) {
		t.Errorf("Compose(nil) error = %v, want ErrConfigurationInvalid", err)
	}
}

func TestBody_Lookup(t *testing.T) {
	s := compose(t)
	b, err := s.Body(3)
	if err != nil || b.ID != 3 {
		t.Errorf("Body(3) = %v, %v", b, err)
	}
	if _, err := s.Body(BodyID(s.Len())); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("Body(out of range) error = %v", err)
	}
	if len(s.Params()) != s.Len() || len(s.NewArena()) != s.Len() {
		t.Error("params and arena must be indexed by body ID")
	}
}

func TestPointLight_Attenuation(t *testing.T) {
	l := PointLight{Intensity: 3, Distance: 30}
	if got := l.Attenuation(0); got != 3 {
		t.Errorf("Attenuation(0) = %v, want 3", got)
	}
	if got := l.Attenuation(30); got != 0 {
		t.Errorf("Attenuation(30) = %v, want 0", got)
	}
	if l.Attenuation(4) <= l.Attenuation(13) {
		t.Error("attenuation should fall off with distance")
	}
}

// flakySource fails for every reference containing "bad".
type flakySource struct {
	mu    sync.Mutex
	calls int
}

func (f *flakySource) Load(_ context.Context, ref string, _ color.Color) (*image.RGBA, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if strings.Contains(ref, "bad") {
		return nil, icon.ErrIconLoadFailed
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestLoadIcons_PartialFailure(t *testing.T) {
	cfg, err := orbit.New([]orbit.CategorySpec{{
		Name:       "Languages",
		Color:      "#2dd4bf",
		RingRadius: 4,
		Items: []orbit.ItemSpec{
			{Name: "Go"},
			{Name: "Broken", IconRef: "file:bad.png"},
			{Name: "Rust"},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	s, err := Compose(cfg, Options{NoStars: true})
	if err != nil {
		t.Fatal(err)
	}

	src := &flakySource{}
	m := metrics.New()
	res := s.LoadIcons(context.Background(), src, nil, m)

	if res.Loaded != 2 || res.Failed != 1 {
		t.Errorf("LoadIcons() = %+v, want 2 loaded, 1 failed", res)
	}
	if src.calls != 3 {
		t.Errorf("loader called %d times, want 3 (no retries)", src.calls)
	}
	for _, b := range s.Bodies {
		hasIcon := b.Icon() != nil
		if hasIcon == (b.Name == "Broken") {
			t.Errorf("%s: icon present = %v", b.Name, hasIcon)
		}
	}
}

func TestLoadIcons_Glyphs(t *testing.T) {
	s := compose(t)
	res := s.LoadIcons(context.Background(), icon.NewLoader(""), nil, nil)
	if res.Loaded != s.Len() || res.Failed != 0 {
		t.Errorf("LoadIcons() = %+v, want all %d loaded", res, s.Len())
	}
}

func TestLoadIcons_Cancelled(t *testing.T) {
	s := compose(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.LoadIcons(ctx, icon.NewLoader(""), nil, nil)
	if res.Loaded != 0 {
		t.Errorf("loaded %d icons after cancellation", res.Loaded)
	}
}
