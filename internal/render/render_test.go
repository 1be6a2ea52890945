package render

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/glow"
	"github.com/litescript/ls-orrery/internal/motion"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/surface"
)

type fixture struct {
	surf  *surface.Surface
	scene *scene.Scene
	view  camera.View
	r     *Renderer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	surf, err := NewSurface(surface.Region{Width: 160, Height: 100}, 1, surface.DefaultPixelRatioRange)
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	sc, err := scene.Compose(orbit.DefaultConfig(), scene.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	cam := camera.New(camera.DefaultConfig())
	return fixture{
		surf:  surf,
		scene: sc,
		view:  cam.View(1.6),
		r:     New(DefaultOptions(), glow.Build(glow.DefaultSize)),
	}
}

func frameAt(sc *scene.Scene, t float64) Frame {
	states := sc.NewArena()
	motion.AdvanceBodies(sc.Params(), states, t)
	return Frame{Time: t, Bodies: states, Central: motion.AdvanceCentral(t)}
}

func TestDraw_CentralBody(t *testing.T) {
	fx := newFixture(t)
	fx.r.Options.Glow = false
	if _, err := fx.r.Draw(fx.surf, fx.scene, frameAt(fx.scene, 0), fx.view); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	c := fx.surf.Image().RGBAAt(80, 50)
	if c == Background {
		t.Fatal("centre pixel is background")
	}
	if c.R <= c.B {
		t.Errorf("central body should be warm, got %+v", c)
	}
}

func TestDraw_Deterministic(t *testing.T) {
	fx := newFixture(t)
	f := frameAt(fx.scene, 12.5)
	if _, err := fx.r.Draw(fx.surf, fx.scene, f, fx.view); err != nil {
		t.Fatal(err)
	}
	first := append([]byte(nil), fx.surf.Image().Pix...)

	if _, err := fx.r.Draw(fx.surf, fx.scene, f, fx.view); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, fx.surf.Image().Pix) {
		t.Error("two draws of the same frame differ")
	}
}

func TestDraw_Labels(t *testing.T) {
	fx := newFixture(t)
	labels, err := fx.r.Draw(fx.surf, fx.scene, frameAt(fx.scene, 0), fx.view)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != fx.scene.Len()+1 {
		t.Fatalf("labels = %d, want %d", len(labels), fx.scene.Len()+1)
	}
	central := labels[0]
	if central.Body != CentralID || central.Text != "Tech Stack" || !central.Visible {
		t.Errorf("central label = %+v", central)
	}
	// The label sits above the body on screen.
	if central.Y >= 50 {
		t.Errorf("central label Y = %v, want above the centre", central.Y)
	}
	for i, l := range labels[1:] {
		if l.Body != scene.BodyID(i) {
			t.Errorf("label %d body = %d", i, l.Body)
		}
	}
}

func TestDraw_LayersOff(t *testing.T) {
	fx := newFixture(t)
	fx.r.Options.Stars = false
	fx.r.Options.Rings = false
	fx.r.Options.Glow = false
	if _, err := fx.r.Draw(fx.surf, fx.scene, frameAt(fx.scene, 0), fx.view); err != nil {
		t.Fatal(err)
	}
	if got := fx.surf.Image().RGBAAt(0, 0); got != Background {
		t.Errorf("corner = %+v, want background with layers off", got)
	}
}

func TestDraw_Errors(t *testing.T) {
	fx := newFixture(t)

	bad := Frame{Bodies: make([]motion.BodyState, 2)}
	if _, err := fx.r.Draw(fx.surf, fx.scene, bad, fx.view); err == nil {
		t.Error("Draw() with a short arena should fail")
	}

	fx.surf.Release()
	_, err := fx.r.Draw(fx.surf, fx.scene, frameAt(fx.scene, 0), fx.view)
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("Draw() on released surface error = %v, want ErrResourceUnavailable", err)
	}
}

func TestNewSurface_Unavailable(t *testing.T) {
	_, err := NewSurface(surface.Region{Width: 0, Height: 600}, 1, surface.DefaultPixelRatioRange)
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("NewSurface() error = %v, want ErrResourceUnavailable", err)
	}
}

func TestScaledIcon_Cached(t *testing.T) {
	r := New(DefaultOptions(), nil)
	src := image.NewRGBA(image.Rect(0, 0, 30, 15))
	a := r.scaledIcon(src, 10)
	b := r.scaledIcon(src, 10)
	if a != b {
		t.Error("scaledIcon should reuse the cached image")
	}
	if a.Bounds().Dx() != 20 || a.Bounds().Dy() != 10 {
		t.Errorf("scaled bounds = %v, want 20x10", a.Bounds())
	}
	if c := r.scaledIcon(src, 12); c == a {
		t.Error("different heights must not share a cache entry")
	}
}

func TestRelease_DropsCaches(t *testing.T) {
	r := New(DefaultOptions(), glow.Build(32))
	r.scaledIcon(image.NewRGBA(image.Rect(0, 0, 8, 8)), 4)
	if r.CachedIcons() != 1 {
		t.Fatalf("CachedIcons() = %d, want 1", r.CachedIcons())
	}
	r.Release()
	if r.CachedIcons() != 0 {
		t.Errorf("CachedIcons() after Release = %d, want 0", r.CachedIcons())
	}
	if r.glow != nil {
		t.Error("glow texture still referenced after Release")
	}
}

func TestDraw_IconBillboard(t *testing.T) {
	fx := newFixture(t)
	fx.r.Options.Glow = false
	f := frameAt(fx.scene, 0)

	// Icons below a few pixels are skipped; render large enough to show them.
	surf, err := NewSurface(surface.Region{Width: 640, Height: 400}, 1, surface.DefaultPixelRatioRange)
	if err != nil {
		t.Fatal(err)
	}
	fx.surf = surf

	if _, err := fx.r.Draw(fx.surf, fx.scene, f, fx.view); err != nil {
		t.Fatal(err)
	}
	without := append([]byte(nil), fx.surf.Image().Pix...)

	solid := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range solid.Pix {
		solid.Pix[i] = 255
	}
	for _, b := range fx.scene.Bodies {
		b.SetIcon(solid)
	}
	if _, err := fx.r.Draw(fx.surf, fx.scene, f, fx.view); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(without, fx.surf.Image().Pix) {
		t.Error("attached icons were not drawn")
	}
}
