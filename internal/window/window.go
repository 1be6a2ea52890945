// Package window hosts the orrery in a desktop window with ebiten.
package window

import (
	"context"
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/surface"
	"github.com/litescript/ls-orrery/internal/viewport"
)

// Options configure the window.
type Options struct {
	Title  string
	Width  int
	Height int
	FPS    int
	Logger *logging.Logger
}

// DefaultOptions returns a 960×600 window at 60 fps.
func DefaultOptions() Options {
	return Options{Title: "ls-orrery", Width: 960, Height: 600, FPS: 60}
}

// Game adapts a viewport host to ebiten.Game.
type Game struct {
	ctx  context.Context
	host *viewport.Host
	log  *logging.Logger

	start   time.Time
	pointer viewport.Pointer
	frame   *ebiten.Image
	region  surface.Region
	ratio   float64
}

// NewGame wraps host. The game stops when ctx is done.
func NewGame(ctx context.Context, host *viewport.Host, log *logging.Logger) *Game {
	if log == nil {
		log = logging.Discard()
	}
	return &Game{
		ctx:  ctx,
		host: host,
		log:  log.With("window"),
	}
}

// Update handles input and advances one frame.
func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if g.start.IsZero() {
		g.start = time.Now()
	}

	g.handleKeys()
	g.handlePointer()

	err := g.host.Frame(time.Since(g.start).Seconds())
	if errors.Is(err, viewport.ErrClosed) {
		return ebiten.Termination
	}
	return err
}

func (g *Game) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.input(viewport.Event{Kind: viewport.EventToggleAutoRotate})
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.input(viewport.Event{Kind: viewport.EventReset})
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		r := g.host.Renderer()
		r.Options.Stars = !r.Options.Stars
	}
	const step = 0.04
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.input(viewport.Event{Kind: viewport.EventRotate, DX: -step})
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.input(viewport.Event{Kind: viewport.EventRotate, DX: step})
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.input(viewport.Event{Kind: viewport.EventRotate, DY: -step})
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.input(viewport.Event{Kind: viewport.EventRotate, DY: step})
	}
}

func (g *Game) handlePointer() {
	x, y := ebiten.CursorPosition()
	fx, fy := float64(x), float64(y)

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.input(g.pointer.Press(fx, fy))
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if ev, ok := g.pointer.Release(); ok {
			g.input(ev)
		}
	default:
		if ev, ok := g.pointer.Move(fx, fy); ok && (ev.DX != 0 || ev.DY != 0) {
			g.input(ev)
		}
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		// Scrolling up zooms in.
		g.input(viewport.Event{Kind: viewport.EventWheel, Delta: -dy})
	}
}

func (g *Game) input(ev viewport.Event) {
	if err := g.host.Input(ev); err != nil && !errors.Is(err, viewport.ErrClosed) {
		g.log.Warn("input %s: %v", ev.Kind, err)
	}
}

// Draw uploads the host surface and scales it to the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	s := g.host.Surface()
	if !s.Available() {
		return
	}
	if g.frame == nil || g.frame.Bounds().Dx() != s.Width() || g.frame.Bounds().Dy() != s.Height() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(s.Width(), s.Height())
	}
	g.frame.WritePixels(s.Image().Pix)

	op := &ebiten.DrawImageOptions{}
	sb := screen.Bounds()
	op.GeoM.Scale(float64(sb.Dx())/float64(s.Width()), float64(sb.Dy())/float64(s.Height()))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.frame, op)
}

// Layout resizes the host to the window and reports the framebuffer size,
// so high-DPI displays render at device resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	region := surface.Region{Width: outsideWidth, Height: outsideHeight}
	ratio := ebiten.DeviceScaleFactor()
	if region != g.region {
		if err := g.host.Resize(region); err != nil {
			g.log.Warn("resize to %dx%d: %v", outsideWidth, outsideHeight, err)
		} else {
			g.region = region
		}
	}
	if ratio != g.ratio {
		if err := g.host.SetPixelRatio(ratio); err != nil {
			g.log.Warn("pixel ratio %.2f: %v", ratio, err)
		} else {
			g.ratio = ratio
		}
	}
	s := g.host.Surface()
	// Cursor positions arrive in framebuffer pixels.
	g.pointer.MatchSurface(s)
	if !s.Available() {
		return outsideWidth, outsideHeight
	}
	return s.Width(), s.Height()
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, host *viewport.Host, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.FPS > 0 {
		ebiten.SetTPS(opts.FPS)
	}
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err := ebiten.RunGame(NewGame(ctx, host, opts.Logger))
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
