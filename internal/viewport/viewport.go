// Package viewport hosts the orrery inside a rectangular region: it owns the
// render surface, the composed scene, the body arena and the camera, and
// drives them one frame at a time.
package viewport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/glow"
	"github.com/litescript/ls-orrery/internal/icon"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/motion"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/render"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/surface"
)

var (
	// ErrClosed is returned by operations on a closed host.
	ErrClosed = errors.New("viewport closed")

	// ErrResourceUnavailable aborts a mount when the surface cannot be
	// created.
	ErrResourceUnavailable = surface.ErrResourceUnavailable
)

// ReferenceRegion is the region the layout was designed for.
var ReferenceRegion = surface.Region{Width: 960, Height: 600}

// Options configure a mount.
type Options struct {
	Region          surface.Region
	PixelRatio      float64
	PixelRatioRange surface.PixelRatioRange
	Camera          camera.Config
	Scene           scene.Options
	Render          render.Options
	GlowSize        int
	// Icons loads body icons. Nil uses icon.NewLoader with IconDir.
	Icons   icon.Source
	IconDir string
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Region:          ReferenceRegion,
		PixelRatio:      1,
		PixelRatioRange: surface.DefaultPixelRatioRange,
		Camera:          camera.DefaultConfig(),
		Scene:           scene.DefaultOptions(),
		Render:          render.DefaultOptions(),
		GlowSize:        glow.DefaultSize,
	}
}

// FrameInfo is passed to frame callbacks after the scene has advanced and
// before it is rasterized.
type FrameInfo struct {
	Elapsed float64
	Delta   float64
	Frame   uint64
	Bodies  []motion.BodyState // Read-only view of the arena
	Central motion.CentralState
	Camera  camera.State
}

// FrameFunc is a per-frame callback. It runs on the frame goroutine with
// the host locked and must not call back into the host.
type FrameFunc func(FrameInfo)

type callbackEntry struct {
	id int
	fn FrameFunc
}

type listenerEntry struct {
	id int
	l  Listener
}

// Host is a mounted visualization. Frame, Input and Resize are meant to be
// called from one goroutine; Close may be called from any.
type Host struct {
	mu sync.Mutex

	log     *logging.Logger
	metrics *metrics.Collector
	opts    Options

	surf     *surface.Surface
	glow     *glow.Cache
	scene    *scene.Scene
	camera   *camera.Controller
	renderer *render.Renderer

	params  []motion.BodyParams
	arena   []motion.BodyState
	central motion.CentralState
	labels  []render.Label

	callbacks []callbackEntry
	listeners []listenerEntry
	nextID    int

	mountedAt   time.Time
	lastElapsed float64
	frames      uint64
	ready       chan struct{}

	cancel    context.CancelFunc
	loaders   sync.WaitGroup
	icons     scene.IconResult
	closed    bool
	closeOnce sync.Once
}

// Mount creates the surface, builds the glow texture, composes the scene
// and starts loading icons. A surface or texture failure aborts the mount
// with ErrResourceUnavailable; an invalid cfg aborts with
// orbit.ErrConfigurationInvalid. Icon failures never abort.
func Mount(ctx context.Context, cfg *orbit.Config, opts Options) (*Host, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("viewport")

	surf, err := render.NewSurface(opts.Region, opts.PixelRatio, opts.PixelRatioRange)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	cache := glow.NewCache(opts.GlowSize, surf)
	tex, err := cache.Texture()
	if err != nil {
		surf.Release()
		return nil, fmt.Errorf("mount: %w", err)
	}

	sc, err := scene.Compose(cfg, opts.Scene)
	if err != nil {
		cache.Release()
		surf.Release()
		return nil, fmt.Errorf("mount: %w", err)
	}

	cam := camera.New(opts.Camera)
	h := &Host{
		log:       log,
		metrics:   opts.Metrics,
		opts:      opts,
		surf:      surf,
		glow:      cache,
		scene:     sc,
		camera:    cam,
		renderer:  render.New(opts.Render, tex),
		params:    sc.Params(),
		arena:     sc.NewArena(),
		mountedAt: time.Now(),
		ready:     make(chan struct{}),
	}
	h.addListener(cameraListener{cam: cam})
	h.metrics.SetBodies(sc.Len())

	src := opts.Icons
	if src == nil {
		src = icon.NewLoader(opts.IconDir)
	}
	loadCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.loaders.Add(1)
	go func() {
		defer h.loaders.Done()
		res := sc.LoadIcons(loadCtx, src, opts.Logger, opts.Metrics)
		h.mu.Lock()
		h.icons = res
		h.mu.Unlock()
	}()

	log.Info("mounted %dx%d (ratio %.2f), %d bodies in %d categories",
		surf.Width(), surf.Height(), surf.PixelRatio(), sc.Len(), cfg.Len())
	return h, nil
}

// Frame advances the scene to elapsed seconds since mount and rasterizes
// it. Order: orbiting bodies, central body, camera idle rotation, frame
// callbacks, rasterization, then the ready transition on the first frame.
func (h *Host) Frame(elapsed float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	start := time.Now()

	dt := elapsed - h.lastElapsed
	if dt < 0 || h.frames == 0 {
		dt = 0
	}
	h.lastElapsed = elapsed

	motion.AdvanceBodies(h.params, h.arena, elapsed)
	h.central = motion.AdvanceCentral(elapsed)
	h.camera.Tick(dt)

	info := FrameInfo{
		Elapsed: elapsed,
		Delta:   dt,
		Frame:   h.frames,
		Bodies:  h.arena,
		Central: h.central,
		Camera:  h.camera.State(),
	}
	for _, cb := range h.callbacks {
		cb.fn(info)
	}

	aspect := float64(h.surf.Width()) / float64(h.surf.Height())
	labels, err := h.renderer.Draw(h.surf, h.scene, render.Frame{
		Time:    elapsed,
		Bodies:  h.arena,
		Central: h.central,
	}, h.camera.View(aspect))
	if err != nil {
		return fmt.Errorf("frame %d: %w", h.frames, err)
	}
	h.labels = labels

	h.frames++
	h.metrics.FrameRendered(time.Since(start))
	if h.frames == 1 {
		close(h.ready)
		latency := time.Since(h.mountedAt)
		h.metrics.Ready(latency)
		h.log.Info("ready after %v", latency.Round(time.Millisecond))
	}
	return nil
}

// Ready is closed once the first frame has been rendered.
func (h *Host) Ready() <-chan struct{} { return h.ready }

// IsReady reports whether the first frame has been rendered.
func (h *Host) IsReady() bool {
	select {
	case <-h.ready:
		return true
	default:
		return false
	}
}

// OnFrame registers fn to run every frame. The returned function
// unregisters it.
func (h *Host) OnFrame(fn FrameFunc) (unregister func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}
	id := h.nextID
	h.nextID++
	h.callbacks = append(h.callbacks, callbackEntry{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, cb := range h.callbacks {
			if cb.id == id {
				h.callbacks = append(h.callbacks[:i:i], h.callbacks[i+1:]...)
				return
			}
		}
	}
}

// AddListener registers an input listener after the camera. The returned
// function removes it.
func (h *Host) AddListener(l Listener) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}
	id := h.addListener(l)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, e := range h.listeners {
			if e.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

func (h *Host) addListener(l Listener) int {
	id := h.nextID
	h.nextID++
	h.listeners = append(h.listeners, listenerEntry{id: id, l: l})
	return id
}

// Input dispatches ev to every listener in registration order.
func (h *Host) Input(ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if ev.Height == 0 {
		ev.Height = float64(h.surf.Region().Height)
	}
	for _, e := range h.listeners {
		e.l.HandleInput(ev)
	}
	return nil
}

// Resize reallocates the surface for a new region at the current pixel
// ratio. On failure the old surface stays in place.
func (h *Host) Resize(region surface.Region) error {
	return h.resize(region, h.opts.PixelRatio)
}

// SetPixelRatio reallocates the surface at a new device pixel ratio.
func (h *Host) SetPixelRatio(ratio float64) error {
	h.mu.Lock()
	region := h.opts.Region
	h.mu.Unlock()
	return h.resize(region, ratio)
}

func (h *Host) resize(region surface.Region, ratio float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if region == h.opts.Region && ratio == h.opts.PixelRatio {
		return nil
	}
	surf, err := render.NewSurface(region, ratio, h.opts.PixelRatioRange)
	if err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	h.surf.Release()
	h.surf = surf
	h.opts.Region = region
	h.opts.PixelRatio = ratio
	h.log.Debug("resized to %dx%d", surf.Width(), surf.Height())
	return nil
}

// Close tears the visualization down: it cancels icon loads, drops frame
// callbacks and listeners, releases the glow texture and the surface, waits
// for loaders to exit, then drops every loaded icon. Safe to call more than
// once.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.cancel()
		h.callbacks = nil
		h.listeners = nil
		h.renderer.Release()
		h.glow.Release()
		h.surf.Release()
		h.mu.Unlock()

		h.loaders.Wait()
		for i := range h.scene.Bodies {
			h.scene.Bodies[i].SetIcon(nil)
		}
		h.log.Info("closed after %d frames", h.frames)
	})
	return nil
}

// Closed reports whether Close has run.
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// WaitIcons blocks until icon loading has finished and returns the result.
func (h *Host) WaitIcons() scene.IconResult {
	h.loaders.Wait()
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.icons
}

// Surface returns the current framebuffer. It is replaced by Resize.
func (h *Host) Surface() *surface.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surf
}

// Scene returns the composed scene.
func (h *Host) Scene() *scene.Scene { return h.scene }

// Renderer exposes layer toggles.
func (h *Host) Renderer() *render.Renderer { return h.renderer }

// CameraState returns the current camera state.
func (h *Host) CameraState() camera.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.camera.State()
}

// Labels returns the label placements of the last frame.
func (h *Host) Labels() []render.Label {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]render.Label(nil), h.labels...)
}

// Bodies returns a copy of the arena as of the last frame.
func (h *Host) Bodies() []motion.BodyState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]motion.BodyState(nil), h.arena...)
}

// Frames returns the number of rendered frames.
func (h *Host) Frames() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Sink consumes a rendered frame.
type Sink func(s *surface.Surface, elapsed float64) error

// Run drives frames at fps until ctx is done or sink fails. It is the
// scheduler for headless use; interactive hosts call Frame themselves.
func (h *Host) Run(ctx context.Context, fps int, sink Sink) error {
	if fps <= 0 {
		fps = 30
	}
	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	start := time.Now()
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		elapsed := time.Since(start).Seconds()
		if err := h.Frame(elapsed); err != nil {
			return err
		}
		if sink == nil {
			continue
		}
		if err := sink(h.Surface(), elapsed); err != nil {
			return err
		}
	}
}
