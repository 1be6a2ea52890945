package viewport

import (
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/surface"
)

// EventKind identifies an input event.
type EventKind int

const (
	EventDragStart EventKind = iota
	EventDrag
	EventDragEnd
	EventWheel
	EventRotate
	EventZoom
	EventReset
	EventToggleAutoRotate
)

func (k EventKind) String() string {
	switch k {
	case EventDragStart:
		return "drag-start"
	case EventDrag:
		return "drag"
	case EventDragEnd:
		return "drag-end"
	case EventWheel:
		return "wheel"
	case EventRotate:
		return "rotate"
	case EventZoom:
		return "zoom"
	case EventReset:
		return "reset"
	case EventToggleAutoRotate:
		return "toggle-auto-rotate"
	default:
		return "unknown"
	}
}

// Event is a host-neutral input event.
//
//	Drag:   DX, DY pointer movement in logical pixels
//	Wheel:  Delta notches, positive zooms out
//	Rotate: DX azimuth and DY polar change in radians
//	Zoom:   Delta distance scale factor
type Event struct {
	Kind  EventKind
	DX    float64
	DY    float64
	Delta float64
	// Height of the viewport in logical pixels. Filled in by the host when
	// zero.
	Height float64
}

// Listener receives input events.
type Listener interface {
	HandleInput(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// HandleInput calls f(ev).
func (f ListenerFunc) HandleInput(ev Event) { f(ev) }

// cameraListener maps events onto the orbit camera.
type cameraListener struct {
	cam *camera.Controller
}

func (l cameraListener) HandleInput(ev Event) {
	switch ev.Kind {
	case EventDragStart:
		l.cam.BeginInteraction()
	case EventDrag:
		l.cam.Drag(ev.DX, ev.DY, ev.Height)
	case EventDragEnd:
		l.cam.EndInteraction()
	case EventWheel:
		l.cam.Wheel(ev.Delta)
	case EventRotate:
		l.cam.Rotate(ev.DX, ev.DY)
	case EventZoom:
		l.cam.Zoom(ev.Delta)
	case EventReset:
		l.cam.Reset()
	case EventToggleAutoRotate:
		l.cam.ToggleAutoRotate()
	}
}

// Pointer turns absolute pointer positions into drag events. Scale converts
// host units (terminal cells, window pixels) into logical pixels; zero means
// one.
type Pointer struct {
	ScaleX float64
	ScaleY float64

	down bool
	x, y float64
}

// Dragging reports whether a drag is in progress.
func (p *Pointer) Dragging() bool { return p.down }

// Press starts a drag at (x, y).
func (p *Pointer) Press(x, y float64) Event {
	p.down = true
	p.x, p.y = x, y
	return Event{Kind: EventDragStart}
}

// Move reports the drag delta since the last position. ok is false when no
// drag is in progress.
func (p *Pointer) Move(x, y float64) (ev Event, ok bool) {
	if !p.down {
		return Event{}, false
	}
	dx, dy := (x-p.x)*scaleOr1(p.ScaleX), (y-p.y)*scaleOr1(p.ScaleY)
	p.x, p.y = x, y
	return Event{Kind: EventDrag, DX: dx, DY: dy}, true
}

// Release ends the drag. ok is false when no drag was in progress.
func (p *Pointer) Release() (ev Event, ok bool) {
	if !p.down {
		return Event{}, false
	}
	p.down = false
	return Event{Kind: EventDragEnd}, true
}

// MatchSurface scales framebuffer-pixel positions back to logical pixels
// using the ratio s actually applied, which may be clamped below the
// device's.
func (p *Pointer) MatchSurface(s *surface.Surface) {
	if !s.Available() || s.PixelRatio() <= 0 {
		return
	}
	p.ScaleX = 1 / s.PixelRatio()
	p.ScaleY = 1 / s.PixelRatio()
}

func scaleOr1(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
