// Package surface provides the presentation targets the frame loop draws
// into. A Surface stands in for a window: it has a size, reports resizes
// through a callback, paces presentation and decides when the loop should
// stop.
package surface

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/orrery/internal/config"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/render"
)

// ErrClosed is returned by Present after Close.
var ErrClosed = errors.New("surface closed")

// Surface is the window/context collaborator of the frame loop.
type Surface interface {
	// Size returns the current drawable size in pixels. Height may be zero.
	Size() (width, height int)
	// SetResizeCallback registers fn to run from PollEvents whenever the
	// drawable size changed since the previous poll.
	SetResizeCallback(fn func(width, height int))
	// Present shows fb, blocking until the next presentation slot.
	Present(ctx context.Context, fb *render.Framebuffer) error
	// PollEvents delivers pending input and resize events.
	PollEvents()
	// ShouldClose reports whether the loop should stop.
	ShouldClose() bool
	// Close releases the surface. It is safe to call more than once.
	Close() error
}

// New builds the surface selected by cfg.Surface.Type.
func New(cfg config.Config, metrics *observability.RenderCollector, log logging.Logger) (Surface, error) {
	switch cfg.Surface.Type {
	case "", "headless":
		return NewHeadless(HeadlessOptions{
			Width:     cfg.Window.Width,
			Height:    cfg.Window.Height,
			FPS:       cfg.Window.FPS,
			MaxFrames: cfg.Surface.Frames,
			GIFPath:   cfg.Surface.GIFPath,
			Log:       log,
		}), nil
	case "stream":
		return NewStream(StreamOptions{
			Addr:      cfg.Surface.ListenAddr,
			Width:     cfg.Window.Width,
			Height:    cfg.Window.Height,
			FPS:       cfg.Window.FPS,
			MaxFrames: cfg.Surface.Frames,
			Metrics:   metrics,
			Log:       log,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownSurface, cfg.Surface.Type)
	}
}

// window carries the state every surface shares: size, queued resizes and
// the close conditions.
type window struct {
	mu sync.Mutex

	width, height int
	resized       bool
	onResize      func(width, height int)

	frames    int
	maxFrames int
	closing   bool
}

func newWindow(width, height, maxFrames int) window {
	return window{width: clampSize(width), height: clampSize(height), maxFrames: maxFrames}
}

func (w *window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *window) SetResizeCallback(fn func(width, height int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = fn
}

// RequestResize changes the drawable size. The callback fires on the next
// PollEvents, coalescing repeated requests.
func (w *window) RequestResize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	width, height = clampSize(width), clampSize(height)
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	w.resized = true
}

func (w *window) PollEvents() {
	w.mu.Lock()
	fn := w.onResize
	width, height := w.width, w.height
	fire := w.resized && fn != nil
	w.resized = false
	w.mu.Unlock()

	if fire {
		fn(width, height)
	}
}

// RequestClose asks the loop to stop at its next check.
func (w *window) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closing = true
}

func (w *window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closing || (w.maxFrames > 0 && w.frames >= w.maxFrames)
}

// Frames returns the number of frames presented so far.
func (w *window) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *window) countFrame() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames++
	return w.frames
}

func clampSize(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
