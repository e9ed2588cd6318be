package surface

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/render"
)

type HeadlessOptions struct {
	Width, Height int
	// FPS paces Present; zero or negative presents as fast as possible.
	FPS float64
	// MaxFrames closes the surface after that many presents; zero is unbounded.
	MaxFrames int
	// GIFPath, when set, captures every presented frame and writes an
	// animated GIF on Close.
	GIFPath string
	Log     logging.Logger
}

// Headless is an off-screen surface. It keeps no pixels of its own unless
// GIF capture is enabled.
type Headless struct {
	window

	limiter *rate.Limiter
	log     logging.Logger

	gifPath   string
	gifDelay  int
	gifBounds image.Rectangle
	gifFrames []*image.Paletted

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

func NewHeadless(opts HeadlessOptions) *Headless {
	log := opts.Log
	if log == nil {
		log = logging.Noop()
	}
	return &Headless{
		window:   newWindow(opts.Width, opts.Height, opts.MaxFrames),
		limiter:  newLimiter(opts.FPS),
		log:      log.With(logging.String("surface", "headless")),
		gifPath:  opts.GIFPath,
		gifDelay: gifDelay(opts.FPS),
	}
}

// newLimiter returns a limiter releasing one frame per 1/fps seconds.
func newLimiter(fps float64) *rate.Limiter {
	if fps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(fps), 1)
}

// gifDelay converts a frame rate to GIF delay units of 10ms.
func gifDelay(fps float64) int {
	if fps <= 0 {
		return 1
	}
	d := int(100/fps + 0.5)
	if d < 1 {
		d = 1
	}
	return d
}

func (h *Headless) Present(ctx context.Context, fb *render.Framebuffer) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	n := h.countFrame()
	if h.gifPath != "" && fb != nil {
		h.capture(n, fb)
	}
	return nil
}

func (h *Headless) capture(frame int, fb *render.Framebuffer) {
	src := fb.Image()
	b := src.Bounds()
	if b.Empty() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.gifFrames) == 0 {
		h.gifBounds = b
	} else if b != h.gifBounds {
		// GIF frames share one logical screen; later sizes are skipped.
		h.log.Debug(context.Background(), "skipping gif frame after resize",
			logging.Int("frame", frame),
			logging.Int("width", b.Dx()),
			logging.Int("height", b.Dy()),
		)
		return
	}
	p := image.NewPaletted(b, palette.Plan9)
	draw.Draw(p, b, src, b.Min, draw.Src)
	h.gifFrames = append(h.gifFrames, p)
}

// Close writes the captured GIF, if any.
func (h *Headless) Close() error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.closing = true
		frames := h.gifFrames
		h.gifFrames = nil
		h.mu.Unlock()

		if h.gifPath == "" || len(frames) == 0 {
			return
		}
		h.closeErr = writeGIF(h.gifPath, frames, h.gifDelay)
		if h.closeErr == nil {
			h.log.Info(context.Background(), "wrote frame capture",
				logging.String("path", h.gifPath),
				logging.Int("frames", len(frames)),
			)
		}
	})
	return h.closeErr
}

func writeGIF(path string, frames []*image.Paletted, delay int) error {
	delays := make([]int, len(frames))
	for i := range delays {
		delays[i] = delay
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	if err := gif.EncodeAll(out, &gif.GIF{Image: frames, Delay: delays}); err != nil {
		out.Close()
		return fmt.Errorf("encode gif: %w", err)
	}
	return out.Close()
}
