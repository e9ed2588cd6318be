package render

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/orrery/model"
)

// ClearDepth is the value every depth sample is reset to, the far end of the
// [0,1] window depth range.
const ClearDepth = 1.0

// Framebuffer is a color buffer paired with a per-pixel depth buffer.
type Framebuffer struct {
	img   *image.RGBA
	depth []float64
}

// NewFramebuffer allocates a framebuffer. Negative sizes are treated as zero;
// a zero-area framebuffer is valid and simply discards all drawing.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the buffers when the size changes. Contents are
// undefined afterwards until the next Clear.
func (f *Framebuffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if f.img != nil && f.Width() == width && f.Height() == height {
		return
	}
	f.img = image.NewRGBA(image.Rect(0, 0, width, height))
	f.depth = make([]float64, width*height)
}

func (f *Framebuffer) Width() int  { return f.img.Rect.Dx() }
func (f *Framebuffer) Height() int { return f.img.Rect.Dy() }

// Image exposes the color buffer. Callers must not retain it across frames.
func (f *Framebuffer) Image() *image.RGBA { return f.img }

// Clear fills the color buffer with bg and resets depth to ClearDepth.
func (f *Framebuffer) Clear(bg color.RGBA) {
	pix := f.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	for i := range f.depth {
		f.depth[i] = ClearDepth
	}
}

// DepthAt returns the stored depth at (x,y), or +Inf outside the buffer.
func (f *Framebuffer) DepthAt(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.Width() || y >= f.Height() {
		return math.Inf(1)
	}
	return f.depth[y*f.Width()+x]
}

// RGBAAt returns the stored color at (x,y).
func (f *Framebuffer) RGBAAt(x, y int) color.RGBA {
	return f.img.RGBAAt(x, y)
}

// plot writes c at (x,y) if z passes a less-or-equal depth test.
func (f *Framebuffer) plot(x, y int, z float64, c color.RGBA) bool {
	w := f.Width()
	if x < 0 || y < 0 || x >= w || y >= f.Height() {
		return false
	}
	if z < 0 || z > 1 {
		return false
	}
	idx := y*w + x
	if z > f.depth[idx] {
		return false
	}
	f.depth[idx] = z
	p := idx * 4
	f.img.Pix[p], f.img.Pix[p+1], f.img.Pix[p+2], f.img.Pix[p+3] = c.R, c.G, c.B, c.A
	return true
}

// ToRGBA converts a unit-range color to 8-bit RGBA, clamping out-of-range
// components.
func ToRGBA(c model.RGB) color.RGBA {
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
