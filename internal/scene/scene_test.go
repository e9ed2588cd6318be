package scene

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/render"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
)

// fakeSurface records presents and can inject a resize after a given frame.
type fakeSurface struct {
	width, height int
	maxFrames     int
	onResize      func(w, h int)

	presented  int
	polls      int
	sizes      [][2]int
	resizeAt   int
	resizeTo   [2]int
	presentErr error
	closed     bool
}

func (f *fakeSurface) Size() (int, int)                    { return f.width, f.height }
func (f *fakeSurface) SetResizeCallback(fn func(w, h int)) { f.onResize = fn }
func (f *fakeSurface) ShouldClose() bool                   { return f.presented >= f.maxFrames }
func (f *fakeSurface) Close() error                        { f.closed = true; return nil }

func (f *fakeSurface) Present(ctx context.Context, fb *render.Framebuffer) error {
	if f.presentErr != nil {
		return f.presentErr
	}
	f.presented++
	f.sizes = append(f.sizes, [2]int{fb.Width(), fb.Height()})
	return nil
}

func (f *fakeSurface) PollEvents() {
	f.polls++
	if f.resizeAt > 0 && f.polls == f.resizeAt && f.onResize != nil {
		f.width, f.height = f.resizeTo[0], f.resizeTo[1]
		f.onResize(f.width, f.height)
	}
}

func singleBodyCatalog(t *testing.T) *kb.Catalog {
	t.Helper()
	cat, err := kb.NewCatalog(model.OrbitalBody{
		Name:            "Probe",
		SemiMajorAxisAU: 2,
		Eccentricity:    0.5,
		PeriodDays:      365,
		Radius:          0.5,
		Color:           model.RGB{R: 1},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return cat
}

// project maps a world point to pixel coordinates for the composer's
// current transforms.
func project(c *Composer, p core.Vec3) (int, int) {
	w, h := c.Viewport()
	x, y, _, cw := c.Projection().Mul(c.View()).TransformPoint(p)
	return int((x/cw + 1) * 0.5 * float64(w)), int((1 - y/cw) * 0.5 * float64(h))
}

func TestDefaultOptionsMatchClassicView(t *testing.T) {
	o := DefaultOptions()
	if o.SunRadius != 1.2 || o.SunColor != (model.RGB{R: 1, G: 1}) {
		t.Fatalf("sun = %v %v", o.SunRadius, o.SunColor)
	}
	if o.SunSlices != 30 || o.SunStacks != 30 || o.BodySlices != 18 || o.BodyStacks != 18 {
		t.Fatalf("tessellation = %+v", o)
	}
	if o.OrbitSegments != 240 || o.OrbitColor != (model.RGB{R: 0.45, G: 0.45, B: 0.45}) {
		t.Fatalf("orbit = %d %v", o.OrbitSegments, o.OrbitColor)
	}
	if o.Camera != core.DefaultCamera() {
		t.Fatalf("camera = %+v", o.Camera)
	}
}

func TestResizeRecomputesOnlyProjection(t *testing.T) {
	c := NewComposer(kb.SolarSystem(), DefaultOptions())
	view := c.View()

	c.Resize(1000, 1000)
	square := c.Projection()
	c.Resize(2000, 1000)
	wide := c.Projection()

	if c.View() != view {
		t.Fatalf("Resize changed the view transform")
	}
	if square == wide {
		t.Fatalf("projection did not change with aspect")
	}
	if math.Abs(square.At(0, 0)/wide.At(0, 0)-2) > 1e-12 {
		t.Fatalf("x scale ratio = %v, want 2", square.At(0, 0)/wide.At(0, 0))
	}
	if square.At(1, 1) != wide.At(1, 1) {
		t.Fatalf("vertical scale changed with width")
	}

	c.Resize(640, 0)
	zero := c.Projection()
	c.Resize(640, 1)
	if zero != c.Projection() {
		t.Fatalf("zero height should project like height 1")
	}
	if !zero.IsFinite() {
		t.Fatalf("zero-height projection not finite")
	}
}

func TestRenderDrawsSunOrbitAndBody(t *testing.T) {
	const w, h = 400, 400
	opts := DefaultOptions()
	c := NewComposer(singleBodyCatalog(t), opts)
	c.Resize(w, h)
	fb := render.NewFramebuffer(w, h)

	frame := c.Render(fb, 0)

	if frame.Segments != opts.OrbitSegments {
		t.Fatalf("segments = %d, want %d", frame.Segments, opts.OrbitSegments)
	}
	if frame.Triangles == 0 {
		t.Fatalf("no triangles drawn")
	}
	if got := fb.RGBAAt(w/2, h/2); got != render.ToRGBA(opts.SunColor) {
		t.Fatalf("center pixel = %v, want sun color", got)
	}

	// At t=0 the body sits at (a, 0, 0).
	pose := frame.Poses[0]
	if pose.Position != (core.Vec3{X: 4}) {
		t.Fatalf("pose at t=0 = %v, want (4,0,0)", pose.Position)
	}
	px, py := project(c, pose.Position)
	if got := fb.RGBAAt(px, py); got.R < 200 || got.G > 40 || got.B > 40 {
		t.Fatalf("body pixel at (%d,%d) = %v, want red", px, py, got)
	}

	// The orbit's minor-axis extreme, away from the body, is outline gray.
	a, b := opts.Motion.Ellipse(c.Catalog().At(0))
	if a != 4 || math.Abs(b-4*math.Sqrt(0.75)) > 1e-12 {
		t.Fatalf("ellipse = (%v,%v)", a, b)
	}
	ox, oy := project(c, core.Vec3{Z: b})
	gray := render.ToRGBA(opts.OrbitColor)
	found := false
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if fb.RGBAAt(ox+dx, oy+dy) == gray {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("no orbit pixel near (%d,%d)", ox, oy)
	}
}

func TestRenderPlacesSunWithMotionModel(t *testing.T) {
	const w, h = 400, 400
	opts := DefaultOptions()
	if _, ok := opts.Sun.(core.StaticMotionModel); !ok {
		t.Fatalf("default sun motion = %T, want StaticMotionModel", opts.Sun)
	}
	opts.Sun = core.StaticMotionModel{At: core.Vec3{X: 3}}
	c := NewComposer(singleBodyCatalog(t), opts)
	c.Resize(w, h)
	fb := render.NewFramebuffer(w, h)
	frame := c.Render(fb, 0)

	if frame.Sun.Position != (core.Vec3{X: 3}) {
		t.Fatalf("sun pose = %v, want (3,0,0)", frame.Sun.Position)
	}
	if c.View() != opts.Camera.View() {
		t.Fatalf("view does not follow the camera")
	}
	sunColor := render.ToRGBA(opts.SunColor)
	sx, sy := project(c, frame.Sun.Position)
	if got := fb.RGBAAt(sx, sy); got != sunColor {
		t.Fatalf("sun pixel at (%d,%d) = %v, want sun color", sx, sy, got)
	}
	if got := fb.RGBAAt(w/2, h/2); got == sunColor {
		t.Fatalf("origin still shows the sun")
	}
	// Orbits are centered on the sun, so the body lands at sun + (a,0,0).
	bx, by := project(c, core.Vec3{X: 7})
	if got := fb.RGBAAt(bx, by); got.R < 200 || got.G > 40 || got.B > 40 {
		t.Fatalf("body pixel at (%d,%d) = %v, want red", bx, by, got)
	}

	opts.Sun = nil
	frame = NewComposer(singleBodyCatalog(t), opts).Render(render.NewFramebuffer(w, h), 0)
	if frame.Sun.Position != (core.Vec3{}) {
		t.Fatalf("nil sun motion should stay at the origin, got %v", frame.Sun.Position)
	}
}

func TestRenderUsesOneTimestampForAllBodies(t *testing.T) {
	opts := DefaultOptions()
	cat := kb.SolarSystem()
	c := NewComposer(cat, opts)
	c.Resize(200, 200)

	const ts = 7.25
	frame := c.Render(render.NewFramebuffer(200, 200), ts)
	if frame.T != ts || len(frame.Poses) != cat.Len() {
		t.Fatalf("frame = %+v", frame)
	}
	want := core.Poses(opts.Motion, cat.Bodies(), ts)
	for i := range want {
		if frame.Poses[i] != want[i] {
			t.Fatalf("pose %d = %+v, want %+v", i, frame.Poses[i], want[i])
		}
	}
}

func TestRenderIntoZeroHeightFramebuffer(t *testing.T) {
	c := NewComposer(kb.SolarSystem(), DefaultOptions())
	c.Resize(300, 0)
	frame := c.Render(render.NewFramebuffer(300, 0), 1)
	if frame.Triangles != 0 || frame.Segments != 0 {
		t.Fatalf("drew into an empty framebuffer: %+v", frame)
	}
	if len(frame.Poses) != 8 {
		t.Fatalf("poses = %d, want 8", len(frame.Poses))
	}
}

func newTestLoop(t *testing.T, surf *fakeSurface, buf *bytes.Buffer) (*Loop, *timectrl.TimeController, *observability.RenderCollector) {
	t.Helper()
	metrics, err := observability.NewRenderCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRenderCollector: %v", err)
	}
	clock := timectrl.NewTimeController(50 * time.Millisecond)
	return &Loop{
		Composer:       NewComposer(kb.SolarSystem(), DefaultOptions()),
		Surface:        surf,
		Clock:          clock,
		Metrics:        metrics,
		Log:            logging.New(logging.Config{Level: "debug", Format: "json", Output: buf}),
		Title:          "Solar System - Top Down",
		Epoch:          time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC),
		SimYearSeconds: 20,
		StatusEvery:    2,
	}, clock, metrics
}

func TestLoopRunsUntilSurfaceCloses(t *testing.T) {
	var buf bytes.Buffer
	surf := &fakeSurface{width: 120, height: 90, maxFrames: 4}
	loop, clock, metrics := newTestLoop(t, surf, &buf)

	var stepped []time.Duration
	clock.AddListener(func(d time.Duration) { stepped = append(stepped, d) })

	frames, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frames != 4 || surf.presented != 4 || surf.polls != 4 {
		t.Fatalf("frames=%d presented=%d polls=%d, want 4 each", frames, surf.presented, surf.polls)
	}
	if len(stepped) != 4 || stepped[3] != 200*time.Millisecond {
		t.Fatalf("clock steps = %v", stepped)
	}
	if got := testutil.ToFloat64(metrics.Frames); got != 4 {
		t.Fatalf("frames metric = %v, want 4", got)
	}
	// The last rendered frame used t = 3 ticks.
	if got := testutil.ToFloat64(metrics.SimElapsed); math.Abs(got-0.15) > 1e-12 {
		t.Fatalf("sim elapsed metric = %v, want 0.15", got)
	}
	if got := testutil.ToFloat64(metrics.SceneBodies); got != 8 {
		t.Fatalf("bodies metric = %v, want 8", got)
	}

	out := buf.String()
	for _, msg := range []string{"solar system simulation starting", `"title":"Solar System - Top Down"`, "frame status", "solar system simulation finished"} {
		if !strings.Contains(out, msg) {
			t.Fatalf("log output missing %q:\n%s", msg, out)
		}
	}
	if strings.Index(out, "starting") > strings.Index(out, "finished") {
		t.Fatalf("startup logged after shutdown")
	}
}

func TestLoopAppliesResizeFromSurface(t *testing.T) {
	var buf bytes.Buffer
	surf := &fakeSurface{width: 100, height: 100, maxFrames: 3, resizeAt: 1, resizeTo: [2]int{160, 0}}
	loop, _, metrics := newTestLoop(t, surf, &buf)

	if _, err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := [][2]int{{100, 100}, {160, 0}, {160, 0}}
	for i, s := range want {
		if surf.sizes[i] != s {
			t.Fatalf("frame %d presented at %v, want %v", i, surf.sizes[i], s)
		}
	}
	if w, h := loop.Composer.Viewport(); w != 160 || h != 0 {
		t.Fatalf("composer viewport = %dx%d, want 160x0", w, h)
	}
	// Initial size plus one resize.
	if got := testutil.ToFloat64(metrics.Resizes); got != 2 {
		t.Fatalf("resizes metric = %v, want 2", got)
	}
}

func TestLoopStopsOnCancellation(t *testing.T) {
	var buf bytes.Buffer
	surf := &fakeSurface{width: 10, height: 10, maxFrames: 100}
	loop, _, _ := newTestLoop(t, surf, &buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames, err := loop.Run(ctx)
	if err != nil || frames != 0 {
		t.Fatalf("Run = (%d, %v), want (0, nil)", frames, err)
	}
	if !strings.Contains(buf.String(), "solar system simulation finished") {
		t.Fatalf("shutdown log missing after cancellation")
	}
}

func TestLoopReturnsPresentError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("device lost")
	surf := &fakeSurface{width: 10, height: 10, maxFrames: 5, presentErr: boom}
	loop, _, _ := newTestLoop(t, surf, &buf)

	_, err := loop.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
}

func TestLoopRequiresCollaborators(t *testing.T) {
	if _, err := (&Loop{}).Run(context.Background()); err == nil {
		t.Fatalf("expected error for empty loop")
	}
}
