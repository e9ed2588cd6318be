package scene

import (
	"image/color"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/config"
	"github.com/signalsfoundry/orrery/internal/render"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
)

// Options fixes everything about the scene except the catalog and time.
type Options struct {
	Camera core.Camera
	Motion core.OrbitalMotionModel
	// Sun places the central body; nil keeps it at the origin.
	Sun core.MotionModel

	SunRadius float64
	SunColor  model.RGB
	SunSlices int
	SunStacks int

	BodySlices int
	BodyStacks int

	OrbitSegments int
	OrbitColor    model.RGB
	Background    model.RGB
}

// DefaultOptions reproduces the classic top-down solar system view.
func DefaultOptions() Options {
	return Options{
		Camera:        core.DefaultCamera(),
		Motion:        core.NewOrbitalMotionModel(),
		Sun:           core.StaticMotionModel{},
		SunRadius:     1.2,
		SunColor:      model.RGB{R: 1, G: 1, B: 0},
		SunSlices:     30,
		SunStacks:     30,
		BodySlices:    18,
		BodyStacks:    18,
		OrbitSegments: 240,
		OrbitColor:    model.RGB{R: 0.45, G: 0.45, B: 0.45},
	}
}

// OptionsFromConfig maps loaded configuration onto scene options.
func OptionsFromConfig(cfg config.Config) Options {
	vec := func(v config.Vec) core.Vec3 { return core.Vec3{X: v.X, Y: v.Y, Z: v.Z} }
	return Options{
		Camera: core.Camera{
			Eye:     vec(cfg.Camera.Eye),
			Center:  vec(cfg.Camera.Center),
			Up:      vec(cfg.Camera.Up),
			FovYDeg: cfg.Camera.FovY,
			Near:    cfg.Camera.Near,
			Far:     cfg.Camera.Far,
		},
		Motion: core.OrbitalMotionModel{
			AUToUnits:      cfg.Scale.AUToUnits,
			SimYearSeconds: cfg.Scale.SimYearSeconds,
		},
		Sun:           core.StaticMotionModel{},
		SunRadius:     cfg.Sun.Radius,
		SunColor:      cfg.Sun.Color,
		SunSlices:     cfg.Sun.Slices,
		SunStacks:     cfg.Sun.Stacks,
		BodySlices:    cfg.Render.BodySlices,
		BodyStacks:    cfg.Render.BodyStacks,
		OrbitSegments: cfg.Render.OrbitSegments,
		OrbitColor:    cfg.Render.OrbitColor,
		Background:    cfg.Render.Background,
	}
}

// Frame summarises one Render call.
type Frame struct {
	T         float64
	Sun       core.BodyPose
	Poses     []core.BodyPose
	Triangles int
	Segments  int
}

// Composer draws the sun, each orbit outline and each body for a given
// simulation time. It is not safe for concurrent use.
type Composer struct {
	opts    Options
	catalog *kb.Catalog

	view core.Mat4
	proj core.Mat4

	width, height int

	sun, body, orbit *render.Mesh
	background       color.RGBA
}

func NewComposer(catalog *kb.Catalog, opts Options) *Composer {
	c := &Composer{
		opts:       opts,
		catalog:    catalog,
		view:       opts.Camera.View(),
		sun:        render.UnitSphere(opts.SunSlices, opts.SunStacks),
		body:       render.UnitSphere(opts.BodySlices, opts.BodyStacks),
		orbit:      render.UnitCircle(opts.OrbitSegments),
		background: render.ToRGBA(opts.Background),
	}
	c.Resize(0, 0)
	return c
}

// Resize recomputes the projection for a new viewport. A zero height is
// treated as one pixel.
func (c *Composer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width, c.height = width, height
	c.proj = c.opts.Camera.Projection(width, height)
}

func (c *Composer) Viewport() (width, height int) { return c.width, c.height }
func (c *Composer) Projection() core.Mat4         { return c.proj }
func (c *Composer) Catalog() *kb.Catalog          { return c.catalog }

// View returns the view transform used by the most recent Render.
func (c *Composer) View() core.Mat4 { return c.view }

// Render clears fb and draws the whole scene at simulation time t. Every
// body is posed from the same t. The view is rebuilt from the camera each
// frame.
func (c *Composer) Render(fb *render.Framebuffer, t float64) Frame {
	fb.Clear(c.background)
	r := render.NewRasterizer(fb)
	c.view = c.opts.Camera.View()
	vp := c.proj.Mul(c.view)

	bodies := c.catalog.Bodies()
	frame := Frame{
		T:     t,
		Sun:   c.sunPose(t),
		Poses: core.Poses(c.opts.Motion, bodies, t),
	}

	sunWorld := core.Translation(frame.Sun.Position).Mul(core.Scaling(c.opts.SunRadius))
	frame.Triangles += r.DrawTriangles(c.sun, vp.Mul(sunWorld), sunWorld, c.opts.SunColor, true)

	for i, b := range bodies {
		a, semiMinor := c.opts.Motion.Ellipse(b)
		orbitWorld := core.Translation(frame.Sun.Position).Mul(core.ScalingXYZ(a, 1, semiMinor))
		frame.Segments += r.DrawLineLoop(c.orbit, vp.Mul(orbitWorld), c.opts.OrbitColor)

		pos := frame.Sun.Position.Add(frame.Poses[i].Position)
		world := core.Translation(pos).Mul(core.Scaling(b.Radius))
		frame.Triangles += r.DrawTriangles(c.body, vp.Mul(world), world, b.Color, false)
	}
	return frame
}

func (c *Composer) sunPose(t float64) core.BodyPose {
	if c.opts.Sun == nil {
		return core.BodyPose{}
	}
	return c.opts.Sun.Pose(model.OrbitalBody{Name: "Sun"}, t)
}
