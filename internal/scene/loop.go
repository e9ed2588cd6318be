package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/render"
	"github.com/signalsfoundry/orrery/internal/surface"
	"github.com/signalsfoundry/orrery/timectrl"
)

// DefaultStatusEvery is the number of frames between status log lines.
const DefaultStatusEvery = 300

// Loop drives the composer against a surface until the context is cancelled
// or the surface asks to close.
type Loop struct {
	Composer *Composer
	Surface  surface.Surface
	Clock    timectrl.SimClock
	Metrics  *observability.RenderCollector
	Log      logging.Logger
	Title    string

	// Epoch and SimYearSeconds anchor the compressed calendar shown in
	// status logs.
	Epoch          time.Time
	SimYearSeconds float64
	// StatusEvery controls status logging; zero uses DefaultStatusEvery and a
	// negative value disables it.
	StatusEvery int
}

// Run renders frames until shutdown and returns how many were presented.
// Cancellation is a normal exit; only surface failures are errors.
func (l *Loop) Run(ctx context.Context) (int, error) {
	if l.Composer == nil || l.Surface == nil || l.Clock == nil {
		return 0, errors.New("scene loop is missing a collaborator")
	}
	log := l.Log
	if log == nil {
		log = logging.LoggerFromContext(ctx)
	}
	statusEvery := l.StatusEvery
	if statusEvery == 0 {
		statusEvery = DefaultStatusEvery
	}

	width, height := l.Surface.Size()
	fb := render.NewFramebuffer(width, height)
	l.resize(ctx, log, fb, width, height)
	l.Surface.SetResizeCallback(func(w, h int) { l.resize(ctx, log, fb, w, h) })
	l.Metrics.SetBodies(l.Composer.Catalog().Len())

	log.Info(ctx, "solar system simulation starting",
		logging.String("title", l.Title),
		logging.Int("bodies", l.Composer.Catalog().Len()),
		logging.Int("width", width),
		logging.Int("height", height),
	)

	stepper, _ := l.Clock.(timectrl.Stepper)
	frames := 0
	t := 0.0
	var runErr error
	for ctx.Err() == nil && !l.Surface.ShouldClose() {
		t = l.Clock.Elapsed()

		frameCtx, span := observability.StartFrameSpan(ctx, uint64(frames), t)
		start := time.Now()
		frame := l.Composer.Render(fb, t)
		l.Metrics.ObserveFrame(time.Since(start), t)

		err := l.Surface.Present(frameCtx, fb)
		span.End()
		if err != nil {
			if ctx.Err() == nil {
				runErr = fmt.Errorf("present frame %d: %w", frames, err)
			}
			break
		}
		frames++
		l.Surface.PollEvents()
		if stepper != nil {
			stepper.Step()
		}

		if statusEvery > 0 && frames%statusEvery == 0 {
			log.Debug(ctx, "frame status",
				logging.Int("frame", frames),
				logging.Float64("sim_seconds", t),
				logging.Float64("julian_day", timectrl.SimulatedJulianDay(l.Epoch, t, l.SimYearSeconds)),
				logging.Int("triangles", frame.Triangles),
			)
		}
	}

	fields := []logging.Field{
		logging.Int("frames", frames),
		logging.Float64("sim_seconds", t),
	}
	if !l.Epoch.IsZero() {
		fields = append(fields, logging.String("sim_date",
			timectrl.SimulatedDate(l.Epoch, t, l.SimYearSeconds).Format(time.DateOnly)))
	}
	if runErr != nil {
		log.Error(ctx, "frame loop failed", append(fields, logging.Err(runErr))...)
	}
	log.Info(ctx, "solar system simulation finished", fields...)
	return frames, runErr
}

func (l *Loop) resize(ctx context.Context, log logging.Logger, fb *render.Framebuffer, width, height int) {
	fb.Resize(width, height)
	l.Composer.Resize(width, height)
	l.Metrics.SetViewport(width, height)
	log.Debug(ctx, "viewport resized", logging.Int("width", width), logging.Int("height", height))
}
