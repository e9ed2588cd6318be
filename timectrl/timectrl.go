package timectrl

import (
	"errors"
	"fmt"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// SimClock supplies elapsed simulation seconds since the simulation began.
// The frame loop reads it once per frame.
type SimClock interface {
	Elapsed() float64
}

// Mode describes how simulation time advances.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances by a fixed Tick per frame, independent of how
	// long the frame took. Captures become deterministic.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// ErrUnknownMode is returned by ParseMode for anything other than
// "realtime" or "accelerated".
var ErrUnknownMode = errors.New("unknown clock mode")

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "realtime":
		return RealTime, nil
	case "accelerated":
		return Accelerated, nil
	default:
		return RealTime, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// WallClock measures elapsed wall-clock seconds from a start instant.
type WallClock struct {
	start time.Time
	now   func() time.Time
}

// NewWallClock starts a clock at the current instant.
func NewWallClock() *WallClock {
	return NewWallClockAt(time.Now(), time.Now)
}

// NewWallClockAt builds a clock with an explicit start and time source.
func NewWallClockAt(start time.Time, now func() time.Time) *WallClock {
	if now == nil {
		now = time.Now
	}
	return &WallClock{start: start, now: now}
}

// Elapsed returns seconds since start. Implements SimClock.
func (c *WallClock) Elapsed() float64 {
	return c.now().Sub(c.start).Seconds()
}

// Start returns the reference instant.
func (c *WallClock) Start() time.Time {
	return c.start
}

// TimeController advances simulation time by Tick on every Step and
// notifies registered listeners. It implements SimClock.
type TimeController struct {
	mu   sync.RWMutex
	Tick time.Duration

	elapsed   time.Duration
	listeners []func(elapsed time.Duration)
}

// NewTimeController constructs a controller at elapsed time zero.
func NewTimeController(tick time.Duration) *TimeController {
	return &TimeController{Tick: tick}
}

// Elapsed returns the current simulation time in seconds. Implements SimClock.
func (tc *TimeController) Elapsed() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.elapsed.Seconds()
}

// SetElapsed jumps the controller to the given simulation time.
func (tc *TimeController) SetElapsed(d time.Duration) {
	tc.mu.Lock()
	tc.elapsed = d
	tc.mu.Unlock()
}

// AddListener registers a callback invoked after every step.
func (tc *TimeController) AddListener(fn func(elapsed time.Duration)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Step advances simulation time by one Tick and returns the new elapsed time.
func (tc *TimeController) Step() time.Duration {
	tc.mu.Lock()
	tc.elapsed += tc.Tick
	elapsed := tc.elapsed
	listeners := append([]func(time.Duration){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(elapsed)
	}
	return elapsed
}

// New returns the clock for mode. Accelerated clocks also expose Step via
// the Stepper interface.
func New(mode Mode, tick time.Duration) SimClock {
	if mode == Accelerated {
		return NewTimeController(tick)
	}
	return NewWallClock()
}

// Stepper is implemented by clocks that advance once per frame rather than
// with the wall clock.
type Stepper interface {
	Step() time.Duration
}

const daysPerSimYear = 365.0

// SimulatedJulianDay returns the Julian day of the compressed calendar date
// reached after elapsed simulation seconds, starting from epoch, when one
// Earth year lasts simYearSeconds.
func SimulatedJulianDay(epoch time.Time, elapsed, simYearSeconds float64) float64 {
	e := epoch.UTC()
	jd := satellite.JDay(e.Year(), int(e.Month()), e.Day(), e.Hour(), e.Minute(), e.Second())
	if simYearSeconds <= 0 {
		return jd
	}
	return jd + elapsed/simYearSeconds*daysPerSimYear
}

// SimulatedDate converts elapsed simulation seconds into the compressed
// calendar date, starting from epoch.
func SimulatedDate(epoch time.Time, elapsed, simYearSeconds float64) time.Time {
	if simYearSeconds <= 0 {
		return epoch
	}
	days := elapsed / simYearSeconds * daysPerSimYear
	return epoch.Add(time.Duration(days * 24 * float64(time.Hour)))
}
