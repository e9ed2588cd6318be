package core

import (
	"math"

	"github.com/signalsfoundry/orrery/model"
)

const (
	// DefaultAUToUnits compresses distances: 1 AU is 2 scene units.
	DefaultAUToUnits = 2.0
	// DefaultSimYearSeconds compresses time: one Earth year lasts 20 seconds.
	DefaultSimYearSeconds = 20.0
	// DaysPerYear converts orbital periods in days to Earth years.
	DaysPerYear = 365.0
)

// BodyPose is a body's orbital phase and scene position at one instant.
type BodyPose struct {
	Angle    float64
	Position Vec3
}

// MotionModel maps a body and an elapsed simulation time in seconds to a pose.
type MotionModel interface {
	Pose(b model.OrbitalBody, t float64) BodyPose
}

// StaticMotionModel keeps a body at a fixed position, used for the
// central body.
type StaticMotionModel struct {
	At Vec3
}

// Pose for static motion ignores both the body and the time.
func (m StaticMotionModel) Pose(model.OrbitalBody, float64) BodyPose {
	return BodyPose{Position: m.At}
}

// OrbitalMotionModel moves bodies around a center-parameterized ellipse in
// the y=0 plane at a uniform rate in the ellipse parameter. This is not
// Keplerian motion: the focus offset and the varying orbital speed are
// both ignored.
//
// Eccentricity must be in [0,1); the model does not check it.
type OrbitalMotionModel struct {
	AUToUnits      float64
	SimYearSeconds float64
}

// NewOrbitalMotionModel returns a model with the default scale constants.
func NewOrbitalMotionModel() OrbitalMotionModel {
	return OrbitalMotionModel{
		AUToUnits:      DefaultAUToUnits,
		SimYearSeconds: DefaultSimYearSeconds,
	}
}

// Ellipse returns the scaled semi-major and semi-minor axes of b's orbit.
func (m OrbitalMotionModel) Ellipse(b model.OrbitalBody) (a, semiMinor float64) {
	a = b.SemiMajorAxisAU * m.AUToUnits
	semiMinor = a * math.Sqrt(1-b.Eccentricity*b.Eccentricity)
	return a, semiMinor
}

// AngularVelocity returns b's rate in radians per simulation second. A body
// with a one-year period completes a revolution in exactly SimYearSeconds.
func (m OrbitalMotionModel) AngularVelocity(b model.OrbitalBody) float64 {
	yearsPerOrbit := b.PeriodDays / DaysPerYear
	return (2 * math.Pi) / (yearsPerOrbit * m.SimYearSeconds)
}

// Pose returns b's phase and position t seconds after the simulation began.
// The angle grows without bound; cos/sin handle the wraparound.
func (m OrbitalMotionModel) Pose(b model.OrbitalBody, t float64) BodyPose {
	a, semiMinor := m.Ellipse(b)
	angle := t * m.AngularVelocity(b)
	return BodyPose{
		Angle: angle,
		Position: Vec3{
			X: a * math.Cos(angle),
			Y: 0,
			Z: semiMinor * math.Sin(angle),
		},
	}
}

// Poses computes the pose of every body for a single timestamp, so all
// bodies in a frame share the same instant.
func Poses(mm MotionModel, bodies []model.OrbitalBody, t float64) []BodyPose {
	out := make([]BodyPose, len(bodies))
	for i, b := range bodies {
		out[i] = mm.Pose(b, t)
	}
	return out
}
