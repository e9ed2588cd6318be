package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/orrery/model"
)

const eps = 1e-9

func body(name string, aAU, e, periodDays float64) model.OrbitalBody {
	return model.OrbitalBody{
		Name:            name,
		SemiMajorAxisAU: aAU,
		Eccentricity:    e,
		PeriodDays:      periodDays,
		Radius:          0.1,
		Color:           model.RGB{R: 1, G: 1, B: 1},
	}
}

func planets() []model.OrbitalBody {
	return []model.OrbitalBody{
		body("Mercury", 0.387, 0.2056, 88.0),
		body("Venus", 0.723, 0.0068, 224.7),
		body("Earth", 1.0, 0.0167, 365.25),
		body("Mars", 1.524, 0.0934, 687.0),
		body("Jupiter", 5.203, 0.0484, 4331.0),
		body("Neptune", 30.068, 0.0086, 60190.0),
		body("Eccentric", 3.0, 0.95, 1200.0),
		body("Circle", 2.0, 0, 500.0),
	}
}

func TestStaticMotionModel_NoChange(t *testing.T) {
	m := StaticMotionModel{}
	b := body("Sun", 1, 0, 1)

	for _, ts := range []float64{0, 1, 1e6} {
		pose := m.Pose(b, ts)
		if pose.Position != (Vec3{}) || pose.Angle != 0 {
			t.Fatalf("static motion should stay at origin, got %+v at t=%v", pose, ts)
		}
	}
}

func TestEllipseSemiMinorAxisIsPositiveAndBounded(t *testing.T) {
	m := NewOrbitalMotionModel()
	for _, b := range planets() {
		a, semiMinor := m.Ellipse(b)
		if math.IsNaN(semiMinor) || semiMinor <= 0 {
			t.Fatalf("%s: semi-minor axis %v not real and positive", b.Name, semiMinor)
		}
		if semiMinor > a {
			t.Fatalf("%s: semi-minor axis %v exceeds semi-major %v", b.Name, semiMinor, a)
		}
		if want := b.SemiMajorAxisAU * DefaultAUToUnits; math.Abs(a-want) > eps {
			t.Fatalf("%s: a = %v, want %v", b.Name, a, want)
		}
	}
}

func TestOneYearBodyCompletesOneRevolution(t *testing.T) {
	m := NewOrbitalMotionModel()
	b := body("Year", 1, 0.3, DaysPerYear)

	start := m.Pose(b, 0)
	end := m.Pose(b, m.SimYearSeconds)

	if got := end.Angle - start.Angle; math.Abs(got-2*math.Pi) > eps {
		t.Fatalf("angle advanced %v over one simulated year, want 2π", got)
	}
	if d := end.Position.DistanceTo(start.Position); d > 1e-9 {
		t.Fatalf("body did not return to its start position: distance %v", d)
	}
}

func TestAngularVelocityRatioIsInversePeriodRatio(t *testing.T) {
	scales := []OrbitalMotionModel{
		NewOrbitalMotionModel(),
		{AUToUnits: 10, SimYearSeconds: 3},
		{AUToUnits: 0.5, SimYearSeconds: 600},
	}
	ps := planets()
	for _, m := range scales {
		for i := range ps {
			for j := range ps {
				got := m.AngularVelocity(ps[i]) / m.AngularVelocity(ps[j])
				want := ps[j].PeriodDays / ps[i].PeriodDays
				if math.Abs(got-want) > 1e-12*math.Max(1, want) {
					t.Fatalf("ω(%s)/ω(%s) = %v, want %v (scale %+v)", ps[i].Name, ps[j].Name, got, want, m)
				}
			}
		}
	}
}

func TestPoseAtZeroIsOnSemiMajorAxis(t *testing.T) {
	m := NewOrbitalMotionModel()
	for _, b := range planets() {
		a, _ := m.Ellipse(b)
		pose := m.Pose(b, 0)
		want := Vec3{X: a}
		if pose.Angle != 0 || pose.Position != want {
			t.Fatalf("%s: pose at t=0 = %+v, want position %+v", b.Name, pose, want)
		}
	}
}

func TestPoseStaysOnEllipse(t *testing.T) {
	m := NewOrbitalMotionModel()
	for _, b := range planets() {
		a, semiMinor := m.Ellipse(b)
		for _, ts := range []float64{0.01, 0.5, 3, 17.25, 123.4, 9999.9, 1e5} {
			p := m.Pose(b, ts).Position
			if p.Y != 0 {
				t.Fatalf("%s: y = %v, orbits must lie in y=0", b.Name, p.Y)
			}
			lhs := (p.X/a)*(p.X/a) + (p.Z/semiMinor)*(p.Z/semiMinor)
			if math.Abs(lhs-1) > 1e-9 {
				t.Fatalf("%s at t=%v: (x/a)^2+(z/b)^2 = %v, want 1", b.Name, ts, lhs)
			}
		}
	}
}

func TestPoseAngleIsUnbounded(t *testing.T) {
	m := NewOrbitalMotionModel()
	b := body("Fast", 0.4, 0.2, 36.5)
	pose := m.Pose(b, 100)
	if pose.Angle <= 2*math.Pi {
		t.Fatalf("expected angle past one revolution, got %v", pose.Angle)
	}
}

func TestPosesSharesTimestamp(t *testing.T) {
	m := NewOrbitalMotionModel()
	ps := planets()
	got := Poses(m, ps, 7.5)
	if len(got) != len(ps) {
		t.Fatalf("Poses returned %d entries, want %d", len(got), len(ps))
	}
	for i, b := range ps {
		if want := m.Pose(b, 7.5); got[i] != want {
			t.Fatalf("%s: Poses()[%d] = %+v, want %+v", b.Name, i, got[i], want)
		}
	}
}
