package kb

import "github.com/signalsfoundry/orrery/model"

// SolarSystemBodies returns the eight planets with real semi-major axes,
// eccentricities and periods, plus render radii and colors.
func SolarSystemBodies() []model.OrbitalBody {
	return []model.OrbitalBody{
		{Name: "Mercury", SemiMajorAxisAU: 0.387, Eccentricity: 0.2056, PeriodDays: 88.0, Radius: 0.12, Color: model.RGB{R: 0.7, G: 0.7, B: 0.7}},
		{Name: "Venus", SemiMajorAxisAU: 0.723, Eccentricity: 0.0068, PeriodDays: 224.7, Radius: 0.16, Color: model.RGB{R: 0.95, G: 0.8, B: 0.3}},
		{Name: "Earth", SemiMajorAxisAU: 1.000, Eccentricity: 0.0167, PeriodDays: 365.25, Radius: 0.17, Color: model.RGB{R: 0.2, G: 0.5, B: 1.0}},
		{Name: "Mars", SemiMajorAxisAU: 1.524, Eccentricity: 0.0934, PeriodDays: 687.0, Radius: 0.14, Color: model.RGB{R: 1.0, G: 0.4, B: 0.2}},
		{Name: "Jupiter", SemiMajorAxisAU: 5.203, Eccentricity: 0.0484, PeriodDays: 4331.0, Radius: 0.40, Color: model.RGB{R: 1.0, G: 0.8, B: 0.6}},
		{Name: "Saturn", SemiMajorAxisAU: 9.537, Eccentricity: 0.0542, PeriodDays: 10747.0, Radius: 0.35, Color: model.RGB{R: 0.95, G: 0.9, B: 0.6}},
		{Name: "Uranus", SemiMajorAxisAU: 19.191, Eccentricity: 0.0472, PeriodDays: 30589.0, Radius: 0.28, Color: model.RGB{R: 0.5, G: 0.85, B: 0.9}},
		{Name: "Neptune", SemiMajorAxisAU: 30.068, Eccentricity: 0.0086, PeriodDays: 60190.0, Radius: 0.28, Color: model.RGB{R: 0.35, G: 0.45, B: 1.0}},
	}
}

// SolarSystem returns the default catalog.
func SolarSystem() *Catalog {
	return MustCatalog(SolarSystemBodies()...)
}
