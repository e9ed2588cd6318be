package model

import (
	"fmt"
	"math"
)

// RGB is a display color with each component in [0,1].
type RGB struct {
	R float64 `json:"r" mapstructure:"r"`
	G float64 `json:"g" mapstructure:"g"`
	B float64 `json:"b" mapstructure:"b"`
}

// Valid reports whether every component is finite and within [0,1].
func (c RGB) Valid() bool {
	for _, v := range [3]float64{c.R, c.G, c.B} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// OrbitalBody describes one body orbiting the central body on a fixed,
// center-parameterized ellipse. Values are copied, never mutated.
type OrbitalBody struct {
	Name string `json:"name" mapstructure:"name"`

	// SemiMajorAxisAU is the orbit's semi-major axis in astronomical units.
	SemiMajorAxisAU float64 `json:"semiMajorAxisAU" mapstructure:"semiMajorAxisAU"`
	// Eccentricity must lie in [0,1) so the semi-minor axis stays real and positive.
	Eccentricity float64 `json:"eccentricity" mapstructure:"eccentricity"`
	// PeriodDays is the real-world orbital period in days.
	PeriodDays float64 `json:"periodDays" mapstructure:"periodDays"`

	// Radius is the render radius in scene units.
	Radius float64 `json:"radius" mapstructure:"radius"`
	Color  RGB     `json:"color" mapstructure:"color"`
}

// Validate checks the body against the orbital contract. The motion model
// itself does not re-check these values.
func (b OrbitalBody) Validate() error {
	switch {
	case b.Name == "":
		return fmt.Errorf("empty body name")
	case !(b.SemiMajorAxisAU > 0) || math.IsInf(b.SemiMajorAxisAU, 0):
		return fmt.Errorf("body %q: semi-major axis must be positive, got %v", b.Name, b.SemiMajorAxisAU)
	case !(b.Eccentricity >= 0 && b.Eccentricity < 1):
		return fmt.Errorf("body %q: eccentricity must be in [0,1), got %v", b.Name, b.Eccentricity)
	case !(b.PeriodDays > 0) || math.IsInf(b.PeriodDays, 0):
		return fmt.Errorf("body %q: period must be positive, got %v", b.Name, b.PeriodDays)
	case !(b.Radius > 0):
		return fmt.Errorf("body %q: radius must be positive, got %v", b.Name, b.Radius)
	case !b.Color.Valid():
		return fmt.Errorf("body %q: color components must be in [0,1], got %+v", b.Name, b.Color)
	}
	return nil
}
