package model

import (
	"math"
	"testing"
)

func earth() OrbitalBody {
	return OrbitalBody{
		Name:            "Earth",
		SemiMajorAxisAU: 1.0,
		Eccentricity:    0.0167,
		PeriodDays:      365.25,
		Radius:          0.35,
		Color:           RGB{R: 0.2, G: 0.4, B: 1.0},
	}
}

func TestOrbitalBodyValidate(t *testing.T) {
	if err := earth().Validate(); err != nil {
		t.Fatalf("Validate(earth) = %v, want nil", err)
	}

	circular := earth()
	circular.Eccentricity = 0
	if err := circular.Validate(); err != nil {
		t.Fatalf("circular orbit rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(b *OrbitalBody)
	}{
		{"empty name", func(b *OrbitalBody) { b.Name = "" }},
		{"zero axis", func(b *OrbitalBody) { b.SemiMajorAxisAU = 0 }},
		{"negative axis", func(b *OrbitalBody) { b.SemiMajorAxisAU = -1 }},
		{"infinite axis", func(b *OrbitalBody) { b.SemiMajorAxisAU = math.Inf(1) }},
		{"parabolic", func(b *OrbitalBody) { b.Eccentricity = 1 }},
		{"negative eccentricity", func(b *OrbitalBody) { b.Eccentricity = -0.1 }},
		{"nan eccentricity", func(b *OrbitalBody) { b.Eccentricity = math.NaN() }},
		{"zero period", func(b *OrbitalBody) { b.PeriodDays = 0 }},
		{"nan period", func(b *OrbitalBody) { b.PeriodDays = math.NaN() }},
		{"zero radius", func(b *OrbitalBody) { b.Radius = 0 }},
		{"color out of range", func(b *OrbitalBody) { b.Color.G = 1.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := earth()
			tc.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Fatalf("Validate accepted %+v", b)
			}
		})
	}
}

func TestRGBValid(t *testing.T) {
	cases := []struct {
		c    RGB
		want bool
	}{
		{RGB{}, true},
		{RGB{R: 1, G: 1, B: 1}, true},
		{RGB{R: 0.5, G: -0.01, B: 0}, false},
		{RGB{R: 0, G: 0, B: 1.01}, false},
		{RGB{R: math.NaN()}, false},
	}
	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Fatalf("%+v.Valid() = %v, want %v", tc.c, got, tc.want)
		}
	}
}
