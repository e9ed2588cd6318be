package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/orrery/model"
)

// catalogJSON is the on-disk catalog shape. It is kept separate from
// model.OrbitalBody so the file format can evolve on its own.
type catalogJSON struct {
	Bodies []bodyJSON `json:"bodies"`
}

type bodyJSON struct {
	Name            string    `json:"name"`
	SemiMajorAxisAU float64   `json:"semiMajorAxisAU"`
	Eccentricity    float64   `json:"eccentricity"`
	PeriodDays      float64   `json:"periodDays"`
	Radius          float64   `json:"radius"`
	Color           colorJSON `json:"color"`
}

// colorJSON accepts either {"r":..,"g":..,"b":..} with unit components or a
// "#rrggbb" hex string.
type colorJSON model.RGB

func (c *colorJSON) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		col, err := colorful.Hex(s)
		if err != nil {
			return fmt.Errorf("color %q: %w", s, err)
		}
		*c = colorJSON{R: col.R, G: col.G, B: col.B}
		return nil
	}
	var rgb model.RGB
	if err := json.Unmarshal(data, &rgb); err != nil {
		return err
	}
	*c = colorJSON(rgb)
	return nil
}

// LoadCatalog reads a JSON catalog from r and validates it the same way
// NewCatalog does. Unknown fields are rejected so typos surface early.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var payload catalogJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadCatalog: decode failed: %w", err)
	}

	bodies := make([]model.OrbitalBody, 0, len(payload.Bodies))
	for _, b := range payload.Bodies {
		bodies = append(bodies, model.OrbitalBody{
			Name:            b.Name,
			SemiMajorAxisAU: b.SemiMajorAxisAU,
			Eccentricity:    b.Eccentricity,
			PeriodDays:      b.PeriodDays,
			Radius:          b.Radius,
			Color:           model.RGB(b.Color),
		})
	}
	return NewCatalog(bodies...)
}

// LoadCatalogFile opens path and calls LoadCatalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}
