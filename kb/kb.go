package kb

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/orrery/model"
)

var (
	ErrInvalidBody   = errors.New("invalid orbital body")
	ErrDuplicateBody = errors.New("duplicate orbital body")
	ErrEmptyCatalog  = errors.New("catalog has no bodies")
)

// Catalog is the read-only, ordered set of bodies drawn each frame.
// Order is iteration order only. A Catalog is built once at startup and
// handed to the scene; nothing mutates it afterwards, so it needs no lock.
type Catalog struct {
	bodies []model.OrbitalBody
	byName map[string]int
}

// NewCatalog validates every body and returns an immutable catalog.
// It returns an error if a body breaks the orbital contract or a name
// appears twice.
func NewCatalog(bodies ...model.OrbitalBody) (*Catalog, error) {
	if len(bodies) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		bodies: make([]model.OrbitalBody, 0, len(bodies)),
		byName: make(map[string]int, len(bodies)),
	}
	for _, b := range bodies {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		if _, exists := c.byName[b.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBody, b.Name)
		}
		c.byName[b.Name] = len(c.bodies)
		c.bodies = append(c.bodies, b)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static data known to be valid.
func MustCatalog(bodies ...model.OrbitalBody) *Catalog {
	c, err := NewCatalog(bodies...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of bodies.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.bodies)
}

// Bodies returns a snapshot copy of the bodies in catalog order.
func (c *Catalog) Bodies() []model.OrbitalBody {
	if c == nil {
		return nil
	}
	return append([]model.OrbitalBody(nil), c.bodies...)
}

// At returns the i-th body in catalog order.
func (c *Catalog) At(i int) model.OrbitalBody {
	return c.bodies[i]
}

// Get returns the body with the given name.
func (c *Catalog) Get(name string) (model.OrbitalBody, bool) {
	if c == nil {
		return model.OrbitalBody{}, false
	}
	i, ok := c.byName[name]
	if !ok {
		return model.OrbitalBody{}, false
	}
	return c.bodies[i], true
}

// Names lists body names in catalog order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.bodies))
	for i, b := range c.bodies {
		names[i] = b.Name
	}
	return names
}
