package geometry

import (
	"github.com/Faultbox/prism/internal/errs"
	pmath "github.com/Faultbox/prism/pkg/math"
)

// ConeSize is the cone stride:
// center.xyz, up.xyz, centerRadius, upRadius, timestamp, materialID.
const ConeSize = 10

// Cone is a truncated cone between two points. Either radius may be zero,
// not both.
type Cone struct {
	primitive
	center       pmath.Vec3
	up           pmath.Vec3
	centerRadius float32
	upRadius     float32
}

// NewCone creates a cone from center to up.
func NewCone(center, up pmath.Vec3, centerRadius, upRadius float32, materialID int, opts ...Option) (*Cone, error) {
	if err := checkAxis("cone", center, up); err != nil {
		return nil, err
	}
	if err := checkRadius("cone center radius", centerRadius, true); err != nil {
		return nil, err
	}
	if err := checkRadius("cone up radius", upRadius, true); err != nil {
		return nil, err
	}
	if centerRadius == 0 && upRadius == 0 {
		return nil, errs.Validation("cone radius", "both radii are zero")
	}
	p, err := newPrimitive(materialID, opts)
	if err != nil {
		return nil, err
	}
	return &Cone{
		primitive:    p,
		center:       center,
		up:           up,
		centerRadius: centerRadius,
		upRadius:     upRadius,
	}, nil
}

// Center returns the base point.
func (c *Cone) Center() pmath.Vec3 { return c.center }

// Up returns the top point.
func (c *Cone) Up() pmath.Vec3 { return c.up }

// CenterRadius returns the radius at the base point.
func (c *Cone) CenterRadius() float32 { return c.centerRadius }

// UpRadius returns the radius at the top point.
func (c *Cone) UpRadius() float32 { return c.upRadius }

// Kind returns KindCone.
func (c *Cone) Kind() Kind { return KindCone }

// SerializationSize returns ConeSize.
func (c *Cone) SerializationSize() int { return ConeSize }

// SerializeData appends the cone block to dst.
func (c *Cone) SerializeData(dst *[]float32) (int, error) {
	if c == nil {
		return 0, errs.Encodingf("serialize "+KindCone.String(), "nil primitive")
	}
	ts, mat := c.identity()
	block := [ConeSize]float32{
		c.center.X, c.center.Y, c.center.Z,
		c.up.X, c.up.Y, c.up.Z,
		c.centerRadius, c.upRadius,
		ts, mat,
	}
	return c.appendBlock(KindCone, dst, block[:])
}
