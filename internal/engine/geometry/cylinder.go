package geometry

import (
	"github.com/Faultbox/prism/internal/errs"
	pmath "github.com/Faultbox/prism/pkg/math"
)

// CylinderSize is the cylinder stride:
// center.xyz, up.xyz, radius, timestamp, materialID.
const CylinderSize = 9

// Cylinder is a capped cylinder between two points.
type Cylinder struct {
	primitive
	center pmath.Vec3
	up     pmath.Vec3
	radius float32
}

// NewCylinder creates a cylinder from center to up. The endpoints must differ
// and the radius must be positive.
func NewCylinder(center, up pmath.Vec3, radius float32, materialID int, opts ...Option) (*Cylinder, error) {
	if err := checkAxis("cylinder", center, up); err != nil {
		return nil, err
	}
	if err := checkRadius("cylinder radius", radius, false); err != nil {
		return nil, err
	}
	p, err := newPrimitive(materialID, opts)
	if err != nil {
		return nil, err
	}
	return &Cylinder{primitive: p, center: center, up: up, radius: radius}, nil
}

// Center returns the base point.
func (c *Cylinder) Center() pmath.Vec3 { return c.center }

// Up returns the top point.
func (c *Cylinder) Up() pmath.Vec3 { return c.up }

// Radius returns the cylinder radius.
func (c *Cylinder) Radius() float32 { return c.radius }

// Kind returns KindCylinder.
func (c *Cylinder) Kind() Kind { return KindCylinder }

// SerializationSize returns CylinderSize.
func (c *Cylinder) SerializationSize() int { return CylinderSize }

// SerializeData appends the cylinder block to dst.
func (c *Cylinder) SerializeData(dst *[]float32) (int, error) {
	if c == nil {
		return 0, errs.Encodingf("serialize "+KindCylinder.String(), "nil primitive")
	}
	ts, mat := c.identity()
	block := [CylinderSize]float32{
		c.center.X, c.center.Y, c.center.Z,
		c.up.X, c.up.Y, c.up.Z,
		c.radius,
		ts, mat,
	}
	return c.appendBlock(KindCylinder, dst, block[:])
}

func checkAxis(shape string, center, up pmath.Vec3) error {
	if err := checkPoint(shape+" center", center); err != nil {
		return err
	}
	if err := checkPoint(shape+" up", up); err != nil {
		return err
	}
	if center == up {
		return errs.Validation(shape+" axis", "center and up are the same point %v", center)
	}
	return nil
}
