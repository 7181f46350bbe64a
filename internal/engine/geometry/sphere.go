package geometry

import (
	"github.com/Faultbox/prism/internal/errs"
	pmath "github.com/Faultbox/prism/pkg/math"
)

// SphereSize is the sphere stride:
// center.x, center.y, center.z, radius, timestamp, materialID.
const SphereSize = 6

// Sphere is a sphere primitive.
type Sphere struct {
	primitive
	center pmath.Vec3
	radius float32
}

// NewSphere creates a sphere. The radius must be positive.
func NewSphere(center pmath.Vec3, radius float32, materialID int, opts ...Option) (*Sphere, error) {
	if err := checkPoint("sphere center", center); err != nil {
		return nil, err
	}
	if err := checkRadius("sphere radius", radius, false); err != nil {
		return nil, err
	}
	p, err := newPrimitive(materialID, opts)
	if err != nil {
		return nil, err
	}
	return &Sphere{primitive: p, center: center, radius: radius}, nil
}

// Center returns the sphere center.
func (s *Sphere) Center() pmath.Vec3 { return s.center }

// Radius returns the sphere radius.
func (s *Sphere) Radius() float32 { return s.radius }

// Kind returns KindSphere.
func (s *Sphere) Kind() Kind { return KindSphere }

// SerializationSize returns SphereSize.
func (s *Sphere) SerializationSize() int { return SphereSize }

// SerializeData appends the sphere block to dst.
func (s *Sphere) SerializeData(dst *[]float32) (int, error) {
	if s == nil {
		return 0, errs.Encodingf("serialize "+KindSphere.String(), "nil primitive")
	}
	ts, mat := s.identity()
	block := [SphereSize]float32{
		s.center.X, s.center.Y, s.center.Z,
		s.radius,
		ts, mat,
	}
	return s.appendBlock(KindSphere, dst, block[:])
}
