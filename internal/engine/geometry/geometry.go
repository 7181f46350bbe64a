// Package geometry provides renderable primitives that serialize themselves
// into flat float32 buffers with a fixed stride per variant.
//
// Blocks carry no type tag. A consumer must know which Kind a buffer region
// holds and step through it with SerializationSize(kind).
package geometry

import (
	"fmt"

	"github.com/Faultbox/prism/internal/errs"
	pmath "github.com/Faultbox/prism/pkg/math"
)

// MaxIndex is the largest material ID or mesh index that survives a
// float32 slot without rounding (2^24).
const MaxIndex = 1 << 24

// Geometry is anything that can be serialized into the shared float buffer.
type Geometry interface {
	// SerializeData appends exactly SerializationSize() floats to dst and
	// returns the count. On failure dst is left unchanged.
	SerializeData(dst *[]float32) (int, error)
	// SerializationSize is the stride of the concrete variant.
	SerializationSize() int
}

// Primitive is one renderable geometric object instance.
type Primitive interface {
	Geometry
	MaterialID() int
	Timestamp() float32
	Kind() Kind
}

// Kind identifies a concrete primitive variant.
type Kind int

// Primitive variants.
const (
	KindSphere Kind = iota
	KindCylinder
	KindCone
	KindMesh

	kindCount
)

// Kinds returns every variant in buffer order.
func Kinds() []Kind {
	return []Kind{KindSphere, KindCylinder, KindCone, KindMesh}
}

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindCone:
		return "cone"
	case KindMesh:
		return "mesh"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k names a known variant.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// SerializationSize returns the stride of a variant without an instance.
// Unknown kinds report 0.
func SerializationSize(k Kind) int {
	switch k {
	case KindSphere:
		return SphereSize
	case KindCylinder:
		return CylinderSize
	case KindCone:
		return ConeSize
	case KindMesh:
		return MeshSize
	default:
		return 0
	}
}

// Option configures the identity fields shared by all primitives.
type Option func(*primitive)

// WithTimestamp sets the primitive's time coordinate. Defaults to 0.
func WithTimestamp(ts float32) Option {
	return func(p *primitive) {
		p.timestamp = ts
	}
}

// primitive holds the identity shared by every variant. It is immutable once
// built by newPrimitive.
type primitive struct {
	materialID int
	timestamp  float32
	built      bool
}

func newPrimitive(materialID int, opts []Option) (primitive, error) {
	p := primitive{materialID: materialID}
	for _, opt := range opts {
		opt(&p)
	}
	if materialID < 0 || materialID > MaxIndex {
		return primitive{}, errs.Validation("material id", "%d outside [0, %d]", materialID, MaxIndex)
	}
	if !pmath.IsFinite(p.timestamp) {
		return primitive{}, errs.Validation("timestamp", "must be finite, got %v", p.timestamp)
	}
	p.built = true
	return p, nil
}

// MaterialID returns the key into the external material table.
func (p primitive) MaterialID() int { return p.materialID }

// Timestamp returns the primitive's time coordinate in scene units.
func (p primitive) Timestamp() float32 { return p.timestamp }

// appendBlock is the single write path for all variants: it appends the
// whole block or nothing.
func (p *primitive) appendBlock(kind Kind, dst *[]float32, block []float32) (int, error) {
	op := "serialize " + kind.String()
	if dst == nil {
		return 0, errs.Encodingf(op, "nil destination")
	}
	if !p.built {
		return 0, errs.Encodingf(op, "primitive was not constructed")
	}
	if len(block) != SerializationSize(kind) {
		return 0, errs.Encodingf(op, "block has %d floats, stride is %d", len(block), SerializationSize(kind))
	}
	*dst = append(*dst, block...)
	return len(block), nil
}

// identity returns the trailing (timestamp, materialID) pair of every block.
func (p *primitive) identity() (float32, float32) {
	return p.timestamp, float32(p.materialID)
}

func checkPoint(field string, v pmath.Vec3) error {
	if !v.IsFinite() {
		return errs.Validation(field, "must be finite, got %v", v)
	}
	return nil
}

func checkRadius(field string, r float32, allowZero bool) error {
	if !pmath.IsFinite(r) {
		return errs.Validation(field, "must be finite, got %v", r)
	}
	if r < 0 || (r == 0 && !allowZero) {
		return errs.Validation(field, "must be positive, got %v", r)
	}
	return nil
}
