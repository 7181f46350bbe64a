package geometry

import (
	"github.com/Faultbox/prism/internal/errs"
	pmath "github.com/Faultbox/prism/pkg/math"
)

// Decode reads one stride-sized block of the given kind back into a
// primitive. It is the consumer side of the buffer layout.
func Decode(kind Kind, block []float32) (Primitive, error) {
	var (
		p   Primitive
		err error
	)
	switch kind {
	case KindSphere:
		p, err = DecodeSphere(block)
	case KindCylinder:
		p, err = DecodeCylinder(block)
	case KindCone:
		p, err = DecodeCone(block)
	case KindMesh:
		p, err = DecodeMesh(block)
	default:
		return nil, errs.Validation("kind", "unknown primitive kind %v", kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeSphere reads a SphereSize block.
func DecodeSphere(block []float32) (*Sphere, error) {
	ts, mat, err := decodeIdentity(KindSphere, block)
	if err != nil {
		return nil, err
	}
	return NewSphere(vec3At(block, 0), block[3], mat, WithTimestamp(ts))
}

// DecodeCylinder reads a CylinderSize block.
func DecodeCylinder(block []float32) (*Cylinder, error) {
	ts, mat, err := decodeIdentity(KindCylinder, block)
	if err != nil {
		return nil, err
	}
	return NewCylinder(vec3At(block, 0), vec3At(block, 3), block[6], mat, WithTimestamp(ts))
}

// DecodeCone reads a ConeSize block.
func DecodeCone(block []float32) (*Cone, error) {
	ts, mat, err := decodeIdentity(KindCone, block)
	if err != nil {
		return nil, err
	}
	return NewCone(vec3At(block, 0), vec3At(block, 3), block[6], block[7], mat, WithTimestamp(ts))
}

// DecodeMesh reads a MeshSize block.
func DecodeMesh(block []float32) (*MeshRef, error) {
	ts, mat, err := decodeIdentity(KindMesh, block)
	if err != nil {
		return nil, err
	}
	var idx [3]int
	for i := range idx {
		v, err := floatToIndex("mesh", block[i])
		if err != nil {
			return nil, err
		}
		idx[i] = v
	}
	return NewMeshRef(idx[0], idx[1], idx[2], mat, WithTimestamp(ts))
}

// decodeIdentity checks the block length and reads the trailing
// (timestamp, materialID) pair.
func decodeIdentity(kind Kind, block []float32) (float32, int, error) {
	size := SerializationSize(kind)
	if len(block) != size {
		return 0, 0, errs.Encodingf("decode "+kind.String(), "block has %d floats, stride is %d", len(block), size)
	}
	mat, err := floatToIndex(kind.String()+" material id", block[size-1])
	if err != nil {
		return 0, 0, err
	}
	return block[size-2], mat, nil
}

func floatToIndex(field string, f float32) (int, error) {
	if !pmath.IsFinite(f) || f < 0 || f > MaxIndex || float32(int(f)) != f {
		return 0, errs.Validation(field, "%v is not an integer index", f)
	}
	return int(f), nil
}

func vec3At(block []float32, off int) pmath.Vec3 {
	return pmath.Vec3{X: block[off], Y: block[off+1], Z: block[off+2]}
}
