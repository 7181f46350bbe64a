package geometry

import (
	"github.com/Faultbox/prism/internal/errs"
)

// MeshSize is the mesh reference stride:
// meshIndex, firstTriangle, triangleCount, timestamp, materialID.
const MeshSize = 5

// MeshRef points at a triangle range of a mesh uploaded separately by the
// renderer. The triangles themselves are not serialized here.
type MeshRef struct {
	primitive
	meshIndex     int
	firstTriangle int
	triangleCount int
}

// NewMeshRef creates a reference to triangleCount triangles of mesh meshIndex
// starting at firstTriangle.
func NewMeshRef(meshIndex, firstTriangle, triangleCount, materialID int, opts ...Option) (*MeshRef, error) {
	if err := checkIndex("mesh index", meshIndex); err != nil {
		return nil, err
	}
	if err := checkIndex("mesh first triangle", firstTriangle); err != nil {
		return nil, err
	}
	if triangleCount <= 0 || triangleCount > MaxIndex {
		return nil, errs.Validation("mesh triangle count", "%d outside [1, %d]", triangleCount, MaxIndex)
	}
	p, err := newPrimitive(materialID, opts)
	if err != nil {
		return nil, err
	}
	return &MeshRef{
		primitive:     p,
		meshIndex:     meshIndex,
		firstTriangle: firstTriangle,
		triangleCount: triangleCount,
	}, nil
}

// MeshIndex returns the referenced mesh.
func (m *MeshRef) MeshIndex() int { return m.meshIndex }

// FirstTriangle returns the first referenced triangle.
func (m *MeshRef) FirstTriangle() int { return m.firstTriangle }

// TriangleCount returns the number of referenced triangles.
func (m *MeshRef) TriangleCount() int { return m.triangleCount }

// Kind returns KindMesh.
func (m *MeshRef) Kind() Kind { return KindMesh }

// SerializationSize returns MeshSize.
func (m *MeshRef) SerializationSize() int { return MeshSize }

// SerializeData appends the mesh reference block to dst.
func (m *MeshRef) SerializeData(dst *[]float32) (int, error) {
	if m == nil {
		return 0, errs.Encodingf("serialize "+KindMesh.String(), "nil primitive")
	}
	ts, mat := m.identity()
	block := [MeshSize]float32{
		float32(m.meshIndex), float32(m.firstTriangle), float32(m.triangleCount),
		ts, mat,
	}
	return m.appendBlock(KindMesh, dst, block[:])
}

func checkIndex(field string, v int) error {
	if v < 0 || v > MaxIndex {
		return errs.Validation(field, "%d outside [0, %d]", v, MaxIndex)
	}
	return nil
}
