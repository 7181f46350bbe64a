package geometry

import (
	"fmt"

	"github.com/Faultbox/prism/internal/errs"
)

// Group exclusively owns the primitives of one scene. Primitives of the same
// kind keep their insertion order, which is also their block order after
// serialization. A Group is not safe for concurrent mutation.
type Group struct {
	byKind [kindCount][]Primitive
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

// Add appends a primitive to the group.
func (g *Group) Add(p Primitive) error {
	if p == nil {
		return errs.Validation("primitive", "nil")
	}
	k := p.Kind()
	if !k.Valid() {
		return errs.Validation("kind", "unknown primitive kind %v", k)
	}
	g.byKind[k] = append(g.byKind[k], p)
	return nil
}

// Len returns the total number of primitives.
func (g *Group) Len() int {
	n := 0
	for _, ps := range g.byKind {
		n += len(ps)
	}
	return n
}

// Count returns the number of primitives of one kind.
func (g *Group) Count(k Kind) int {
	if !k.Valid() {
		return 0
	}
	return len(g.byKind[k])
}

// Primitives returns the primitives of one kind in insertion order.
// The returned slice must not be modified.
func (g *Group) Primitives(k Kind) []Primitive {
	if !k.Valid() {
		return nil
	}
	return g.byKind[k]
}

// Clear releases every primitive.
func (g *Group) Clear() {
	for k := range g.byKind {
		g.byKind[k] = nil
	}
}

// SerializeKind appends every primitive of kind k to dst and returns the
// number of floats written. On failure dst is restored to its original length.
func (g *Group) SerializeKind(k Kind, dst *[]float32) (int, error) {
	if dst == nil {
		return 0, errs.Encodingf("serialize "+k.String(), "nil destination")
	}
	stride := SerializationSize(k)
	ps := g.Primitives(k)
	start := len(*dst)
	if free := cap(*dst) - start; free < len(ps)*stride {
		grown := make([]float32, start, start+len(ps)*stride)
		copy(grown, *dst)
		*dst = grown
	}

	for i, p := range ps {
		n, err := p.SerializeData(dst)
		if err == nil && n != stride {
			err = errs.Encodingf("serialize "+k.String(), "wrote %d floats, stride is %d", n, stride)
		}
		if err != nil {
			*dst = (*dst)[:start]
			return 0, fmt.Errorf("%s %d: %w", k, i, err)
		}
	}
	return len(*dst) - start, nil
}

// Serialize writes every kind into its own flat buffer.
func (g *Group) Serialize() (*Buffers, error) {
	b := &Buffers{}
	for _, k := range Kinds() {
		if _, err := g.SerializeKind(k, &b.floats[k]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Buffers holds one untagged float buffer per primitive kind.
type Buffers struct {
	floats [kindCount][]float32
}

// Floats returns the flat buffer for kind k.
func (b *Buffers) Floats(k Kind) []float32 {
	if !k.Valid() {
		return nil
	}
	return b.floats[k]
}

// Stride returns the number of floats per primitive of kind k.
func (b *Buffers) Stride(k Kind) int {
	return SerializationSize(k)
}

// Count returns the number of blocks in the buffer for kind k.
func (b *Buffers) Count(k Kind) int {
	stride := SerializationSize(k)
	if stride == 0 {
		return 0
	}
	return len(b.Floats(k)) / stride
}

// Block returns the i-th block of kind k, or nil when i is out of range.
func (b *Buffers) Block(k Kind, i int) []float32 {
	if i < 0 || i >= b.Count(k) {
		return nil
	}
	stride := SerializationSize(k)
	return b.floats[k][i*stride : (i+1)*stride : (i+1)*stride]
}

// Total returns the number of floats across all kinds.
func (b *Buffers) Total() int {
	n := 0
	for _, f := range b.floats {
		n += len(f)
	}
	return n
}
