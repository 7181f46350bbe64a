// Package scene loads YAML scene descriptions into geometry groups.
package scene

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/errs"
	pmath "github.com/Faultbox/prism/pkg/math"
)

// Description is the on-disk scene format.
type Description struct {
	Timestamp *float32     `yaml:"timestamp,omitempty"`
	Transform *Transform   `yaml:"transform,omitempty"`
	Spheres   []SphereDesc `yaml:"spheres,omitempty"`
	Cylinders []CylDesc    `yaml:"cylinders,omitempty"`
	Cones     []ConeDesc   `yaml:"cones,omitempty"`
	Meshes    []MeshDesc   `yaml:"meshes,omitempty"`
}

// Transform places every primitive of the scene. Scale is uniform so that
// radii stay radii.
type Transform struct {
	Translate [3]float32 `yaml:"translate"`
	RotateY   float32    `yaml:"rotate_y"` // degrees
	Scale     float32    `yaml:"scale"`
}

// SphereDesc describes a sphere.
type SphereDesc struct {
	Center    [3]float32 `yaml:"center"`
	Radius    float32    `yaml:"radius"`
	Material  int        `yaml:"material"`
	Timestamp *float32   `yaml:"timestamp,omitempty"`
}

// CylDesc describes a cylinder.
type CylDesc struct {
	Center    [3]float32 `yaml:"center"`
	Up        [3]float32 `yaml:"up"`
	Radius    float32    `yaml:"radius"`
	Material  int        `yaml:"material"`
	Timestamp *float32   `yaml:"timestamp,omitempty"`
}

// ConeDesc describes a cone.
type ConeDesc struct {
	Center       [3]float32 `yaml:"center"`
	Up           [3]float32 `yaml:"up"`
	CenterRadius float32    `yaml:"center_radius"`
	UpRadius     float32    `yaml:"up_radius"`
	Material     int        `yaml:"material"`
	Timestamp    *float32   `yaml:"timestamp,omitempty"`
}

// MeshDesc describes a mesh reference.
type MeshDesc struct {
	Mesh          int      `yaml:"mesh"`
	FirstTriangle int      `yaml:"first_triangle"`
	Triangles     int      `yaml:"triangles"`
	Material      int      `yaml:"material"`
	Timestamp     *float32 `yaml:"timestamp,omitempty"`
}

// Load reads a scene file. Primitives without a timestamp get the scene's
// timestamp, or defaultTimestamp if the file has none.
func Load(path string, defaultTimestamp float32) (*geometry.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	g, err := Parse(data, defaultTimestamp)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", path, err)
	}
	return g, nil
}

// Parse builds a geometry group from YAML. Every invalid entry is reported.
func Parse(data []byte, defaultTimestamp float32) (*geometry.Group, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	return desc.Build(defaultTimestamp)
}

// Build creates the primitives of the description.
func (d *Description) Build(defaultTimestamp float32) (*geometry.Group, error) {
	ts := defaultTimestamp
	if d.Timestamp != nil {
		ts = *d.Timestamp
	}
	place, scale, err := d.Transform.matrix()
	if err != nil {
		return nil, err
	}

	g := geometry.NewGroup()
	var all error
	add := func(list string, i int, p geometry.Primitive, err error) {
		if err == nil {
			err = g.Add(p)
		}
		if err != nil {
			all = multierr.Append(all, fmt.Errorf("%s[%d]: %w", list, i, err))
		}
	}

	for i, s := range d.Spheres {
		p, err := geometry.NewSphere(place.TransformPoint(pmath.Vec3FromArray(s.Center)), s.Radius*scale,
			s.Material, geometry.WithTimestamp(pick(s.Timestamp, ts)))
		add("spheres", i, p, err)
	}
	for i, c := range d.Cylinders {
		p, err := geometry.NewCylinder(place.TransformPoint(pmath.Vec3FromArray(c.Center)),
			place.TransformPoint(pmath.Vec3FromArray(c.Up)), c.Radius*scale,
			c.Material, geometry.WithTimestamp(pick(c.Timestamp, ts)))
		add("cylinders", i, p, err)
	}
	for i, c := range d.Cones {
		p, err := geometry.NewCone(place.TransformPoint(pmath.Vec3FromArray(c.Center)),
			place.TransformPoint(pmath.Vec3FromArray(c.Up)), c.CenterRadius*scale, c.UpRadius*scale,
			c.Material, geometry.WithTimestamp(pick(c.Timestamp, ts)))
		add("cones", i, p, err)
	}
	for i, m := range d.Meshes {
		p, err := geometry.NewMeshRef(m.Mesh, m.FirstTriangle, m.Triangles,
			m.Material, geometry.WithTimestamp(pick(m.Timestamp, ts)))
		add("meshes", i, p, err)
	}

	if all != nil {
		return nil, all
	}
	return g, nil
}

func (t *Transform) matrix() (pmath.Mat4, float32, error) {
	if t == nil {
		return pmath.Identity(), 1, nil
	}
	if !(t.Scale > 0) || !pmath.IsFinite(t.Scale) {
		return pmath.Mat4{}, 0, errs.Validation("transform scale", "must be positive, got %v", t.Scale)
	}
	rad := t.RotateY * math.Pi / 180
	return pmath.Placement(pmath.Vec3FromArray(t.Translate), rad, t.Scale), t.Scale, nil
}

func pick(v *float32, def float32) float32 {
	if v != nil {
		return *v
	}
	return def
}
