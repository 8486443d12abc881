package components

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ShapeKind tags the collider shape variants.
type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapeCapsule
	ShapeCylinder
	ShapeConvexHull
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapeCapsule:
		return "capsule"
	case ShapeCylinder:
		return "cylinder"
	case ShapeConvexHull:
		return "hull"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// Shape is a convex collision volume in its own local frame.
// Capsules and cylinders are aligned with local +Y.
type Shape interface {
	Kind() ShapeKind
	// Support returns the farthest local point along dir.
	Support(dir rl.Vector3) rl.Vector3
	// LocalExtents returns half-sizes of a local box enclosing the shape.
	LocalExtents() rl.Vector3
}

type Sphere struct {
	Radius float32
}

type Box struct {
	HalfExtents rl.Vector3
}

type Capsule struct {
	Radius     float32
	HalfHeight float32
}

type Cylinder struct {
	Radius     float32
	HalfHeight float32
}

type ConvexHull struct {
	Points []rl.Vector3
}

func (Sphere) Kind() ShapeKind     { return ShapeSphere }
func (Box) Kind() ShapeKind        { return ShapeBox }
func (Capsule) Kind() ShapeKind    { return ShapeCapsule }
func (Cylinder) Kind() ShapeKind   { return ShapeCylinder }
func (ConvexHull) Kind() ShapeKind { return ShapeConvexHull }

func (s Sphere) Support(dir rl.Vector3) rl.Vector3 {
	l := rl.Vector3Length(dir)
	if l < 1e-12 {
		return rl.Vector3{X: s.Radius}
	}
	return rl.Vector3Scale(dir, s.Radius/l)
}

func (s Sphere) LocalExtents() rl.Vector3 {
	return rl.Vector3{X: s.Radius, Y: s.Radius, Z: s.Radius}
}

func (b Box) Support(dir rl.Vector3) rl.Vector3 {
	return rl.Vector3{
		X: signed(b.HalfExtents.X, dir.X),
		Y: signed(b.HalfExtents.Y, dir.Y),
		Z: signed(b.HalfExtents.Z, dir.Z),
	}
}

func (b Box) LocalExtents() rl.Vector3 {
	return b.HalfExtents
}

func (c Capsule) Support(dir rl.Vector3) rl.Vector3 {
	p := Sphere{Radius: c.Radius}.Support(dir)
	p.Y += signed(c.HalfHeight, dir.Y)
	return p
}

func (c Capsule) LocalExtents() rl.Vector3 {
	return rl.Vector3{X: c.Radius, Y: c.HalfHeight + c.Radius, Z: c.Radius}
}

func (c Cylinder) Support(dir rl.Vector3) rl.Vector3 {
	p := rl.Vector3{Y: signed(c.HalfHeight, dir.Y)}
	radial := float32(math.Sqrt(float64(dir.X*dir.X + dir.Z*dir.Z)))
	if radial > 1e-12 {
		p.X = dir.X / radial * c.Radius
		p.Z = dir.Z / radial * c.Radius
	}
	return p
}

func (c Cylinder) LocalExtents() rl.Vector3 {
	return rl.Vector3{X: c.Radius, Y: c.HalfHeight, Z: c.Radius}
}

// Support scans every point; hulls are expected to be small.
func (h ConvexHull) Support(dir rl.Vector3) rl.Vector3 {
	if len(h.Points) == 0 {
		return rl.Vector3{}
	}
	best := h.Points[0]
	bestDot := rl.Vector3DotProduct(best, dir)
	for _, p := range h.Points[1:] {
		if d := rl.Vector3DotProduct(p, dir); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

func (h ConvexHull) LocalExtents() rl.Vector3 {
	var e rl.Vector3
	for _, p := range h.Points {
		e.X = max(e.X, absf(p.X))
		e.Y = max(e.Y, absf(p.Y))
		e.Z = max(e.Z, absf(p.Z))
	}
	return e
}

func signed(v, s float32) float32 {
	if s < 0 {
		return -v
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
