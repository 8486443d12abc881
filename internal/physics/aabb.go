package physics

import (
	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type AABB struct {
	Min rl.Vector3
	Max rl.Vector3
}

// NewAABBFromCenter creates an AABB from a center point and half extents.
func NewAABBFromCenter(center, half rl.Vector3) AABB {
	return AABB{
		Min: rl.Vector3Subtract(center, half),
		Max: rl.Vector3Add(center, half),
	}
}

// Intersects treats touching boxes as overlapping.
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// MaxExtent is the longest edge of the box.
func (a AABB) MaxExtent() float32 {
	d := rl.Vector3Subtract(a.Max, a.Min)
	return max(d.X, d.Y, d.Z)
}

func (a AABB) Center() rl.Vector3 {
	return rl.Vector3Scale(rl.Vector3Add(a.Min, a.Max), 0.5)
}

// ComputeAABB bounds shape under the world matrix m. Local half extents are
// projected onto each world axis through |m|, so rotation and non-uniform
// scale are both covered. Spheres use the max-axis radius to agree with the
// sphere narrowphase.
func ComputeAABB(shape components.Shape, m rl.Matrix) AABB {
	center := translation(m)
	if s, ok := shape.(components.Sphere); ok {
		r := s.Radius * maxAxisScale(m)
		return NewAABBFromCenter(center, rl.Vector3{X: r, Y: r, Z: r})
	}

	e := shape.LocalExtents()
	half := rl.Vector3{
		X: absf(m.M0)*e.X + absf(m.M4)*e.Y + absf(m.M8)*e.Z,
		Y: absf(m.M1)*e.X + absf(m.M5)*e.Y + absf(m.M9)*e.Z,
		Z: absf(m.M2)*e.X + absf(m.M6)*e.Y + absf(m.M10)*e.Z,
	}
	return NewAABBFromCenter(center, half)
}
