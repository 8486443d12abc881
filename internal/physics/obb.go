package physics

import (
	"math"

	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OBB represents an Oriented Bounding Box
type OBB struct {
	Center   rl.Vector3    // World-space center
	HalfSize rl.Vector3    // World-scaled half-extents along Axes
	Axes     [3]rl.Vector3 // Unit local X, Y, Z axes in world space
}

// NewOBB places a box shape under world matrix m. Scale is folded into
// HalfSize so the axes stay unit length.
func NewOBB(box components.Box, m rl.Matrix) OBB {
	var o OBB
	o.Center = translation(m)
	scale := [3]float32{}
	for i := 0; i < 3; i++ {
		col := axis(m, i)
		scale[i] = rl.Vector3Length(col)
		if scale[i] > 0 {
			o.Axes[i] = rl.Vector3Scale(col, 1/scale[i])
		}
	}
	o.HalfSize = rl.Vector3{
		X: box.HalfExtents.X * scale[0],
		Y: box.HalfExtents.Y * scale[1],
		Z: box.HalfExtents.Z * scale[2],
	}
	return o
}

func (o OBB) halfSize(i int) float32 {
	switch i {
	case 0:
		return o.HalfSize.X
	case 1:
		return o.HalfSize.Y
	default:
		return o.HalfSize.Z
	}
}

// projectedRadius is the half-length of o's shadow on a unit axis.
func (o OBB) projectedRadius(ax rl.Vector3) float32 {
	return o.HalfSize.X*absf(rl.Vector3DotProduct(o.Axes[0], ax)) +
		o.HalfSize.Y*absf(rl.Vector3DotProduct(o.Axes[1], ax)) +
		o.HalfSize.Z*absf(rl.Vector3DotProduct(o.Axes[2], ax))
}

// lateralRadius measures o across a unit axis: the summed half sizes of its
// axes weighted by how perpendicular each is to ax.
func (o OBB) lateralRadius(ax rl.Vector3) float32 {
	var r float32
	for i := 0; i < 3; i++ {
		r += o.halfSize(i) * rl.Vector3Length(rl.Vector3CrossProduct(o.Axes[i], ax))
	}
	return r
}

// overlapOnAxis returns how far a and b overlap along ax; <= 0 means ax separates them.
func overlapOnAxis(a, b OBB, ax, t rl.Vector3) float32 {
	return a.projectedRadius(ax) + b.projectedRadius(ax) - absf(rl.Vector3DotProduct(t, ax))
}

// IntersectsOBB tests if two OBBs intersect using the Separating Axis Theorem
func (a OBB) IntersectsOBB(b OBB) bool {
	_, ok := satBoxBox(a, b)
	return ok
}

// satBoxBox tests the 15 SAT axes (3 face normals each, 9 edge crosses) and
// returns the contact along the axis of least overlap, pointing from a to b.
func satBoxBox(a, b OBB) (ContactInfo, bool) {
	t := rl.Vector3Subtract(b.Center, a.Center)
	minOverlap := float32(math.MaxFloat32)
	var best rl.Vector3

	test := func(ax rl.Vector3) bool {
		overlap := overlapOnAxis(a, b, ax, t)
		if overlap <= 0 {
			return false
		}
		if overlap < minOverlap {
			minOverlap = overlap
			best = ax
		}
		return true
	}

	for i := 0; i < 3; i++ {
		if !test(a.Axes[i]) {
			return ContactInfo{}, false
		}
	}
	for i := 0; i < 3; i++ {
		if !test(b.Axes[i]) {
			return ContactInfo{}, false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ax := rl.Vector3CrossProduct(a.Axes[i], b.Axes[j])
			l := rl.Vector3Length(ax)
			if l < 1e-6 {
				continue // parallel edges
			}
			if !test(rl.Vector3Scale(ax, 1/l)) {
				return ContactInfo{}, false
			}
		}
	}

	if rl.Vector3DotProduct(best, t) < 0 {
		best = rl.Vector3Negate(best)
	}

	// Midpoint between the two facing surfaces along best, placed laterally
	// under the deepest vertices of the narrower box.
	projA := a.projectedRadius(best)
	projB := b.projectedRadius(best)
	faceA := rl.Vector3DotProduct(a.Center, best) + projA
	faceB := rl.Vector3DotProduct(b.Center, best) - projB
	mid := (faceA + faceB) * 0.5

	var ref rl.Vector3
	if a.lateralRadius(best) > b.lateralRadius(best) {
		ref = b.deepestVertices(rl.Vector3Negate(best))
	} else {
		ref = a.deepestVertices(best)
	}
	point := rl.Vector3Add(ref, rl.Vector3Scale(best, mid-rl.Vector3DotProduct(ref, best)))

	return ContactInfo{Normal: best, Penetration: minOverlap, Point: point}, true
}

// incidentTolerance groups vertices that sit within this depth of the
// deepest one, so a resting face yields its centre and a tilted box its edge.
const incidentTolerance = 0.02

// deepestVertices averages the corners of o farthest along dir.
func (o OBB) deepestVertices(dir rl.Vector3) rl.Vector3 {
	var corners [8]rl.Vector3
	best := float32(-math.MaxFloat32)
	for i := range corners {
		l := [3]float32{o.halfSize(0), o.halfSize(1), o.halfSize(2)}
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				l[k] = -l[k]
			}
		}
		corners[i] = o.world(l)
		best = max(best, rl.Vector3DotProduct(corners[i], dir))
	}

	var sum rl.Vector3
	n := 0
	for _, c := range corners {
		if rl.Vector3DotProduct(c, dir) >= best-incidentTolerance {
			sum = rl.Vector3Add(sum, c)
			n++
		}
	}
	return rl.Vector3Scale(sum, 1/float32(n))
}

// local returns p in o's frame, one coordinate per axis.
func (o OBB) local(p rl.Vector3) [3]float32 {
	d := rl.Vector3Subtract(p, o.Center)
	return [3]float32{
		rl.Vector3DotProduct(d, o.Axes[0]),
		rl.Vector3DotProduct(d, o.Axes[1]),
		rl.Vector3DotProduct(d, o.Axes[2]),
	}
}

func (o OBB) world(l [3]float32) rl.Vector3 {
	p := o.Center
	for i := 0; i < 3; i++ {
		p = rl.Vector3Add(p, rl.Vector3Scale(o.Axes[i], l[i]))
	}
	return p
}

// ClosestPointOnOBB returns the point of o (surface or interior) nearest to point.
func ClosestPointOnOBB(o OBB, point rl.Vector3) rl.Vector3 {
	l := o.local(point)
	for i := 0; i < 3; i++ {
		h := o.halfSize(i)
		l[i] = clamp(l[i], -h, h)
	}
	return o.world(l)
}

// boxSphere resolves a sphere of world radius r centred at c against o.
// The normal points from the box to the sphere.
func boxSphere(o OBB, c rl.Vector3, r float32) (ContactInfo, bool) {
	closest := ClosestPointOnOBB(o, c)
	toSphere := rl.Vector3Subtract(c, closest)
	distSq := rl.Vector3LengthSqr(toSphere)
	if distSq >= r*r {
		return ContactInfo{}, false
	}

	dist := sqrtf(distSq)
	if dist < 1e-6 {
		// Centre inside the box: push out through the nearest face.
		l := o.local(c)
		minPen := float32(math.MaxFloat32)
		normal := rl.Vector3{Y: 1}
		for i := 0; i < 3; i++ {
			h := o.halfSize(i)
			if pen := h - l[i]; pen < minPen {
				minPen = pen
				normal = o.Axes[i]
			}
			if pen := h + l[i]; pen < minPen {
				minPen = pen
				normal = rl.Vector3Negate(o.Axes[i])
			}
		}
		return ContactInfo{
			Normal:      normal,
			Penetration: minPen + r,
			Point:       rl.Vector3Subtract(c, rl.Vector3Scale(normal, r)),
		}, true
	}

	return ContactInfo{
		Normal:      rl.Vector3Scale(toSphere, 1/dist),
		Penetration: r - dist,
		Point:       closest,
	}, true
}
