package physics

import (
	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ContactInfo is one narrowphase result. Normal points from A to B.
type ContactInfo struct {
	Normal      rl.Vector3
	Penetration float32
	Point       rl.Vector3
}

// flipped returns the same contact seen from the other body.
func (c ContactInfo) flipped() ContactInfo {
	c.Normal = rl.Vector3Negate(c.Normal)
	return c
}

// DetectCollision tests two shapes under their world matrices. Specialized
// sphere and box tests run first; every other combination goes through GJK
// and EPA.
func DetectCollision(a components.Shape, xfA rl.Matrix, b components.Shape, xfB rl.Matrix) (ContactInfo, bool) {
	switch sa := a.(type) {
	case components.Sphere:
		switch sb := b.(type) {
		case components.Sphere:
			return SphereSphere(sa, xfA, sb, xfB)
		case components.Box:
			return SphereBox(sa, xfA, sb, xfB)
		}
	case components.Box:
		switch sb := b.(type) {
		case components.Box:
			return BoxBox(sa, xfA, sb, xfB)
		case components.Sphere:
			return BoxSphere(sa, xfA, sb, xfB)
		}
	}

	simplex, ok := GJK(a, xfA, b, xfB)
	if !ok {
		return ContactInfo{}, false
	}
	return EPA(simplex, a, xfA, b, xfB)
}

// SphereSphere uses radii scaled by the longest axis of each transform, so
// non-uniform scale stays conservative.
func SphereSphere(a components.Sphere, xfA rl.Matrix, b components.Sphere, xfB rl.Matrix) (ContactInfo, bool) {
	ca, cb := translation(xfA), translation(xfB)
	ra := a.Radius * maxAxisScale(xfA)
	rb := b.Radius * maxAxisScale(xfB)

	d := rl.Vector3Subtract(cb, ca)
	distSq := rl.Vector3LengthSqr(d)
	sum := ra + rb
	if distSq >= sum*sum {
		return ContactInfo{}, false
	}

	dist := sqrtf(distSq)
	normal := rl.Vector3{Y: 1}
	if dist > 1e-6 {
		normal = rl.Vector3Scale(d, 1/dist)
	}
	pen := sum - dist
	return ContactInfo{
		Normal:      normal,
		Penetration: pen,
		Point:       rl.Vector3Add(ca, rl.Vector3Scale(normal, ra-pen*0.5)),
	}, true
}

func BoxBox(a components.Box, xfA rl.Matrix, b components.Box, xfB rl.Matrix) (ContactInfo, bool) {
	return satBoxBox(NewOBB(a, xfA), NewOBB(b, xfB))
}

// BoxSphere returns the contact with the normal pointing from the box to the sphere.
func BoxSphere(a components.Box, xfA rl.Matrix, b components.Sphere, xfB rl.Matrix) (ContactInfo, bool) {
	return boxSphere(NewOBB(a, xfA), translation(xfB), b.Radius*maxAxisScale(xfB))
}

// SphereBox is the mirror of BoxSphere.
func SphereBox(a components.Sphere, xfA rl.Matrix, b components.Box, xfB rl.Matrix) (ContactInfo, bool) {
	c, ok := BoxSphere(b, xfB, a, xfA)
	if !ok {
		return ContactInfo{}, false
	}
	return c.flipped(), true
}
