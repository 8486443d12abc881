package physics

import (
	"math"

	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	epaTolerance     = 1e-4
	epaMaxIterations = 64
)

type epaFace struct {
	a, b, c int
	normal  rl.Vector3 // unit, pointing away from the origin
	dist    float32
}

type epaEdge struct {
	a, b int
}

// EPA expands the GJK simplex towards the Minkowski boundary and returns the
// penetration along the face closest to the origin. The normal points from A
// to B. It reports no contact when the polytope degenerates or the
// iteration budget runs out.
func EPA(simplex Simplex, a components.Shape, xfA rl.Matrix, b components.Shape, xfB rl.Matrix) (ContactInfo, bool) {
	poly := make([]SupportPoint, 0, 4+epaMaxIterations)
	poly = append(poly, simplex.Points...)
	if len(poly) < 4 {
		poly = completeSimplex(poly, a, xfA, b, xfB)
	}
	if len(poly) < 4 {
		return epaFallback(a, xfA, b, xfB)
	}

	var faces []epaFace
	for _, f := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		if face, ok := makeFace(poly, f[0], f[1], f[2]); ok {
			faces = append(faces, face)
		}
	}

	for iter := 0; iter < epaMaxIterations; iter++ {
		if len(faces) == 0 {
			return ContactInfo{}, false
		}

		closest := 0
		for i := range faces {
			if faces[i].dist < faces[closest].dist {
				closest = i
			}
		}
		nearest := faces[closest]

		p := minkowski(a, xfA, b, xfB, nearest.normal)
		if rl.Vector3DotProduct(p.P, nearest.normal)-nearest.dist < epaTolerance {
			return ContactInfo{
				Normal:      nearest.normal,
				Penetration: nearest.dist,
				Point:       witnessPoint(poly[nearest.a], poly[nearest.b], poly[nearest.c]),
			}, true
		}

		idx := len(poly)
		poly = append(poly, p)

		// Drop every face the new point can see and collect the horizon.
		var horizon []epaEdge
		kept := faces[:0]
		for _, f := range faces {
			if rl.Vector3DotProduct(f.normal, rl.Vector3Subtract(p.P, poly[f.a].P)) > 0 {
				horizon = addEdge(horizon, f.a, f.b)
				horizon = addEdge(horizon, f.b, f.c)
				horizon = addEdge(horizon, f.c, f.a)
				continue
			}
			kept = append(kept, f)
		}
		faces = kept

		for _, e := range horizon {
			if face, ok := makeFace(poly, e.a, e.b, idx); ok {
				faces = append(faces, face)
			}
		}
	}
	return ContactInfo{}, false
}

// makeFace builds a face with its normal flipped away from the origin.
// Faces with a near-zero area are rejected.
func makeFace(poly []SupportPoint, a, b, c int) (epaFace, bool) {
	pa, pb, pc := poly[a].P, poly[b].P, poly[c].P
	n := rl.Vector3CrossProduct(rl.Vector3Subtract(pb, pa), rl.Vector3Subtract(pc, pa))
	l := rl.Vector3Length(n)
	if l < 1e-10 {
		return epaFace{}, false
	}
	n = rl.Vector3Scale(n, 1/l)
	d := rl.Vector3DotProduct(n, pa)
	if d < 0 {
		n = rl.Vector3Negate(n)
		d = -d
		b, c = c, b
	}
	return epaFace{a: a, b: b, c: c, normal: n, dist: d}, true
}

// witnessPoint maps the point of face abc nearest the origin back onto both
// shapes and returns the midpoint of the two witnesses.
func witnessPoint(a, b, c SupportPoint) rl.Vector3 {
	u, v, w := barycentric(closestPointOnTriangle(a.P, b.P, c.P), a.P, b.P, c.P)
	onA := rl.Vector3Add(rl.Vector3Add(rl.Vector3Scale(a.A, u), rl.Vector3Scale(b.A, v)), rl.Vector3Scale(c.A, w))
	onB := rl.Vector3Add(rl.Vector3Add(rl.Vector3Scale(a.B, u), rl.Vector3Scale(b.B, v)), rl.Vector3Scale(c.B, w))
	return rl.Vector3Lerp(onA, onB, 0.5)
}

// barycentric returns the weights of p with respect to triangle abc.
func barycentric(p, a, b, c rl.Vector3) (u, v, w float32) {
	v0 := rl.Vector3Subtract(b, a)
	v1 := rl.Vector3Subtract(c, a)
	v2 := rl.Vector3Subtract(p, a)
	d00 := rl.Vector3DotProduct(v0, v0)
	d01 := rl.Vector3DotProduct(v0, v1)
	d11 := rl.Vector3DotProduct(v1, v1)
	d20 := rl.Vector3DotProduct(v2, v0)
	d21 := rl.Vector3DotProduct(v2, v1)
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}

// completeSimplex grows a point, segment or triangle from GJK into a
// tetrahedron by sampling supports along the coordinate axes and the
// current face normal. It returns fewer than four points if the Minkowski
// difference is flat.
func completeSimplex(poly []SupportPoint, a components.Shape, xfA rl.Matrix, b components.Shape, xfB rl.Matrix) []SupportPoint {
	dirs := []rl.Vector3{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
	if len(poly) == 3 {
		n := rl.Vector3CrossProduct(rl.Vector3Subtract(poly[1].P, poly[0].P), rl.Vector3Subtract(poly[2].P, poly[0].P))
		if rl.Vector3LengthSqr(n) > 1e-12 {
			dirs = append([]rl.Vector3{n, rl.Vector3Negate(n)}, dirs...)
		}
	}
	for _, d := range dirs {
		if len(poly) == 4 {
			break
		}
		p := minkowski(a, xfA, b, xfB, d)
		if extendsSimplex(poly, p.P) {
			poly = append(poly, p)
		}
	}
	return poly
}

// extendsSimplex reports whether p raises the dimension of poly.
func extendsSimplex(poly []SupportPoint, p rl.Vector3) bool {
	const eps = 1e-6
	switch len(poly) {
	case 0:
		return true
	case 1:
		return rl.Vector3DistanceSqr(p, poly[0].P) > eps
	case 2:
		ab := rl.Vector3Subtract(poly[1].P, poly[0].P)
		return rl.Vector3LengthSqr(rl.Vector3CrossProduct(ab, rl.Vector3Subtract(p, poly[0].P))) > eps
	case 3:
		n := rl.Vector3CrossProduct(rl.Vector3Subtract(poly[1].P, poly[0].P), rl.Vector3Subtract(poly[2].P, poly[0].P))
		return float32(math.Abs(float64(rl.Vector3DotProduct(n, rl.Vector3Subtract(p, poly[0].P))))) > eps
	}
	return false
}

// addEdge keeps only edges bordering exactly one removed face.
func addEdge(edges []epaEdge, a, b int) []epaEdge {
	for i, e := range edges {
		if e.a == b && e.b == a {
			edges[i] = edges[len(edges)-1]
			return edges[:len(edges)-1]
		}
	}
	return append(edges, epaEdge{a: a, b: b})
}

// epaFallback handles a polytope that never became a tetrahedron. Only
// sphere pairs can be resolved from there.
func epaFallback(a components.Shape, xfA rl.Matrix, b components.Shape, xfB rl.Matrix) (ContactInfo, bool) {
	sa, okA := a.(components.Sphere)
	sb, okB := b.(components.Sphere)
	if !okA || !okB {
		return ContactInfo{}, false
	}
	return SphereSphere(sa, xfA, sb, xfB)
}

// closestPointOnTriangle returns the point of triangle abc nearest the origin.
func closestPointOnTriangle(a, b, c rl.Vector3) rl.Vector3 {
	ab := rl.Vector3Subtract(b, a)
	ac := rl.Vector3Subtract(c, a)
	ao := rl.Vector3Negate(a)

	d1 := rl.Vector3DotProduct(ab, ao)
	d2 := rl.Vector3DotProduct(ac, ao)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bo := rl.Vector3Negate(b)
	d3 := rl.Vector3DotProduct(ab, bo)
	d4 := rl.Vector3DotProduct(ac, bo)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return rl.Vector3Add(a, rl.Vector3Scale(ab, v))
	}

	co := rl.Vector3Negate(c)
	d5 := rl.Vector3DotProduct(ab, co)
	d6 := rl.Vector3DotProduct(ac, co)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return rl.Vector3Add(a, rl.Vector3Scale(ac, w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return rl.Vector3Add(b, rl.Vector3Scale(rl.Vector3Subtract(c, b), w))
	}

	denom := 1 / (va + vb + vc)
	if math.IsInf(float64(denom), 0) {
		return a
	}
	v, w := vb*denom, vc*denom
	return rl.Vector3Add(a, rl.Vector3Add(rl.Vector3Scale(ab, v), rl.Vector3Scale(ac, w)))
}
