package physics

import (
	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const gjkMaxIterations = 64

// SupportPoint is a Minkowski difference vertex P = A - B together with the
// world support points of each shape that produced it.
type SupportPoint struct {
	P, A, B rl.Vector3
}

// Simplex holds up to four Minkowski difference points. The most recently
// added point is last.
type Simplex struct {
	Points []SupportPoint
}

func (s *Simplex) push(p SupportPoint) {
	s.Points = append(s.Points, p)
}

func (s *Simplex) set(points ...SupportPoint) {
	s.Points = append(s.Points[:0], points...)
}

// GJK reports whether the shapes overlap and, if so, the simplex enclosing
// the origin. It gives up after 64 iterations.
func GJK(a components.Shape, xfA rl.Matrix, b components.Shape, xfB rl.Matrix) (Simplex, bool) {
	simplex := Simplex{Points: make([]SupportPoint, 0, 4)}

	first := minkowski(a, xfA, b, xfB, rl.Vector3{X: 1})
	simplex.push(first)
	dir := rl.Vector3Negate(first.P)
	if rl.Vector3LengthSqr(dir) < 1e-10 {
		// touching at a single point
		return simplex, true
	}

	second := minkowski(a, xfA, b, xfB, dir)
	if rl.Vector3DotProduct(second.P, dir) < 0 {
		return Simplex{}, false
	}
	simplex.push(second)
	ab := rl.Vector3Subtract(second.P, first.P)
	dir = tripleCross(ab, rl.Vector3Negate(first.P), ab)
	if rl.Vector3LengthSqr(dir) < 1e-10 {
		dir = anyOrthogonal(ab)
	}

	for i := 0; i < gjkMaxIterations; i++ {
		p := minkowski(a, xfA, b, xfB, dir)
		if rl.Vector3DotProduct(p.P, dir) < 0 {
			return Simplex{}, false
		}
		simplex.push(p)

		if doSimplex(&simplex, &dir) {
			return simplex, true
		}
		if rl.Vector3LengthSqr(dir) < 1e-10 {
			return simplex, true
		}
	}
	return Simplex{}, false
}

// tripleCross is (a × b) × c.
func tripleCross(a, b, c rl.Vector3) rl.Vector3 {
	return rl.Vector3CrossProduct(rl.Vector3CrossProduct(a, b), c)
}

func doSimplex(s *Simplex, dir *rl.Vector3) bool {
	switch len(s.Points) {
	case 2:
		return simplexLine(s, dir)
	case 3:
		return simplexTriangle(s, dir)
	case 4:
		return simplexTetrahedron(s, dir)
	}
	return false
}

func simplexLine(s *Simplex, dir *rl.Vector3) bool {
	a, b := s.Points[1], s.Points[0]
	ab := rl.Vector3Subtract(b.P, a.P)
	ao := rl.Vector3Negate(a.P)

	if rl.Vector3DotProduct(ab, ao) > 0 {
		*dir = tripleCross(ab, ao, ab)
	} else {
		s.set(a)
		*dir = ao
	}
	return false
}

func simplexTriangle(s *Simplex, dir *rl.Vector3) bool {
	a, b, c := s.Points[2], s.Points[1], s.Points[0]
	ab := rl.Vector3Subtract(b.P, a.P)
	ac := rl.Vector3Subtract(c.P, a.P)
	ao := rl.Vector3Negate(a.P)
	abc := rl.Vector3CrossProduct(ab, ac)

	switch {
	case rl.Vector3DotProduct(rl.Vector3CrossProduct(abc, ac), ao) > 0:
		if rl.Vector3DotProduct(ac, ao) > 0 {
			s.set(c, a)
			*dir = tripleCross(ac, ao, ac)
			return false
		}
		s.set(b, a)
		return simplexLine(s, dir)
	case rl.Vector3DotProduct(rl.Vector3CrossProduct(ab, abc), ao) > 0:
		s.set(b, a)
		return simplexLine(s, dir)
	case rl.Vector3DotProduct(abc, ao) > 0:
		*dir = abc
	default:
		s.set(b, c, a)
		*dir = rl.Vector3Negate(abc)
	}
	return false
}

func simplexTetrahedron(s *Simplex, dir *rl.Vector3) bool {
	a, b, c, d := s.Points[3], s.Points[2], s.Points[1], s.Points[0]
	ab := rl.Vector3Subtract(b.P, a.P)
	ac := rl.Vector3Subtract(c.P, a.P)
	ad := rl.Vector3Subtract(d.P, a.P)
	ao := rl.Vector3Negate(a.P)

	abc := rl.Vector3CrossProduct(ab, ac)
	acd := rl.Vector3CrossProduct(ac, ad)
	adb := rl.Vector3CrossProduct(ad, ab)

	if rl.Vector3DotProduct(abc, ao) > 0 {
		s.set(c, b, a)
		*dir = abc
		return simplexTriangle(s, dir)
	}
	if rl.Vector3DotProduct(acd, ao) > 0 {
		s.set(d, c, a)
		*dir = acd
		return simplexTriangle(s, dir)
	}
	if rl.Vector3DotProduct(adb, ao) > 0 {
		s.set(b, d, a)
		*dir = adb
		return simplexTriangle(s, dir)
	}
	// origin enclosed
	return true
}
