package physics

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// clamp restricts a value to a range
func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// axis returns column i (0..2) of the linear part of m.
func axis(m rl.Matrix, i int) rl.Vector3 {
	switch i {
	case 0:
		return rl.Vector3{X: m.M0, Y: m.M1, Z: m.M2}
	case 1:
		return rl.Vector3{X: m.M4, Y: m.M5, Z: m.M6}
	default:
		return rl.Vector3{X: m.M8, Y: m.M9, Z: m.M10}
	}
}

func translation(m rl.Matrix) rl.Vector3 {
	return rl.Vector3{X: m.M12, Y: m.M13, Z: m.M14}
}

// maxAxisScale is the conservative uniform scale of m: the longest basis column.
func maxAxisScale(m rl.Matrix) float32 {
	sq := max(
		rl.Vector3LengthSqr(axis(m, 0)),
		rl.Vector3LengthSqr(axis(m, 1)),
		rl.Vector3LengthSqr(axis(m, 2)),
	)
	return sqrtf(sq)
}

// toLocalDir maps a world direction into m's local frame with the transposed
// linear part. Support mapping stays exact under non-uniform scale.
func toLocalDir(m rl.Matrix, d rl.Vector3) rl.Vector3 {
	return rl.Vector3{
		X: rl.Vector3DotProduct(axis(m, 0), d),
		Y: rl.Vector3DotProduct(axis(m, 1), d),
		Z: rl.Vector3DotProduct(axis(m, 2), d),
	}
}

// tangentBasis returns two unit vectors orthogonal to n and to each other.
// The result depends only on n, so cached friction impulses stay aligned.
func tangentBasis(n rl.Vector3) (rl.Vector3, rl.Vector3) {
	var ref rl.Vector3
	if absf(n.X) < 0.57735 {
		ref = rl.Vector3{X: 1}
	} else {
		ref = rl.Vector3{Y: 1}
	}
	t1 := rl.Vector3Normalize(rl.Vector3CrossProduct(n, ref))
	t2 := rl.Vector3CrossProduct(n, t1)
	return t1, t2
}

// anyOrthogonal returns some unit vector perpendicular to v.
func anyOrthogonal(v rl.Vector3) rl.Vector3 {
	t, _ := tangentBasis(rl.Vector3Normalize(v))
	return t
}

func mulComponents(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
