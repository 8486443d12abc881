package physics

import (
	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Support returns the farthest world point of shape along the world
// direction dir. The direction goes into the local frame through the
// transposed linear part, so the result stays exact under non-uniform scale.
func Support(shape components.Shape, xf rl.Matrix, dir rl.Vector3) rl.Vector3 {
	local := shape.Support(toLocalDir(xf, dir))
	return rl.Vector3Transform(local, xf)
}

// minkowski is the support of A - B along dir.
func minkowski(a components.Shape, xfA rl.Matrix, b components.Shape, xfB rl.Matrix, dir rl.Vector3) SupportPoint {
	pa := Support(a, xfA, dir)
	pb := Support(b, xfB, rl.Vector3Negate(dir))
	return SupportPoint{P: rl.Vector3Subtract(pa, pb), A: pa, B: pb}
}
