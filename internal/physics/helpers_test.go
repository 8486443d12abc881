package physics

import (
	"math"
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func spawn(scene *engine.Scene, name string, pos rl.Vector3, shape components.Shape, rb *components.Rigidbody) *engine.GameObject {
	obj := engine.NewGameObject(name)
	obj.Transform.Position = pos
	obj.SyncTransform()
	obj.AddComponent(rb)
	if shape != nil {
		obj.AddComponent(components.NewCollider(shape))
	}
	scene.AddGameObject(obj)
	return obj
}

func spawnGround(scene *engine.Scene) *engine.GameObject {
	rb := components.NewStaticRigidbody()
	return spawn(scene, "Ground", rl.Vector3{Y: -0.5}, components.Box{HalfExtents: rl.Vector3{X: 50, Y: 0.5, Z: 50}}, rb)
}

func near(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func expectVec(t *testing.T, what string, got, want rl.Vector3, eps float32) {
	t.Helper()
	if !near(got.X, want.X, eps) || !near(got.Y, want.Y, eps) || !near(got.Z, want.Z, eps) {
		t.Errorf("Expected %s %v, got %v", what, want, got)
	}
}

func translate(x, y, z float32) rl.Matrix {
	return rl.MatrixTranslate(x, y, z)
}

func TestTangentBasisIsOrthonormal(t *testing.T) {
	for _, n := range []rl.Vector3{{X: 1}, {Y: 1}, {Z: -1}, rl.Vector3Normalize(rl.Vector3{X: 1, Y: 2, Z: 3})} {
		t1, t2 := tangentBasis(n)
		if !near(rl.Vector3Length(t1), 1, 1e-5) || !near(rl.Vector3Length(t2), 1, 1e-5) {
			t.Errorf("Expected unit tangents for %v, got |t1|=%f |t2|=%f", n, rl.Vector3Length(t1), rl.Vector3Length(t2))
		}
		if !near(rl.Vector3DotProduct(t1, n), 0, 1e-5) || !near(rl.Vector3DotProduct(t2, n), 0, 1e-5) || !near(rl.Vector3DotProduct(t1, t2), 0, 1e-5) {
			t.Errorf("Expected orthogonal basis for %v, got t1=%v t2=%v", n, t1, t2)
		}
	}
}

func TestComputeAABBRotatedBox(t *testing.T) {
	m := rl.MatrixMultiply(rl.MatrixRotateY(math.Pi/4), translate(2, 0, 0))
	box := ComputeAABB(components.Box{HalfExtents: rl.Vector3{X: 1, Y: 1, Z: 1}}, m)

	r := float32(math.Sqrt2)
	expectVec(t, "min", box.Min, rl.Vector3{X: 2 - r, Y: -1, Z: -r}, 1e-4)
	expectVec(t, "max", box.Max, rl.Vector3{X: 2 + r, Y: 1, Z: r}, 1e-4)
}

func TestComputeAABBScaledSphere(t *testing.T) {
	m := rl.MatrixMultiply(rl.MatrixScale(1, 3, 1), translate(0, 5, 0))
	box := ComputeAABB(components.Sphere{Radius: 1}, m)
	if !near(box.Max.X, 3, 1e-5) || !near(box.Min.Y, 2, 1e-5) {
		t.Errorf("Expected max-axis radius 3, got %v..%v", box.Min, box.Max)
	}
}
