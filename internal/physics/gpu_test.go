package physics

import (
	"errors"
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/compute"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// fakeGPU runs the kernels' contracts on the CPU: all-pairs AABB overlap
// without static-static pairs, and a unit contact for every resolved pair.
type fakeGPU struct {
	detectCalls  int
	resolveCalls int
	fusedCalls   int
	lastPairs    int
	resolved     []compute.CollisionPair
	resolvedType [][2]uint32
	fail         error
	released     bool
}

func (f *fakeGPU) pairs(aabbs []compute.GpuAabb) []compute.CollisionPair {
	var out []compute.CollisionPair
	for i := range aabbs {
		for j := i + 1; j < len(aabbs); j++ {
			a, b := aabbs[i], aabbs[j]
			if a.BodyType == compute.BodyStatic && b.BodyType == compute.BodyStatic {
				continue
			}
			overlap := true
			for k := 0; k < 3; k++ {
				if a.Min[k] > b.Max[k] || a.Max[k] < b.Min[k] {
					overlap = false
				}
			}
			if overlap {
				out = append(out, compute.CollisionPair{A: uint32(i), B: uint32(j)})
			}
		}
	}
	f.lastPairs = len(out)
	return out
}

func (f *fakeGPU) resolve(shapes []compute.GpuShapeData, pairs []compute.CollisionPair) []compute.NarrowphaseResult {
	out := make([]compute.NarrowphaseResult, 0, len(pairs))
	for _, p := range pairs {
		f.resolved = append(f.resolved, p)
		f.resolvedType = append(f.resolvedType, [2]uint32{shapes[p.A].ShapeType, shapes[p.B].ShapeType})
		out = append(out, compute.NarrowphaseResult{
			EntityA:     p.A,
			EntityB:     p.B,
			Normal:      [3]float32{1, 0, 0},
			Penetration: 0.1,
			HasContact:  1,
		})
	}
	return out
}

func (f *fakeGPU) DetectPairs(aabbs []compute.GpuAabb, cellSize float32) ([]compute.CollisionPair, error) {
	f.detectCalls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.pairs(aabbs), nil
}

func (f *fakeGPU) ResolvePairs(shapes []compute.GpuShapeData, pairs []compute.CollisionPair) ([]compute.NarrowphaseResult, error) {
	f.resolveCalls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.resolve(shapes, pairs), nil
}

func (f *fakeGPU) DetectAndResolve(aabbs []compute.GpuAabb, shapes []compute.GpuShapeData, cellSize float32) ([]compute.NarrowphaseResult, error) {
	f.fusedCalls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.resolve(shapes, f.pairs(aabbs)), nil
}

func (f *fakeGPU) LastPairCount() int { return f.lastPairs }

func (f *fakeGPU) Release() { f.released = true }

func gpuWorld(fake *fakeGPU) *PhysicsWorld {
	cfg := DefaultConfig()
	cfg.Gravity = rl.Vector3{}
	cfg.GPUThreshold = 2
	w := New(cfg)
	w.gpu = fake
	return w
}

func weightless() *components.Rigidbody {
	rb := components.NewDynamicRigidbody(1)
	rb.GravityScale = 0
	return rb
}

func hasManifold(w *PhysicsWorld, a, b *engine.GameObject) bool {
	want := makePair(a.UID, b.UID)
	for _, m := range w.Manifolds() {
		if m.Pair == want {
			return true
		}
	}
	return false
}

func TestGPUMixedSceneSplitsPairs(t *testing.T) {
	scene := engine.NewScene("mixed")
	ball := spawn(scene, "Ball", rl.Vector3{}, components.Sphere{Radius: 0.5}, weightless())
	crate := spawn(scene, "Crate", rl.Vector3{X: 0.8}, components.Box{HalfExtents: rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}}, weightless())
	pill := spawn(scene, "Pill", rl.Vector3{Y: 0.8}, components.Capsule{Radius: 0.5, HalfHeight: 0.5}, weightless())

	fake := &fakeGPU{}
	w := gpuWorld(fake)
	w.StepGPU(scene, step)

	if !w.UsingGPU() {
		t.Fatal("Expected the GPU path to be used")
	}
	if fake.detectCalls != 1 || fake.resolveCalls != 1 || fake.fusedCalls != 0 {
		t.Errorf("Expected detect+resolve once, got detect=%d resolve=%d fused=%d", fake.detectCalls, fake.resolveCalls, fake.fusedCalls)
	}
	if len(fake.resolved) != 1 {
		t.Fatalf("Expected only the sphere-box pair on the GPU, got %d pairs", len(fake.resolved))
	}
	for _, types := range fake.resolvedType {
		if types[0] == compute.ShapeOther || types[1] == compute.ShapeOther {
			t.Errorf("Expected no unsupported shapes on the GPU, got %v", types)
		}
	}
	if s := w.Stats(); s.PairCount != 3 {
		t.Errorf("Expected 3 broadphase pairs, got %d", s.PairCount)
	}
	if !hasManifold(w, ball, crate) {
		t.Error("Expected a GPU manifold for ball and crate")
	}
	if !hasManifold(w, ball, pill) && !hasManifold(w, crate, pill) {
		t.Error("Expected a CPU manifold for the capsule")
	}
}

func TestGPUAllSpheresStayOnDevice(t *testing.T) {
	scene := engine.NewScene("spheres")
	for i := 0; i < 3; i++ {
		spawn(scene, "Ball", rl.Vector3{X: float32(i) * 0.9}, components.Sphere{Radius: 0.5}, weightless())
	}

	fake := &fakeGPU{}
	w := gpuWorld(fake)
	w.StepGPU(scene, step)

	if fake.fusedCalls != 1 || fake.detectCalls != 0 || fake.resolveCalls != 0 {
		t.Errorf("Expected one fused call, got detect=%d resolve=%d fused=%d", fake.detectCalls, fake.resolveCalls, fake.fusedCalls)
	}
	if s := w.Stats(); s.PairCount != 2 || s.ContactCount != 2 {
		t.Errorf("Expected 2 pairs and 2 contacts, got %d and %d", s.PairCount, s.ContactCount)
	}
}

func TestGPUFailureFallsBackToCPU(t *testing.T) {
	scene := engine.NewScene("fallback")
	a := spawn(scene, "A", rl.Vector3{}, components.Sphere{Radius: 0.5}, weightless())
	b := spawn(scene, "B", rl.Vector3{X: 0.9}, components.Sphere{Radius: 0.5}, weightless())

	fake := &fakeGPU{fail: errors.New("device lost")}
	w := gpuWorld(fake)
	w.StepGPU(scene, step)

	if w.UsingGPU() {
		t.Error("Expected CPU fallback after a GPU error")
	}
	if !hasManifold(w, a, b) {
		t.Error("Expected the CPU path to find the contact")
	}
}

func TestGPUBelowThresholdUsesCPU(t *testing.T) {
	scene := engine.NewScene("small")
	spawn(scene, "A", rl.Vector3{}, components.Sphere{Radius: 0.5}, weightless())
	spawn(scene, "B", rl.Vector3{X: 0.9}, components.Sphere{Radius: 0.5}, weightless())

	fake := &fakeGPU{}
	w := gpuWorld(fake)
	w.Config.GPUThreshold = 10
	w.StepGPU(scene, step)

	if w.UsingGPU() || fake.fusedCalls+fake.detectCalls != 0 {
		t.Error("Expected small scenes to stay on the CPU")
	}
	if w.Stats().ContactCount != 1 {
		t.Errorf("Expected 1 contact, got %d", w.Stats().ContactCount)
	}
}

func TestGPUUploadSkipsSensors(t *testing.T) {
	scene := engine.NewScene("upload")
	spawn(scene, "A", rl.Vector3{}, components.Sphere{Radius: 0.5}, weightless())
	s := spawn(scene, "S", rl.Vector3{}, nil, components.NewStaticRigidbody())
	col := components.NewCollider(components.Box{HalfExtents: rl.Vector3{X: 1, Y: 1, Z: 1}})
	col.IsSensor = true
	s.AddComponent(col)

	set := Gather(scene)
	up := buildUpload(set, set.Proxies())
	if len(up.ids) != 1 || len(up.aabbs) != 1 || len(up.shapes) != 1 {
		t.Errorf("Expected only the non-sensor body uploaded, got %d", len(up.ids))
	}
	if up.cellSize < 1 {
		t.Errorf("Expected cell size at least 1, got %f", up.cellSize)
	}
}

func TestShapeDataEncodesScale(t *testing.T) {
	m := rl.MatrixMultiply(rl.MatrixScale(2, 3, 4), translate(1, 2, 3))
	d := shapeData(components.Box{HalfExtents: rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}}, m)
	if d.ShapeType != compute.ShapeBox {
		t.Errorf("Expected box type, got %d", d.ShapeType)
	}
	if d.ScaleX != 2 || d.ScaleY != 3 || d.ScaleZ != 4 {
		t.Errorf("Expected scales (2,3,4), got (%f,%f,%f)", d.ScaleX, d.ScaleY, d.ScaleZ)
	}
	if !near(d.AxisY[1], 1, 1e-6) || d.AxisY[0] != 0 || d.AxisY[2] != 0 {
		t.Errorf("Expected unit Y axis, got %v", d.AxisY)
	}
	if d.Position != [3]float32{1, 2, 3} {
		t.Errorf("Expected position (1,2,3), got %v", d.Position)
	}

	if d := shapeData(components.Cylinder{Radius: 1, HalfHeight: 1}, m); d.ShapeType != compute.ShapeOther {
		t.Errorf("Expected cylinders to be tagged unsupported, got %d", d.ShapeType)
	}
}

func TestReleaseDropsBackend(t *testing.T) {
	fake := &fakeGPU{}
	w := gpuWorld(fake)
	w.Release()
	if !fake.released || w.GPUReady() {
		t.Error("Expected Release to free the backend")
	}
}
