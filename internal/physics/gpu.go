package physics

import (
	"fmt"
	"log"

	"rigid3d/internal/components"
	"rigid3d/internal/compute"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// gpuBackend is the part of compute.Physics the world drives. Tests swap in
// a CPU fake.
type gpuBackend interface {
	DetectPairs(aabbs []compute.GpuAabb, cellSize float32) ([]compute.CollisionPair, error)
	ResolvePairs(shapes []compute.GpuShapeData, pairs []compute.CollisionPair) ([]compute.NarrowphaseResult, error)
	DetectAndResolve(aabbs []compute.GpuAabb, shapes []compute.GpuShapeData, cellSize float32) ([]compute.NarrowphaseResult, error)
	LastPairCount() int
	Release()
}

// gpuUpload is one substep's worth of GPU input. ids maps upload indices
// back to entity UIDs. Sensors are left out.
type gpuUpload struct {
	ids      []uint64
	aabbs    []compute.GpuAabb
	shapes   []compute.GpuShapeData
	cellSize float32
}

func buildUpload(set *BodySet, proxies []Proxy) gpuUpload {
	up := gpuUpload{
		ids:    make([]uint64, 0, len(proxies)),
		aabbs:  make([]compute.GpuAabb, 0, len(proxies)),
		shapes: make([]compute.GpuShapeData, 0, len(proxies)),
	}

	var maxExtent float32
	for _, p := range proxies {
		if p.Sensor {
			continue
		}
		b, ok := set.Get(p.ID)
		if !ok {
			continue
		}
		idx := uint32(len(up.ids))
		up.ids = append(up.ids, p.ID)
		up.aabbs = append(up.aabbs, compute.GpuAabb{
			Min:         vec3Array(p.AABB.Min),
			EntityIndex: idx,
			Max:         vec3Array(p.AABB.Max),
			BodyType:    bodyTypeCode(p.BodyType),
		})
		up.shapes = append(up.shapes, shapeData(b.Collider.Shape, b.Collider.WorldMatrix()))
		maxExtent = max(maxExtent, p.AABB.MaxExtent())
	}
	up.cellSize = max(maxExtent*2, 1)
	return up
}

// shapeData encodes a collider in world space. Axes are unit columns of m
// and scales their lengths.
func shapeData(shape components.Shape, m rl.Matrix) compute.GpuShapeData {
	d := compute.GpuShapeData{Position: vec3Array(translation(m))}

	ax := [3]rl.Vector3{axis(m, 0), axis(m, 1), axis(m, 2)}
	var scale [3]float32
	for i := range ax {
		scale[i] = rl.Vector3Length(ax[i])
		if scale[i] > 1e-12 {
			ax[i] = rl.Vector3Scale(ax[i], 1/scale[i])
		}
	}
	d.AxisX, d.ScaleX = vec3Array(ax[0]), scale[0]
	d.AxisY, d.ScaleY = vec3Array(ax[1]), scale[1]
	d.AxisZ, d.ScaleZ = vec3Array(ax[2]), scale[2]

	switch s := shape.(type) {
	case components.Sphere:
		d.ShapeType = compute.ShapeSphere
		d.Data = [4]float32{s.Radius, 0, 0, 0}
	case components.Box:
		d.ShapeType = compute.ShapeBox
		d.Data = [4]float32{s.HalfExtents.X, s.HalfExtents.Y, s.HalfExtents.Z, 0}
	default:
		d.ShapeType = compute.ShapeOther
	}
	return d
}

// gpuResolvable reports whether the narrowphase kernel handles the pair.
func gpuResolvable(a, b uint32) bool {
	switch {
	case a == compute.ShapeSphere && b == compute.ShapeSphere:
		return true
	case a == compute.ShapeSphere && b == compute.ShapeBox:
		return true
	case a == compute.ShapeBox && b == compute.ShapeSphere:
		return true
	}
	return false
}

// detectGPU runs collision detection on the GPU. All-sphere scenes keep the
// pair list on the device; mixed scenes read pairs back and send the
// shape combinations the kernel can't handle through the CPU narrowphase.
func (w *PhysicsWorld) detectGPU(set *BodySet, proxies []Proxy) ([]ContactManifold, int, error) {
	up := buildUpload(set, proxies)
	if len(up.ids) < 2 {
		return nil, 0, nil
	}

	if set.allSpheres() {
		results, err := w.gpu.DetectAndResolve(up.aabbs, up.shapes, up.cellSize)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to detect sphere contacts: %w", err)
		}
		return up.manifolds(results), w.gpu.LastPairCount(), nil
	}

	pairs, err := w.gpu.DetectPairs(up.aabbs, up.cellSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to detect pairs: %w", err)
	}

	var onGPU []compute.CollisionPair
	var onCPU []Pair
	for _, p := range pairs {
		if gpuResolvable(up.shapes[p.A].ShapeType, up.shapes[p.B].ShapeType) {
			onGPU = append(onGPU, p)
		} else {
			onCPU = append(onCPU, makePair(up.ids[p.A], up.ids[p.B]))
		}
	}

	results, err := w.gpu.ResolvePairs(up.shapes, onGPU)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve pairs: %w", err)
	}
	manifolds := up.manifolds(results)
	manifolds = append(manifolds, narrowphase(set, onCPU)...)

	if len(pairs) > 0 && w.shouldLog() {
		log.Printf("Physics: GPU pairs %d (gpu %d, cpu %d), contacts %d",
			len(pairs), len(onGPU), len(onCPU), len(manifolds))
	}
	return manifolds, len(pairs), nil
}

// manifolds converts kernel results back to entity-keyed manifolds.
func (up gpuUpload) manifolds(results []compute.NarrowphaseResult) []ContactManifold {
	out := make([]ContactManifold, 0, len(results))
	for _, r := range results {
		if int(r.EntityA) >= len(up.ids) || int(r.EntityB) >= len(up.ids) {
			continue
		}
		info := ContactInfo{
			Normal:      vec3FromArray(r.Normal),
			Penetration: r.Penetration,
			Point:       vec3FromArray(r.Point),
		}
		out = append(out, newManifold(up.ids[r.EntityA], up.ids[r.EntityB], info))
	}
	return out
}

func vec3Array(v rl.Vector3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func vec3FromArray(a [3]float32) rl.Vector3 {
	return rl.Vector3{X: a[0], Y: a[1], Z: a[2]}
}
