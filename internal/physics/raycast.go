package physics

import (
	"math"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type RaycastHit struct {
	GameObject *engine.GameObject
	Point      rl.Vector3
	Normal     rl.Vector3
	Distance   float32
}

// Raycast checks every active collider in the scene and returns the closest
// hit within maxDistance. Sensors are ignored. Shapes other than spheres and
// boxes are tested against their world AABB.
func Raycast(scene *engine.Scene, origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	if rl.Vector3LengthSqr(direction) < 1e-12 {
		return RaycastHit{}, false
	}
	direction = rl.Vector3Normalize(direction)

	var closestHit RaycastHit
	closestHit.Distance = maxDistance
	hit := false

	for _, obj := range scene.GameObjects {
		if !obj.Active {
			continue
		}
		col := engine.GetComponent[*components.Collider](obj)
		if col == nil || col.Shape == nil || col.IsSensor {
			continue
		}

		m := col.WorldMatrix()
		var hitInfo RaycastHit
		var ok bool
		switch s := col.Shape.(type) {
		case components.Sphere:
			hitInfo, ok = raycastSphere(origin, direction, translation(m), s.Radius*maxAxisScale(m), maxDistance)
		case components.Box:
			hitInfo, ok = raycastOBB(origin, direction, NewOBB(s, m), maxDistance)
		default:
			box := ComputeAABB(col.Shape, m)
			hitInfo, ok = raycastAABB(origin, direction, box.Min, box.Max, maxDistance)
		}
		if ok && hitInfo.Distance < closestHit.Distance {
			closestHit = hitInfo
			closestHit.GameObject = obj
			hit = true
		}
	}

	return closestHit, hit
}

// Raycast is a convenience wrapper for the package-level Raycast.
func (w *PhysicsWorld) Raycast(scene *engine.Scene, origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	return Raycast(scene, origin, direction, maxDistance)
}

// raycastOBB runs the slab test in the box's frame and maps the hit back.
func raycastOBB(origin, direction rl.Vector3, o OBB, maxDistance float32) (RaycastHit, bool) {
	rel := rl.Vector3Subtract(origin, o.Center)
	localOrigin := rl.Vector3{
		X: rl.Vector3DotProduct(rel, o.Axes[0]),
		Y: rl.Vector3DotProduct(rel, o.Axes[1]),
		Z: rl.Vector3DotProduct(rel, o.Axes[2]),
	}
	localDir := rl.Vector3{
		X: rl.Vector3DotProduct(direction, o.Axes[0]),
		Y: rl.Vector3DotProduct(direction, o.Axes[1]),
		Z: rl.Vector3DotProduct(direction, o.Axes[2]),
	}

	local, ok := raycastAABB(localOrigin, localDir, rl.Vector3Negate(o.HalfSize), o.HalfSize, maxDistance)
	if !ok {
		return RaycastHit{}, false
	}

	normal := rl.Vector3Add(
		rl.Vector3Add(rl.Vector3Scale(o.Axes[0], local.Normal.X), rl.Vector3Scale(o.Axes[1], local.Normal.Y)),
		rl.Vector3Scale(o.Axes[2], local.Normal.Z),
	)
	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, local.Distance))
	return RaycastHit{Point: point, Normal: normal, Distance: local.Distance}, true
}

// raycastAABB is the slab test. A ray starting inside reports the exit face.
func raycastAABB(origin, direction, min, max rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	o := [3]float32{origin.X, origin.Y, origin.Z}
	d := [3]float32{direction.X, direction.Y, direction.Z}
	lo := [3]float32{min.X, min.Y, min.Z}
	hi := [3]float32{max.X, max.Y, max.Z}

	tmin, tmax := float32(-1e30), float32(1e30)
	enterAxis, exitAxis := -1, -1
	var enterSign, exitSign float32

	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return RaycastHit{}, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		sign := float32(-1) // entering through the min face
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin, enterAxis, enterSign = t1, i, sign
		}
		if t2 < tmax {
			tmax, exitAxis, exitSign = t2, i, -sign
		}
		if tmin > tmax {
			return RaycastHit{}, false
		}
	}

	if tmax < 0 || tmin > maxDistance {
		return RaycastHit{}, false
	}

	t, ax, sign := tmin, enterAxis, enterSign
	if t < 0 {
		t, ax, sign = tmax, exitAxis, exitSign
	}
	if t < 0 || t > maxDistance || ax < 0 {
		return RaycastHit{}, false
	}

	var n [3]float32
	n[ax] = sign
	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	return RaycastHit{Point: point, Normal: rl.Vector3{X: n[0], Y: n[1], Z: n[2]}, Distance: t}, true
}

func raycastSphere(origin, direction, center rl.Vector3, radius, maxDistance float32) (RaycastHit, bool) {
	oc := rl.Vector3Subtract(origin, center)
	a := rl.Vector3DotProduct(direction, direction)
	b := 2.0 * rl.Vector3DotProduct(oc, direction)
	c := rl.Vector3DotProduct(oc, oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return RaycastHit{}, false
	}

	t := (-b - float32(math.Sqrt(float64(discriminant)))) / (2 * a)
	if t < 0 {
		t = (-b + float32(math.Sqrt(float64(discriminant)))) / (2 * a)
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := rl.Vector3Normalize(rl.Vector3Subtract(point, center))

	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}
