package physics

import (
	"rigid3d/internal/components"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ApplyGravity adds g·mass·gravityScale to every awake dynamic body.
func ApplyGravity(set *BodySet, g rl.Vector3) {
	for _, b := range set.Bodies {
		rb := b.Rigidbody
		if !rb.IsDynamic() || rb.IsSleeping {
			continue
		}
		rb.ForceAccumulator = rl.Vector3Add(rb.ForceAccumulator, rl.Vector3Scale(g, rb.Mass*rb.GravityScale))
	}
}

// IntegrateVelocities is the semi-implicit Euler velocity update followed by
// per-substep damping.
func IntegrateVelocities(set *BodySet, dt float32) {
	for _, b := range set.Bodies {
		rb := b.Rigidbody
		if !rb.IsDynamic() || rb.IsSleeping {
			continue
		}
		rb.LinearVelocity = rl.Vector3Add(rb.LinearVelocity, rl.Vector3Scale(rb.ForceAccumulator, rb.InverseMass()*dt))
		angAccel := mulComponents(rb.TorqueAccumulator, rb.InverseInertia())
		rb.AngularVelocity = rl.Vector3Add(rb.AngularVelocity, rl.Vector3Scale(angAccel, dt))

		rb.LinearVelocity = rl.Vector3Scale(rb.LinearVelocity, max(1-rb.LinearDamping, 0))
		rb.AngularVelocity = rl.Vector3Scale(rb.AngularVelocity, max(1-rb.AngularDamping, 0))
	}
}

// IntegratePositions advances Transform from the current velocities. Dynamic
// and kinematic bodies move; kinematic ones only by the velocity they were
// given.
func IntegratePositions(set *BodySet, dt float32) {
	for _, b := range set.Bodies {
		rb := b.Rigidbody
		switch {
		case rb.BodyType == components.Kinematic:
		case rb.IsDynamic() && !rb.IsSleeping:
		default:
			continue
		}

		t := &b.Object.Transform
		t.Position = rl.Vector3Add(t.Position, rl.Vector3Scale(rb.LinearVelocity, dt))
		t.Rotation = integrateRotation(t.Rotation, rb.AngularVelocity, dt)
	}
}

// integrateRotation applies q += 0.5·dt·(ω,0)·q and renormalizes.
func integrateRotation(q rl.Quaternion, w rl.Vector3, dt float32) rl.Quaternion {
	if rl.Vector3LengthSqr(w) <= 1e-10 {
		return q
	}
	spin := rl.QuaternionMultiply(rl.Quaternion{X: w.X, Y: w.Y, Z: w.Z, W: 0}, q)
	spin = rl.QuaternionScale(spin, 0.5*dt)
	return rl.QuaternionNormalize(rl.QuaternionAdd(q, spin))
}

// SyncTransforms recomputes GlobalTransform for every body.
func SyncTransforms(set *BodySet) {
	for _, b := range set.Bodies {
		b.Object.SyncTransform()
	}
}

func ClearForces(set *BodySet) {
	for _, b := range set.Bodies {
		b.Rigidbody.ClearForces()
	}
}

// UpdateSleepStates advances every body's sleep timer.
func UpdateSleepStates(set *BodySet, dt float32) {
	for _, b := range set.Bodies {
		b.Rigidbody.UpdateSleep(dt)
	}
}

// WakeTouching wakes sleeping bodies in freshly detected contacts. A contact
// is fresh when the pair was not touching last substep or when the partner
// is moving under its own power (awake dynamic or kinematic). Bodies resting
// on static geometry therefore stay asleep.
func WakeTouching(set *BodySet, manifolds []ContactManifold, cache *ContactCache) {
	for _, m := range manifolds {
		a, okA := set.Get(m.Pair.A)
		b, okB := set.Get(m.Pair.B)
		if !okA || !okB {
			continue
		}
		fresh := cache == nil || !cache.Has(m.Pair)
		if a.Rigidbody.IsSleeping && (fresh || drivesContact(b)) {
			a.Rigidbody.Wake()
		}
		if b.Rigidbody.IsSleeping && (fresh || drivesContact(a)) {
			b.Rigidbody.Wake()
		}
	}
}

func drivesContact(b *Body) bool {
	rb := b.Rigidbody
	switch rb.BodyType {
	case components.Kinematic:
		return true
	case components.Dynamic:
		return !rb.IsSleeping
	}
	return false
}
