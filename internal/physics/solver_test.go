package physics

import (
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// restingContact builds a ground box and a sphere sitting exactly at the
// penetration slop, moving down at one substep of gravity.
func restingContact(t *testing.T) (*BodySet, *components.Rigidbody, Pair) {
	t.Helper()
	scene := engine.NewScene("solver")
	ground := spawnGround(scene)
	engine.GetComponent[*components.Rigidbody](ground).Restitution = 0

	rb := components.NewDynamicRigidbody(1)
	rb.Restitution = 0
	rb.LinearVelocity = rl.Vector3{Y: -0.1635}
	ball := spawn(scene, "Ball", rl.Vector3{Y: 0.495}, components.Sphere{Radius: 0.5}, rb)

	return Gather(scene), rb, makePair(ground.UID, ball.UID)
}

func TestSolverStopsApproach(t *testing.T) {
	set, rb, pair := restingContact(t)
	manifolds := narrowphase(set, []Pair{pair})
	if len(manifolds) != 1 {
		t.Fatalf("Expected 1 manifold, got %d", len(manifolds))
	}

	stats := SolveContacts(manifolds, set, 8, step)
	if !near(rb.LinearVelocity.Y, 0, 1e-4) {
		t.Errorf("Expected vertical velocity 0, got %f", rb.LinearVelocity.Y)
	}
	if !near(stats.NormalImpulse, 0.1635, 1e-3) {
		t.Errorf("Expected normal impulse 0.1635, got %f", stats.NormalImpulse)
	}
	if len(stats.Iterations) != 8 {
		t.Fatalf("Expected 8 iteration records, got %d", len(stats.Iterations))
	}
	if !near(stats.Iterations[0], 0.1635, 1e-3) {
		t.Errorf("Expected cold first pass to apply 0.1635, got %f", stats.Iterations[0])
	}
}

func TestWarmStartReducesFirstPass(t *testing.T) {
	set, rb, pair := restingContact(t)
	cache := NewContactCache()

	cold := narrowphase(set, []Pair{pair})
	cache.WarmStart(cold)
	coldStats := SolveContacts(cold, set, 8, step)
	cache.Update(cold)

	// Same approach speed, same contact point, now with last substep's impulse.
	rb.LinearVelocity = rl.Vector3{Y: -0.1635}
	warm := narrowphase(set, []Pair{pair})
	cache.WarmStart(warm)
	if !near(warm[0].Contacts[0].NormalImpulse, coldStats.NormalImpulse, 1e-6) {
		t.Fatalf("Expected cached impulse %f, got %f", coldStats.NormalImpulse, warm[0].Contacts[0].NormalImpulse)
	}
	warmStats := SolveContacts(warm, set, 8, step)

	if warmStats.Iterations[0] >= coldStats.Iterations[0] {
		t.Errorf("Expected warm first pass below %f, got %f", coldStats.Iterations[0], warmStats.Iterations[0])
	}
	if !near(warmStats.WarmStartImpulse, coldStats.NormalImpulse, 1e-4) {
		t.Errorf("Expected warm start impulse %f, got %f", coldStats.NormalImpulse, warmStats.WarmStartImpulse)
	}
	if !near(warmStats.NormalImpulse, coldStats.NormalImpulse, 1e-3) {
		t.Errorf("Expected same final impulse %f, got %f", coldStats.NormalImpulse, warmStats.NormalImpulse)
	}
}

func TestWarmStartIgnoresDistantPoints(t *testing.T) {
	cache := NewContactCache()
	pair := Pair{A: 1, B: 2}
	cache.Update([]ContactManifold{{
		Pair:     pair,
		Normal:   rl.Vector3{Y: 1},
		Contacts: []ContactPoint{{Position: rl.Vector3{}, NormalImpulse: 3}},
	}})

	m := []ContactManifold{{
		Pair:     pair,
		Normal:   rl.Vector3{Y: 1},
		Contacts: []ContactPoint{{Position: rl.Vector3{X: 0.05}}},
	}}
	cache.WarmStart(m)
	if m[0].Contacts[0].NormalImpulse != 0 {
		t.Errorf("Expected no impulse transfer past the match distance, got %f", m[0].Contacts[0].NormalImpulse)
	}

	m[0].Contacts[0].Position = rl.Vector3{X: 0.01}
	cache.WarmStart(m)
	if m[0].Contacts[0].NormalImpulse != 3 {
		t.Errorf("Expected cached impulse 3, got %f", m[0].Contacts[0].NormalImpulse)
	}
}

func TestNewManifoldCanonicalizes(t *testing.T) {
	m := newManifold(9, 4, ContactInfo{Normal: rl.Vector3{X: 1}, Penetration: 0.1})
	if m.Pair != (Pair{A: 4, B: 9}) {
		t.Errorf("Expected pair (4,9), got %v", m.Pair)
	}
	expectVec(t, "normal", m.Normal, rl.Vector3{X: -1}, 0)
}

func TestSolverSkipsImmovablePairs(t *testing.T) {
	scene := engine.NewScene("immovable")
	box := components.Box{HalfExtents: rl.Vector3{X: 1, Y: 1, Z: 1}}
	a := spawn(scene, "A", rl.Vector3{}, box, components.NewStaticRigidbody())
	kin := components.NewKinematicRigidbody()
	kin.LinearVelocity = rl.Vector3{X: -1}
	b := spawn(scene, "B", rl.Vector3{X: 1.5}, box, kin)

	set := Gather(scene)
	manifolds := narrowphase(set, []Pair{makePair(a.UID, b.UID)})
	stats := SolveContacts(manifolds, set, 4, step)
	if stats.NormalImpulse != 0 {
		t.Errorf("Expected no impulse between immovable bodies, got %f", stats.NormalImpulse)
	}
	if kin.LinearVelocity.X != -1 {
		t.Errorf("Expected kinematic velocity untouched, got %v", kin.LinearVelocity)
	}
}

func TestFrictionStopsSliding(t *testing.T) {
	set, rb, pair := restingContact(t)
	rb.LinearVelocity = rl.Vector3{X: 0.05, Y: -0.1635}
	manifolds := narrowphase(set, []Pair{pair})

	SolveContacts(manifolds, set, 8, step)

	// Friction acts at the contact point, so the ball ends up rolling: the
	// point's tangential velocity vanishes while the centre keeps some speed.
	r := rl.Vector3{Y: -0.495}
	vp := rl.Vector3Add(rb.LinearVelocity, rl.Vector3CrossProduct(rb.AngularVelocity, r))
	if !near(vp.X, 0, 1e-3) {
		t.Errorf("Expected contact point to stop sliding, got vx=%f", vp.X)
	}
	if rb.LinearVelocity.X >= 0.05 || rb.LinearVelocity.X <= 0 {
		t.Errorf("Expected friction to slow the centre without reversing it, got vx=%f", rb.LinearVelocity.X)
	}
}
