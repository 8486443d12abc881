package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	baumgarteBeta   = 0.2
	penetrationSlop = 0.005

	// restitutionThreshold is the closing speed below which contacts do not bounce.
	restitutionThreshold = 0.5
)

// SolverStats summarizes one SolveContacts call.
type SolverStats struct {
	// Iterations holds the sum of |applied impulse| for each pass.
	Iterations []float32
	// WarmStartImpulse is the normal impulse applied before the first pass.
	WarmStartImpulse float32
	// NormalImpulse is the accumulated normal impulse over all points after the last pass.
	NormalImpulse float32
}

// solverBody is the solver's view of one side of a contact. Immovable bodies
// get zero inverse mass and are never written to.
type solverBody struct {
	body       *Body
	invMass    float32
	invInertia rl.Vector3
	center     rl.Vector3
}

func newSolverBody(b *Body) solverBody {
	sb := solverBody{body: b, center: b.Object.WorldPosition()}
	if !b.immovable() {
		sb.invMass = b.Rigidbody.InverseMass()
		sb.invInertia = b.Rigidbody.InverseInertia()
	}
	return sb
}

func (s *solverBody) movable() bool {
	return s.invMass > 0 || s.invInertia != (rl.Vector3{})
}

func (s *solverBody) velocityAt(r rl.Vector3) rl.Vector3 {
	rb := s.body.Rigidbody
	return rl.Vector3Add(rb.LinearVelocity, rl.Vector3CrossProduct(rb.AngularVelocity, r))
}

// apply adds impulse p at offset r.
func (s *solverBody) apply(p, r rl.Vector3) {
	if !s.movable() {
		return
	}
	rb := s.body.Rigidbody
	rb.LinearVelocity = rl.Vector3Add(rb.LinearVelocity, rl.Vector3Scale(p, s.invMass))
	rb.AngularVelocity = rl.Vector3Add(rb.AngularVelocity, mulComponents(s.invInertia, rl.Vector3CrossProduct(r, p)))
}

// effectiveMass is the K term along direction d.
func effectiveMass(a, b *solverBody, rA, rB, d rl.Vector3) float32 {
	rAd := rl.Vector3CrossProduct(rA, d)
	rBd := rl.Vector3CrossProduct(rB, d)
	return a.invMass + b.invMass +
		rl.Vector3DotProduct(mulComponents(a.invInertia, rAd), rAd) +
		rl.Vector3DotProduct(mulComponents(b.invInertia, rBd), rBd)
}

type pointConstraint struct {
	point      *ContactPoint
	rA, rB     rl.Vector3
	normalMass float32
	tangentK   [2]float32
	bias       float32
	restTarget float32
}

type manifoldConstraint struct {
	a, b     solverBody
	normal   rl.Vector3
	tangents [2]rl.Vector3
	friction float32
	points   []pointConstraint
}

// SolveContacts runs a warm-start pass followed by iterations sequential
// impulse passes over every manifold. Pairs whose bodies are missing or both
// immovable are skipped, as are points with a non-positive effective mass.
func SolveContacts(manifolds []ContactManifold, bodies *BodySet, iterations int, dt float32) SolverStats {
	stats := SolverStats{Iterations: make([]float32, 0, iterations)}
	if dt <= 0 {
		return stats
	}

	constraints := make([]manifoldConstraint, 0, len(manifolds))
	for mi := range manifolds {
		m := &manifolds[mi]
		ba, okA := bodies.Get(m.Pair.A)
		bb, okB := bodies.Get(m.Pair.B)
		if !okA || !okB {
			continue
		}
		if ba.immovable() && bb.immovable() {
			continue
		}

		mc := manifoldConstraint{
			a:        newSolverBody(ba),
			b:        newSolverBody(bb),
			normal:   m.Normal,
			friction: (ba.Rigidbody.Friction + bb.Rigidbody.Friction) * 0.5,
		}
		mc.tangents[0], mc.tangents[1] = tangentBasis(m.Normal)
		restitution := (ba.Rigidbody.Restitution + bb.Rigidbody.Restitution) * 0.5

		for pi := range m.Contacts {
			p := &m.Contacts[pi]
			pc := pointConstraint{
				point: p,
				rA:    rl.Vector3Subtract(p.Position, mc.a.center),
				rB:    rl.Vector3Subtract(p.Position, mc.b.center),
			}
			pc.normalMass = effectiveMass(&mc.a, &mc.b, pc.rA, pc.rB, mc.normal)
			if pc.normalMass <= 0 {
				continue
			}
			for k := 0; k < 2; k++ {
				pc.tangentK[k] = effectiveMass(&mc.a, &mc.b, pc.rA, pc.rB, mc.tangents[k])
			}
			pc.bias = baumgarteBeta / dt * max(p.Penetration-penetrationSlop, 0)

			// Bounce target is fixed from the pre-solve approach speed.
			// Contacts closing slower than restitutionThreshold never bounce.
			vn := rl.Vector3DotProduct(relativeVelocity(&mc, &pc), mc.normal)
			if vn < -restitutionThreshold {
				pc.restTarget = -restitution * vn
			}
			mc.points = append(mc.points, pc)
		}
		if len(mc.points) > 0 {
			constraints = append(constraints, mc)
		}
	}

	for ci := range constraints {
		mc := &constraints[ci]
		for pi := range mc.points {
			pc := &mc.points[pi]
			p := pc.point
			impulse := rl.Vector3Scale(mc.normal, p.NormalImpulse)
			impulse = rl.Vector3Add(impulse, rl.Vector3Scale(mc.tangents[0], p.TangentImpulse[0]))
			impulse = rl.Vector3Add(impulse, rl.Vector3Scale(mc.tangents[1], p.TangentImpulse[1]))
			applyPair(mc, pc, impulse)
			stats.WarmStartImpulse += p.NormalImpulse
		}
	}

	for iter := 0; iter < iterations; iter++ {
		var applied float32
		for ci := range constraints {
			applied += solveManifold(&constraints[ci])
		}
		stats.Iterations = append(stats.Iterations, applied)
	}

	for ci := range constraints {
		for _, pc := range constraints[ci].points {
			stats.NormalImpulse += pc.point.NormalImpulse
		}
	}
	return stats
}

func relativeVelocity(mc *manifoldConstraint, pc *pointConstraint) rl.Vector3 {
	return rl.Vector3Subtract(mc.b.velocityAt(pc.rB), mc.a.velocityAt(pc.rA))
}

// applyPair subtracts impulse from A and adds it to B.
func applyPair(mc *manifoldConstraint, pc *pointConstraint, impulse rl.Vector3) {
	mc.a.apply(rl.Vector3Negate(impulse), pc.rA)
	mc.b.apply(impulse, pc.rB)
}

// solveManifold runs one pass over the points of mc and returns the total
// impulse magnitude it applied.
func solveManifold(mc *manifoldConstraint) float32 {
	var applied float32
	for pi := range mc.points {
		pc := &mc.points[pi]
		p := pc.point

		vn := rl.Vector3DotProduct(relativeVelocity(mc, pc), mc.normal)
		j := (-vn + pc.restTarget + pc.bias) / pc.normalMass

		old := p.NormalImpulse
		p.NormalImpulse = max(old+j, 0)
		dj := p.NormalImpulse - old
		if dj != 0 {
			applyPair(mc, pc, rl.Vector3Scale(mc.normal, dj))
			applied += absf(dj)
		}

		// Friction sees the velocity after the normal impulse.
		vrel := relativeVelocity(mc, pc)
		var next [2]float32
		for k := 0; k < 2; k++ {
			next[k] = p.TangentImpulse[k]
			if pc.tangentK[k] > 0 {
				next[k] -= rl.Vector3DotProduct(vrel, mc.tangents[k]) / pc.tangentK[k]
			}
		}
		limit := mc.friction * p.NormalImpulse
		if l := sqrtf(next[0]*next[0] + next[1]*next[1]); l > limit {
			s := float32(0)
			if l > 0 {
				s = limit / l
			}
			next[0] *= s
			next[1] *= s
		}

		d0 := next[0] - p.TangentImpulse[0]
		d1 := next[1] - p.TangentImpulse[1]
		p.TangentImpulse = next
		if d0 != 0 || d1 != 0 {
			impulse := rl.Vector3Add(rl.Vector3Scale(mc.tangents[0], d0), rl.Vector3Scale(mc.tangents[1], d1))
			applyPair(mc, pc, impulse)
			applied += sqrtf(d0*d0 + d1*d1)
		}
	}
	return applied
}
