package stream

import (
	"math"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/physics"
)

// BodyState is one rigid body as sent to clients.
type BodyState struct {
	UID      uint64     `json:"uid"`
	Name     string     `json:"name"`
	BodyType string     `json:"bodyType"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // x, y, z, w
	Velocity [3]float32 `json:"velocity"`
	Sleeping bool       `json:"sleeping"`
}

type StepStats struct {
	Substeps int  `json:"substeps"`
	Pairs    int  `json:"pairs"`
	Contacts int  `json:"contacts"`
	Sleeping int  `json:"sleeping"`
	GPU      bool `json:"gpu"`
}

// Snapshot is the message broadcast after every simulation step.
type Snapshot struct {
	Type   string      `json:"type"`
	Step   uint64      `json:"step"`
	Time   float64     `json:"time"` // simulated seconds
	Bodies []BodyState `json:"bodies"`
	Stats  StepStats   `json:"stats"`
}

// Capture records every active object carrying a Rigidbody. Static bodies
// are included so clients can draw the whole scene from one message.
func Capture(scene *engine.Scene, world *physics.PhysicsWorld, step uint64, simTime float64) Snapshot {
	snap := Snapshot{Type: "snapshot", Step: step, Time: simTime}
	for _, g := range scene.GameObjects {
		if !g.Active {
			continue
		}
		rb := engine.GetComponent[*components.Rigidbody](g)
		if rb == nil {
			continue
		}
		p, q, v := g.Transform.Position, g.Transform.Rotation, rb.LinearVelocity
		snap.Bodies = append(snap.Bodies, BodyState{
			UID:      g.UID,
			Name:     g.Name,
			BodyType: rb.BodyType.String(),
			Position: [3]float32{finite(p.X), finite(p.Y), finite(p.Z)},
			Rotation: [4]float32{finite(q.X), finite(q.Y), finite(q.Z), finiteOr(q.W, 1)},
			Velocity: [3]float32{finite(v.X), finite(v.Y), finite(v.Z)},
			Sleeping: rb.IsSleeping,
		})
	}
	if world != nil {
		s := world.Stats()
		snap.Stats = StepStats{
			Substeps: s.LastSubsteps,
			Pairs:    s.PairCount,
			Contacts: s.ContactCount,
			Sleeping: s.SleepingCount,
			GPU:      s.UsingGPU,
		}
	}
	return snap
}

// encoding/json rejects NaN and Inf
func finite(v float32) float32 {
	return finiteOr(v, 0)
}

func finiteOr(v, fallback float32) float32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return v
}
