package physics

import (
	"sort"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
)

// Body is one entity's physics view for the duration of a substep.
type Body struct {
	ID        uint64
	Object    *engine.GameObject
	Rigidbody *components.Rigidbody
	Collider  *components.Collider // nil for bodies without a shape
}

// immovable reports whether the solver must treat b as infinite mass.
func (b *Body) immovable() bool {
	return !b.Rigidbody.IsDynamic() || b.Rigidbody.IsSleeping
}

// BodySet is the per-substep arena of bodies, sorted by UID. Broadphase
// indices, GPU entity indices and pair canonicalization all use that order.
type BodySet struct {
	Bodies []*Body
	byID   map[uint64]*Body

	proxies    []Proxy
	proxyIndex map[uint64]int
}

// Gather collects every GameObject carrying a Rigidbody.
func Gather(scene *engine.Scene) *BodySet {
	set := &BodySet{byID: make(map[uint64]*Body)}
	for _, obj := range scene.GameObjects {
		if !obj.Active {
			continue
		}
		rb := engine.GetComponent[*components.Rigidbody](obj)
		if rb == nil {
			continue
		}
		b := &Body{
			ID:        obj.UID,
			Object:    obj,
			Rigidbody: rb,
			Collider:  engine.GetComponent[*components.Collider](obj),
		}
		set.Bodies = append(set.Bodies, b)
		set.byID[b.ID] = b
	}
	sort.Slice(set.Bodies, func(i, j int) bool { return set.Bodies[i].ID < set.Bodies[j].ID })
	return set
}

func (s *BodySet) Get(id uint64) (*Body, bool) {
	b, ok := s.byID[id]
	return b, ok
}

func (s *BodySet) Len() int {
	return len(s.Bodies)
}

// Proxies builds broadphase proxies from the current GlobalTransforms.
// Bodies without a collider have none. The result is cached until the next
// call so narrowphase backends can map indices back to bodies.
func (s *BodySet) Proxies() []Proxy {
	s.proxies = s.proxies[:0]
	s.proxyIndex = make(map[uint64]int, len(s.Bodies))
	for _, b := range s.Bodies {
		if b.Collider == nil || b.Collider.Shape == nil {
			continue
		}
		s.proxyIndex[b.ID] = len(s.proxies)
		s.proxies = append(s.proxies, Proxy{
			ID:       b.ID,
			Index:    len(s.proxies),
			AABB:     ComputeAABB(b.Collider.Shape, b.Collider.WorldMatrix()),
			BodyType: b.Rigidbody.BodyType,
			Sensor:   b.Collider.IsSensor,
		})
	}
	return s.proxies
}

// allSpheres reports whether every proxied body is a sphere.
func (s *BodySet) allSpheres() bool {
	for _, p := range s.proxies {
		b := s.byID[p.ID]
		if _, ok := b.Collider.Shape.(components.Sphere); !ok {
			return false
		}
	}
	return true
}
