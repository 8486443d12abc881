package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// contactMatchThresholdSq is the largest squared distance at which a contact
// point is treated as the same point it was last substep.
const contactMatchThresholdSq = 0.02 * 0.02

// ContactPoint carries accumulated solver impulses for one point.
type ContactPoint struct {
	Position       rl.Vector3
	Penetration    float32
	NormalImpulse  float32
	TangentImpulse [2]float32
}

// ContactManifold holds the contact between one canonical pair for the
// current substep. Normal points from Pair.A to Pair.B.
type ContactManifold struct {
	Pair     Pair
	Normal   rl.Vector3
	Contacts []ContactPoint
}

// newManifold orders the pair by UID, negating the normal when a and b have
// to be swapped.
func newManifold(a, b uint64, info ContactInfo) ContactManifold {
	if b < a {
		a, b = b, a
		info = info.flipped()
	}
	return ContactManifold{
		Pair:   Pair{A: a, B: b},
		Normal: info.Normal,
		Contacts: []ContactPoint{{
			Position:    info.Point,
			Penetration: info.Penetration,
		}},
	}
}

type cachedContact struct {
	position       rl.Vector3
	normalImpulse  float32
	tangentImpulse [2]float32
}

// ContactCache keeps last substep's impulses per pair for warm starting.
// Points are matched by proximity only, so fast relative motion can pair a
// point with the wrong predecessor or miss it entirely.
type ContactCache struct {
	entries map[Pair][]cachedContact
}

func NewContactCache() *ContactCache {
	return &ContactCache{entries: make(map[Pair][]cachedContact)}
}

// WarmStart copies cached impulses onto the nearest current points.
func (c *ContactCache) WarmStart(manifolds []ContactManifold) {
	for mi := range manifolds {
		m := &manifolds[mi]
		cached, ok := c.entries[m.Pair]
		if !ok || len(cached) == 0 {
			continue
		}
		for pi := range m.Contacts {
			p := &m.Contacts[pi]
			best := -1
			bestDist := float32(contactMatchThresholdSq)
			for i := range cached {
				d := rl.Vector3LengthSqr(rl.Vector3Subtract(cached[i].position, p.Position))
				if d < bestDist {
					best, bestDist = i, d
				}
			}
			if best >= 0 {
				p.NormalImpulse = cached[best].normalImpulse
				p.TangentImpulse = cached[best].tangentImpulse
			}
		}
	}
}

// Update replaces the whole cache with the manifolds just solved.
func (c *ContactCache) Update(manifolds []ContactManifold) {
	clear(c.entries)
	for _, m := range manifolds {
		points := make([]cachedContact, len(m.Contacts))
		for i, p := range m.Contacts {
			points[i] = cachedContact{
				position:       p.Position,
				normalImpulse:  p.NormalImpulse,
				tangentImpulse: p.TangentImpulse,
			}
		}
		c.entries[m.Pair] = points
	}
}

// Has reports whether the pair was in contact last substep.
func (c *ContactCache) Has(p Pair) bool {
	_, ok := c.entries[p]
	return ok
}

func (c *ContactCache) Len() int {
	return len(c.entries)
}

// Clear drops every cached pair.
func (c *ContactCache) Clear() {
	clear(c.entries)
}
