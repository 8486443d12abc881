package physics

import (
	"math"
	"sort"

	"rigid3d/internal/components"
)

// Pair is a canonical entity pair with A < B.
type Pair struct {
	A, B uint64
}

func makePair(a, b uint64) Pair {
	if a < b {
		return Pair{A: a, B: b}
	}
	return Pair{A: b, B: a}
}

// Proxy is the broadphase view of one collider. The layout is shared by the
// CPU strategies and the GPU upload.
type Proxy struct {
	ID       uint64
	Index    int
	AABB     AABB
	BodyType components.BodyType
	Sensor   bool
}

// Broadphase produces candidate pairs. Implementations skip sensors and
// static-static pairs and return each overlapping pair once, sorted.
type Broadphase interface {
	FindPairs(proxies []Proxy) []Pair
}

// NewBroadphase returns the CPU strategy named by kind ("grid" or "brute").
func NewBroadphase(kind string) Broadphase {
	if kind == BroadphaseBrute {
		return &BruteForce{}
	}
	return NewSpatialHashGrid()
}

func pairable(a, b *Proxy) bool {
	return !(a.BodyType == components.Static && b.BodyType == components.Static)
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}

// CellKey addresses one spatial hash cell.
type CellKey struct {
	X, Y, Z int32
}

// SpatialHashGrid buckets AABBs into uniform cells sized from the largest
// AABB seen in the current call.
type SpatialHashGrid struct {
	CellSize float32
	cells    map[CellKey][]int
}

func NewSpatialHashGrid() *SpatialHashGrid {
	return &SpatialHashGrid{
		CellSize: 2,
		cells:    make(map[CellKey][]int),
	}
}

func (g *SpatialHashGrid) cellCoord(v float32) int32 {
	return int32(math.Floor(float64(v / g.CellSize)))
}

func (g *SpatialHashGrid) rebuild(proxies []Proxy) {
	clear(g.cells)

	var maxExtent float32
	for i := range proxies {
		if proxies[i].Sensor {
			continue
		}
		maxExtent = max(maxExtent, proxies[i].AABB.MaxExtent())
	}
	g.CellSize = max(maxExtent*2, 1)

	for i := range proxies {
		p := &proxies[i]
		if p.Sensor {
			continue
		}
		minX, minY, minZ := g.cellCoord(p.AABB.Min.X), g.cellCoord(p.AABB.Min.Y), g.cellCoord(p.AABB.Min.Z)
		maxX, maxY, maxZ := g.cellCoord(p.AABB.Max.X), g.cellCoord(p.AABB.Max.Y), g.cellCoord(p.AABB.Max.Z)
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				for z := minZ; z <= maxZ; z++ {
					key := CellKey{x, y, z}
					g.cells[key] = append(g.cells[key], i)
				}
			}
		}
	}
}

func (g *SpatialHashGrid) FindPairs(proxies []Proxy) []Pair {
	g.rebuild(proxies)

	seen := make(map[Pair]struct{})
	var pairs []Pair
	for _, cell := range g.cells {
		for i := 0; i < len(cell); i++ {
			a := &proxies[cell[i]]
			for j := i + 1; j < len(cell); j++ {
				b := &proxies[cell[j]]
				if !pairable(a, b) {
					continue
				}
				pair := makePair(a.ID, b.ID)
				if _, dup := seen[pair]; dup {
					continue
				}
				if a.AABB.Intersects(b.AABB) {
					seen[pair] = struct{}{}
					pairs = append(pairs, pair)
				}
			}
		}
	}
	sortPairs(pairs)
	return pairs
}

// BruteForce tests every proxy against every other. It is the reference the
// grid is checked against.
type BruteForce struct{}

func (BruteForce) FindPairs(proxies []Proxy) []Pair {
	var pairs []Pair
	for i := 0; i < len(proxies); i++ {
		a := &proxies[i]
		if a.Sensor {
			continue
		}
		for j := i + 1; j < len(proxies); j++ {
			b := &proxies[j]
			if b.Sensor || !pairable(a, b) {
				continue
			}
			if a.AABB.Intersects(b.AABB) {
				pairs = append(pairs, makePair(a.ID, b.ID))
			}
		}
	}
	sortPairs(pairs)
	return pairs
}
