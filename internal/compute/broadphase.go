// GPU-accelerated broad-phase collision detection
package compute

import (
	"fmt"
	"math"
)

// broadphaseShader tests every AABB against every AABB with a higher index.
// Each thread owns one body, so pairs come out unique without a dedup pass.
const broadphaseShader = `
struct Aabb {
    min: vec3<f32>,
    entity_index: u32,
    max: vec3<f32>,
    body_type: u32,
}

struct Pair {
    a: u32,
    b: u32,
}

struct Params {
    num_bodies: u32,
    max_pairs: u32,
    cell_size_bits: u32,
    pad: u32,
}

const BODY_STATIC: u32 = 1u;

@group(0) @binding(0) var<storage, read> aabbs: array<Aabb>;
@group(0) @binding(1) var<storage, read_write> pairs: array<Pair>;
@group(0) @binding(2) var<storage, read_write> pair_count: atomic<u32>;
@group(0) @binding(3) var<uniform> params: Params;

fn overlaps(a: Aabb, b: Aabb) -> bool {
    return all(a.min <= b.max) && all(a.max >= b.min);
}

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= params.num_bodies) {
        return;
    }

    let a = aabbs[i];
    let cell = bitcast<f32>(params.cell_size_bits);
    let center_a = (a.min + a.max) * 0.5;

    for (var j = i + 1u; j < params.num_bodies; j = j + 1u) {
        let b = aabbs[j];
        if (a.body_type == BODY_STATIC && b.body_type == BODY_STATIC) {
            continue;
        }

        // Overlapping boxes can never be more than one cell apart.
        let center_b = (b.min + b.max) * 0.5;
        if (any(abs(center_b - center_a) > vec3<f32>(cell))) {
            continue;
        }

        if (overlaps(a, b)) {
            let idx = atomicAdd(&pair_count, 1u);
            if (idx < params.max_pairs) {
                pairs[idx] = Pair(a.entity_index, b.entity_index);
            }
        }
    }
}
`

// runBroadphase uploads aabbs, dispatches the pair kernel and returns the
// number of pairs it wrote, clamped to the pair buffer size.
func (p *Physics) runBroadphase(aabbs []GpuAabb, cellSize float32) (uint32, error) {
	if err := p.ensureCapacity(len(aabbs)); err != nil {
		return 0, err
	}

	if cellSize <= 0 || math.IsNaN(float64(cellSize)) {
		cellSize = math.MaxFloat32
	}
	params := BroadphaseParams{
		NumBodies:    uint32(len(aabbs)),
		MaxPairs:     p.maxPairs,
		CellSizeBits: math.Float32bits(cellSize),
	}

	p.system.WriteBuffer(p.aabbBuffer, 0, ToBytes(aabbs))
	p.system.WriteBuffer(p.countBuffer, 0, ToBytes([]uint32{0}))
	p.system.WriteBuffer(p.broadphaseParams, 0, ToBytes([]BroadphaseParams{params}))

	err := p.broadphase.Dispatch(WorkgroupCount(len(aabbs)),
		p.aabbBuffer, p.pairBuffer, p.countBuffer, p.broadphaseParams)
	if err != nil {
		return 0, fmt.Errorf("failed to dispatch broadphase: %w", err)
	}

	countData, err := p.system.ReadBufferRange(p.countBuffer, 4)
	if err != nil {
		return 0, fmt.Errorf("failed to read pair count: %w", err)
	}
	p.lastPairs = min(FromBytes[uint32](countData)[0], p.maxPairs)
	return p.lastPairs, nil
}

// DetectPairs finds overlapping AABB pairs, skipping static-static ones.
// Indices refer to positions in aabbs. Results past the pair capacity are
// silently dropped.
func (p *Physics) DetectPairs(aabbs []GpuAabb, cellSize float32) ([]CollisionPair, error) {
	if len(aabbs) < 2 {
		return nil, nil
	}

	count, err := p.runBroadphase(aabbs, cellSize)
	if err != nil || count == 0 {
		return nil, err
	}

	pairData, err := p.system.ReadBufferRange(p.pairBuffer, uint64(count)*8)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs: %w", err)
	}
	pairs := make([]CollisionPair, count)
	copy(pairs, FromBytes[CollisionPair](pairData))
	return pairs, nil
}
