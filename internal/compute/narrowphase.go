package compute

import (
	"fmt"
)

// narrowphaseShader resolves sphere-sphere and sphere-box pairs. Any other
// combination comes back with has_contact = 0.
const narrowphaseShader = `
struct Shape {
    position: vec3<f32>,
    shape_type: u32,
    data: vec4<f32>,
    axis_x: vec3<f32>,
    scale_x: f32,
    axis_y: vec3<f32>,
    scale_y: f32,
    axis_z: vec3<f32>,
    scale_z: f32,
}

struct Pair {
    a: u32,
    b: u32,
}

struct Result {
    entity_a: u32,
    entity_b: u32,
    pad0: u32,
    pad1: u32,
    normal: vec3<f32>,
    penetration: f32,
    point: vec3<f32>,
    has_contact: u32,
}

struct Params {
    num_pairs: u32,
    pad0: u32,
    pad1: u32,
    pad2: u32,
}

struct Contact {
    normal: vec3<f32>,
    penetration: f32,
    point: vec3<f32>,
    hit: u32,
}

const SHAPE_SPHERE: u32 = 0u;
const SHAPE_BOX: u32 = 1u;

@group(0) @binding(0) var<storage, read> shapes: array<Shape>;
@group(0) @binding(1) var<storage, read> pairs: array<Pair>;
@group(0) @binding(2) var<storage, read_write> results: array<Result>;
@group(0) @binding(3) var<uniform> params: Params;

fn no_contact() -> Contact {
    return Contact(vec3<f32>(0.0), 0.0, vec3<f32>(0.0), 0u);
}

fn max_scale(s: Shape) -> f32 {
    return max(s.scale_x, max(s.scale_y, s.scale_z));
}

fn sphere_sphere(a: Shape, b: Shape) -> Contact {
    let ra = a.data.x * max_scale(a);
    let rb = b.data.x * max_scale(b);
    let d = b.position - a.position;
    let dist_sq = dot(d, d);
    let sum = ra + rb;
    if (dist_sq >= sum * sum) {
        return no_contact();
    }
    let dist = sqrt(dist_sq);
    var n = vec3<f32>(0.0, 1.0, 0.0);
    if (dist > 1e-6) {
        n = d / dist;
    }
    let pen = sum - dist;
    return Contact(n, pen, a.position + n * (ra - pen * 0.5), 1u);
}

// Normal points from the box to the sphere.
fn box_sphere(bx: Shape, sp: Shape) -> Contact {
    let r = sp.data.x * max_scale(sp);
    let h = bx.data.xyz * vec3<f32>(bx.scale_x, bx.scale_y, bx.scale_z);
    let d = sp.position - bx.position;
    let l = vec3<f32>(dot(d, bx.axis_x), dot(d, bx.axis_y), dot(d, bx.axis_z));
    let c = clamp(l, -h, h);
    let closest = bx.position + bx.axis_x * c.x + bx.axis_y * c.y + bx.axis_z * c.z;
    let to_sphere = sp.position - closest;
    let dist_sq = dot(to_sphere, to_sphere);
    if (dist_sq >= r * r) {
        return no_contact();
    }

    let dist = sqrt(dist_sq);
    if (dist < 1e-6) {
        var pen = h.x - l.x;
        var n = bx.axis_x;
        if (h.x + l.x < pen) { pen = h.x + l.x; n = -bx.axis_x; }
        if (h.y - l.y < pen) { pen = h.y - l.y; n = bx.axis_y; }
        if (h.y + l.y < pen) { pen = h.y + l.y; n = -bx.axis_y; }
        if (h.z - l.z < pen) { pen = h.z - l.z; n = bx.axis_z; }
        if (h.z + l.z < pen) { pen = h.z + l.z; n = -bx.axis_z; }
        return Contact(n, pen + r, sp.position - n * r, 1u);
    }
    let n = to_sphere / dist;
    return Contact(n, r - dist, closest, 1u);
}

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= params.num_pairs) {
        return;
    }

    let ids = pairs[i];
    let a = shapes[ids.a];
    let b = shapes[ids.b];

    var c = no_contact();
    if (a.shape_type == SHAPE_SPHERE && b.shape_type == SHAPE_SPHERE) {
        c = sphere_sphere(a, b);
    } else if (a.shape_type == SHAPE_BOX && b.shape_type == SHAPE_SPHERE) {
        c = box_sphere(a, b);
    } else if (a.shape_type == SHAPE_SPHERE && b.shape_type == SHAPE_BOX) {
        c = box_sphere(b, a);
        c.normal = -c.normal;
    }

    results[i] = Result(ids.a, ids.b, 0u, 0u, c.normal, c.penetration, c.point, c.hit);
}
`

// runNarrowphase resolves count pairs already sitting in pairs and returns
// only the records that touch.
func (p *Physics) runNarrowphase(shapes []GpuShapeData, pairs *Buffer, count uint32) ([]NarrowphaseResult, error) {
	if count == 0 {
		return nil, nil
	}
	if err := p.ensureCapacity(len(shapes)); err != nil {
		return nil, err
	}

	p.system.WriteBuffer(p.shapeBuffer, 0, ToBytes(shapes))
	p.system.WriteBuffer(p.narrowphaseParams, 0, ToBytes([]NarrowphaseParams{{NumPairs: count}}))

	err := p.narrowphase.Dispatch(WorkgroupCount(int(count)),
		p.shapeBuffer, pairs, p.resultBuffer, p.narrowphaseParams)
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch narrowphase: %w", err)
	}

	data, err := p.system.ReadBufferRange(p.resultBuffer, uint64(count)*48)
	if err != nil {
		return nil, fmt.Errorf("failed to read narrowphase results: %w", err)
	}
	return touching(FromBytes[NarrowphaseResult](data)[:count]), nil
}

func touching(raw []NarrowphaseResult) []NarrowphaseResult {
	out := make([]NarrowphaseResult, 0, len(raw))
	for _, r := range raw {
		if r.HasContact != 0 {
			out = append(out, r)
		}
	}
	return out
}

// ResolvePairs runs the narrowphase kernel over caller-chosen pairs. Pair
// indices refer to positions in shapes.
func (p *Physics) ResolvePairs(shapes []GpuShapeData, pairs []CollisionPair) ([]NarrowphaseResult, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	if len(pairs) > int(p.maxPairs) {
		pairs = pairs[:p.maxPairs]
	}
	p.system.WriteBuffer(p.narrowPairBuffer, 0, ToBytes(pairs))
	return p.runNarrowphase(shapes, p.narrowPairBuffer, uint32(len(pairs)))
}

// DetectAndResolve runs broadphase and narrowphase back to back, feeding the
// kernel's pair buffer straight into the narrowphase. Only the pair count
// and the final contacts cross back to the CPU.
func (p *Physics) DetectAndResolve(aabbs []GpuAabb, shapes []GpuShapeData, cellSize float32) ([]NarrowphaseResult, error) {
	if len(aabbs) < 2 {
		return nil, nil
	}
	count, err := p.runBroadphase(aabbs, cellSize)
	if err != nil {
		return nil, err
	}
	return p.runNarrowphase(shapes, p.pairBuffer, count)
}
