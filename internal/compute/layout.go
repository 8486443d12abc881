package compute

// Data layouts shared with the WGSL kernels. Field order and padding follow
// WGSL struct alignment (vec3<f32> aligns to 16 bytes), so the Go structs can
// be uploaded with ToBytes as-is.

const (
	// WorkgroupSize matches @workgroup_size in every physics kernel.
	WorkgroupSize = 64

	// MaxPairs bounds the broadphase pair buffer. Pairs past it are dropped.
	MaxPairs = 65536
)

// Body types as seen by the broadphase kernel.
const (
	BodyDynamic   uint32 = 0
	BodyStatic    uint32 = 1
	BodyKinematic uint32 = 2
)

// Shape types understood by the narrowphase kernel. ShapeOther is uploaded
// for anything else and never produces a contact.
const (
	ShapeSphere uint32 = 0
	ShapeBox    uint32 = 1
	ShapeOther  uint32 = 2
)

// GpuAabb is one world AABB. EntityIndex is the position of the body in the
// upload order; the caller maps it back to its own handle.
type GpuAabb struct {
	Min         [3]float32
	EntityIndex uint32
	Max         [3]float32
	BodyType    uint32
}

// CollisionPair holds two upload indices with A < B.
type CollisionPair struct {
	A, B uint32
}

// GpuShapeData describes a sphere or box in world space. Axis* are unit
// columns of the world rotation and Scale* their original lengths.
// Data is [radius,0,0,0] for spheres and [hx,hy,hz,0] for boxes, both
// unscaled.
type GpuShapeData struct {
	Position  [3]float32
	ShapeType uint32
	Data      [4]float32
	AxisX     [3]float32
	ScaleX    float32
	AxisY     [3]float32
	ScaleY    float32
	AxisZ     [3]float32
	ScaleZ    float32
}

// NarrowphaseResult is one resolved pair. Normal points from EntityA to
// EntityB. Records with HasContact == 0 are discarded.
type NarrowphaseResult struct {
	EntityA     uint32
	EntityB     uint32
	Pad0        uint32
	Pad1        uint32
	Normal      [3]float32
	Penetration float32
	Point       [3]float32
	HasContact  uint32
}

// BroadphaseParams is the broadphase uniform. CellSizeBits carries the CPU
// grid cell size as float32 bits; the all-pairs kernel only uses it to skip
// pairs whose centres are further apart than one cell per axis.
type BroadphaseParams struct {
	NumBodies    uint32
	MaxPairs     uint32
	CellSizeBits uint32
	Pad          uint32
}

// NarrowphaseParams is the narrowphase uniform.
type NarrowphaseParams struct {
	NumPairs uint32
	Pad0     uint32
	Pad1     uint32
	Pad2     uint32
}
