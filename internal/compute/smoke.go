package compute

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// doubleShader doubles every number in a buffer.
const doubleShader = `
@group(0) @binding(0)
var<storage, read_write> data: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&data)) {
        data[idx] = data[idx] * 2.0;
    }
}
`

// Double runs a one-buffer kernel that doubles values on the GPU. It is the
// end-to-end check for upload, dispatch and readback.
func (s *System) Double(values []float32) ([]float32, error) {
	if len(values) == 0 {
		return nil, nil
	}

	k, err := s.CachedKernel("double", doubleShader, BindingStorage)
	if err != nil {
		return nil, err
	}

	buf, err := s.CreateBufferWithData("double_data", ToBytes(values),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	if err := k.Dispatch(WorkgroupCount(len(values)), buf); err != nil {
		return nil, err
	}

	data, err := s.ReadBufferRange(buf, uint64(len(values))*4)
	if err != nil {
		return nil, err
	}
	return append([]float32(nil), FromBytes[float32](data)...), nil
}
