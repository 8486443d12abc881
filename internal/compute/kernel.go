package compute

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Binding is the access mode of one @binding slot in group 0.
type Binding int

const (
	BindingReadOnlyStorage Binding = iota
	BindingStorage
	BindingUniform
)

func (b Binding) bufferType() wgpu.BufferBindingType {
	switch b {
	case BindingStorage:
		return wgpu.BufferBindingTypeStorage
	case BindingUniform:
		return wgpu.BufferBindingTypeUniform
	default:
		return wgpu.BufferBindingTypeReadOnlyStorage
	}
}

// layoutEntries maps binding modes to layout entries numbered from 0.
func layoutEntries(bindings []Binding) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
	for i, b := range bindings {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: b.bufferType()},
		}
	}
	return entries
}

// Kernel is a compute pipeline with an explicit bind group layout. It is
// built once and dispatched every substep.
type Kernel struct {
	system         *System
	name           string
	bindings       []Binding
	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	shader         *wgpu.ShaderModule
	pipeline       *wgpu.ComputePipeline
}

// CreateKernel compiles wgslCode with one binding per entry in bindings.
func (s *System) CreateKernel(name, wgslCode, entryPoint string, bindings ...Binding) (*Kernel, error) {
	k := &Kernel{system: s, name: name, bindings: bindings}

	var err error
	k.layout, err = s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   name + "_layout",
		Entries: layoutEntries(bindings),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bind group layout: %w", name, err)
	}

	k.pipelineLayout, err = s.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name + "_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{k.layout},
	})
	if err != nil {
		k.Release()
		return nil, fmt.Errorf("failed to create %s pipeline layout: %w", name, err)
	}

	k.shader, err = s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgslCode},
	})
	if err != nil {
		k.Release()
		return nil, fmt.Errorf("failed to create %s shader: %w", name, err)
	}

	k.pipeline, err = s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  name + "_pipeline",
		Layout: k.pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     k.shader,
			EntryPoint: entryPoint,
		},
	})
	if err != nil {
		k.Release()
		return nil, fmt.Errorf("failed to create %s pipeline: %w", name, err)
	}
	return k, nil
}

// Dispatch binds buffers in @binding order and runs workgroups groups.
func (k *Kernel) Dispatch(workgroups uint32, buffers ...*Buffer) error {
	if len(buffers) != len(k.bindings) {
		return fmt.Errorf("kernel %s wants %d buffers, got %d", k.name, len(k.bindings), len(buffers))
	}
	if workgroups == 0 {
		return nil
	}

	bindGroup, err := k.system.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.name + "_bindgroup",
		Layout:  k.layout,
		Entries: bindGroupEntries(buffers),
	})
	if err != nil {
		return fmt.Errorf("failed to create %s bind group: %w", k.name, err)
	}
	defer bindGroup.Release()

	return k.system.submit(k.pipeline, bindGroup, workgroups, 1, 1)
}

func (k *Kernel) Release() {
	if k.pipeline != nil {
		k.pipeline.Release()
	}
	if k.shader != nil {
		k.shader.Release()
	}
	if k.pipelineLayout != nil {
		k.pipelineLayout.Release()
	}
	if k.layout != nil {
		k.layout.Release()
	}
}

// WorkgroupCount is ceil(n / WorkgroupSize).
func WorkgroupCount(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32((n + WorkgroupSize - 1) / WorkgroupSize)
}
