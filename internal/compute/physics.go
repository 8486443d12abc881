package compute

import (
	"fmt"
	"log"

	"github.com/cogentcore/webgpu/wgpu"
)

// Physics holds the buffers and kernels for GPU broadphase and narrowphase.
// Body buffers grow on demand; pair buffers are fixed at maxPairs.
type Physics struct {
	system      *System
	broadphase  *Kernel
	narrowphase *Kernel

	capacity  int
	maxPairs  uint32
	lastPairs uint32 // pairs written by the last broadphase dispatch

	aabbBuffer        *Buffer // Input: GpuAabb per body
	shapeBuffer       *Buffer // Input: GpuShapeData per body
	pairBuffer        *Buffer // Output: broadphase pairs
	countBuffer       *Buffer // Output: broadphase pair count
	narrowPairBuffer  *Buffer // Input: CPU-filtered pairs for the narrowphase
	resultBuffer      *Buffer // Output: NarrowphaseResult per pair
	broadphaseParams  *Buffer
	narrowphaseParams *Buffer
}

// NewPhysics builds the kernels and buffers for capacity bodies on the
// global System. Initialize must have succeeded first.
func NewPhysics(capacity, maxPairs int) (*Physics, error) {
	sys := Get()
	if sys == nil {
		return nil, fmt.Errorf("compute system not initialized")
	}
	if capacity < 2 {
		capacity = 2
	}
	if maxPairs <= 0 {
		maxPairs = MaxPairs
	}

	p := &Physics{system: sys, maxPairs: uint32(maxPairs)}

	var err error
	p.broadphase, err = sys.CreateKernel("broadphase", broadphaseShader, "main",
		BindingReadOnlyStorage, BindingStorage, BindingStorage, BindingUniform)
	if err != nil {
		return nil, err
	}
	p.narrowphase, err = sys.CreateKernel("narrowphase", narrowphaseShader, "main",
		BindingReadOnlyStorage, BindingReadOnlyStorage, BindingStorage, BindingUniform)
	if err != nil {
		p.Release()
		return nil, err
	}

	if err := p.createPairBuffers(); err != nil {
		p.Release()
		return nil, err
	}
	if err := p.createBodyBuffers(capacity); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *Physics) createPairBuffers() error {
	var err error
	pairBytes := uint64(p.maxPairs) * 8
	if p.pairBuffer, err = p.system.CreateBuffer("pairs", pairBytes,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if p.countBuffer, err = p.system.CreateBuffer("pair_count", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if p.narrowPairBuffer, err = p.system.CreateBuffer("narrow_pairs", pairBytes,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if p.resultBuffer, err = p.system.CreateBuffer("narrow_results", uint64(p.maxPairs)*48,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc); err != nil {
		return err
	}
	if p.broadphaseParams, err = p.system.CreateBuffer("broadphase_params", 16,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if p.narrowphaseParams, err = p.system.CreateBuffer("narrowphase_params", 16,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	return nil
}

func (p *Physics) createBodyBuffers(capacity int) error {
	aabb, err := p.system.CreateBuffer("aabbs", uint64(capacity)*32,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	shape, err := p.system.CreateBuffer("shapes", uint64(capacity)*80,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		aabb.Release()
		return err
	}

	if p.aabbBuffer != nil {
		p.aabbBuffer.Release()
	}
	if p.shapeBuffer != nil {
		p.shapeBuffer.Release()
	}
	p.aabbBuffer, p.shapeBuffer = aabb, shape
	p.capacity = capacity
	return nil
}

// ensureCapacity grows the body buffers to hold n bodies, at least doubling.
func (p *Physics) ensureCapacity(n int) error {
	if n <= p.capacity {
		return nil
	}
	next := max(n, p.capacity*2)
	if err := p.createBodyBuffers(next); err != nil {
		return fmt.Errorf("failed to grow physics buffers: %w", err)
	}
	log.Printf("Compute: physics buffers grown to %d bodies", next)
	return nil
}

// Capacity returns the number of bodies the current buffers hold.
func (p *Physics) Capacity() int {
	return p.capacity
}

// MaxPairs returns the pair buffer size.
func (p *Physics) MaxPairs() int {
	return int(p.maxPairs)
}

// LastPairCount returns how many pairs the last broadphase dispatch kept.
func (p *Physics) LastPairCount() int {
	return int(p.lastPairs)
}

// Release frees GPU resources.
func (p *Physics) Release() {
	for _, b := range []*Buffer{
		p.aabbBuffer, p.shapeBuffer, p.pairBuffer, p.countBuffer,
		p.narrowPairBuffer, p.resultBuffer, p.broadphaseParams, p.narrowphaseParams,
	} {
		if b != nil {
			b.Release()
		}
	}
	p.aabbBuffer, p.shapeBuffer, p.pairBuffer, p.countBuffer = nil, nil, nil, nil
	p.narrowPairBuffer, p.resultBuffer, p.broadphaseParams, p.narrowphaseParams = nil, nil, nil, nil

	if p.broadphase != nil {
		p.broadphase.Release()
		p.broadphase = nil
	}
	if p.narrowphase != nil {
		p.narrowphase.Release()
		p.narrowphase = nil
	}
}
