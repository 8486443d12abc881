package compute

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a device buffer with its size in bytes.
type Buffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

func (s *System) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*Buffer, error) {
	buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}
	return &Buffer{buffer: buf, size: size}, nil
}

// CreateBufferWithData creates a buffer sized to data and fills it.
func (s *System) CreateBufferWithData(label string, data []byte, usage wgpu.BufferUsage) (*Buffer, error) {
	buf, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{Label: label, Contents: data, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}
	return &Buffer{buffer: buf, size: uint64(len(data))}, nil
}

// WriteBuffer queues an upload; it lands before the next submitted pass.
func (s *System) WriteBuffer(buf *Buffer, offset uint64, data []byte) {
	s.queue.WriteBuffer(buf.buffer, offset, data)
}

func (b *Buffer) Release() {
	b.buffer.Release()
}

func bindGroupEntries(buffers []*Buffer) []wgpu.BindGroupEntry {
	entries := make([]wgpu.BindGroupEntry, len(buffers))
	for i, buf := range buffers {
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: buf.buffer, Size: buf.size}
	}
	return entries
}

// submit encodes one compute pass over bindGroup and queues it.
func (s *System) submit(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y, z uint32) error {
	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, z)
	pass.End()
	pass.Release()
	return s.finish(encoder)
}

func (s *System) finish(encoder *wgpu.CommandEncoder) error {
	commands, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	s.queue.Submit(commands)
	commands.Release()
	return nil
}

// ReadBufferRange copies the first size bytes of buf into a staging buffer
// and returns them. It blocks on device.Poll with no timeout. size is
// clamped to the buffer and rounded up to the 4-byte copy alignment.
func (s *System) ReadBufferRange(buf *Buffer, size uint64) ([]byte, error) {
	size = (min(size, buf.size) + 3) &^ 3
	if size == 0 {
		return nil, nil
	}

	staging, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(buf.buffer, 0, staging, 0, size)
	if err := s.finish(encoder); err != nil {
		return nil, err
	}
	return s.mapRead(staging, size)
}

func (s *System) mapRead(staging *wgpu.Buffer, size uint64) ([]byte, error) {
	mapped := make(chan wgpu.BufferMapAsyncStatus, 1)
	err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		mapped <- status
	})
	if err != nil {
		return nil, fmt.Errorf("failed to map readback buffer: %w", err)
	}
	s.device.Poll(true, nil)
	if status := <-mapped; status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("failed to map readback buffer: %v", status)
	}
	defer staging.Unmap()
	return append([]byte(nil), staging.GetMappedRange(0, uint(size))...), nil
}

// ToBytes views a slice of packed structs as upload bytes.
func ToBytes[T any](data []T) []byte {
	return wgpu.ToBytes(data)
}

// FromBytes views readback bytes as a slice of T.
func FromBytes[T any](data []byte) []T {
	return wgpu.FromBytes[T](data)
}
