// Package compute runs the collision kernels on a WebGPU device. It owns
// the device, buffers and kernels; callers only see the packed physics
// data layouts.
package compute

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// System is the process-wide compute device. Kernels compiled through
// CachedKernel live as long as the System.
type System struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu      sync.RWMutex
	kernels map[string]*Kernel
}

// AdapterInfo describes the adapter the System picked.
type AdapterInfo struct {
	Name       string
	Vendor     string
	Backend    string
	DeviceType string
	Driver     string
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", a.Name, a.Backend, a.DeviceType)
}

var (
	shared     *System
	sharedOnce sync.Once
	sharedErr  error
)

// Initialize opens the high-performance adapter on first use. Later calls
// return the same adapter, or the same error.
func Initialize() (AdapterInfo, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = open()
	})
	if sharedErr != nil {
		return AdapterInfo{}, sharedErr
	}
	return shared.Info(), nil
}

// Get returns the shared System, or nil before a successful Initialize.
func Get() *System {
	return shared
}

func open() (*System, error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("failed to get GPU adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to get GPU device: %w", err)
	}
	return &System{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		kernels:  make(map[string]*Kernel),
	}, nil
}

func (s *System) Info() AdapterInfo {
	raw := s.adapter.GetInfo()
	return AdapterInfo{
		Name:       raw.Name,
		Vendor:     raw.VendorName,
		Backend:    raw.BackendType.String(),
		DeviceType: raw.AdapterType.String(),
		Driver:     raw.DriverDescription,
	}
}

// CachedKernel returns the kernel registered under name, compiling it the
// first time. Kernels built this way are released with the System.
func (s *System) CachedKernel(name, wgslCode string, bindings ...Binding) (*Kernel, error) {
	s.mu.RLock()
	k, ok := s.kernels[name]
	s.mu.RUnlock()
	if ok {
		return k, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.kernels[name]; ok {
		return k, nil
	}
	k, err := s.CreateKernel(name, wgslCode, "main", bindings...)
	if err != nil {
		return nil, err
	}
	s.kernels[name] = k
	return k, nil
}

// Release frees cached kernels and the device.
func (s *System) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.kernels {
		k.Release()
	}
	s.kernels = nil

	s.queue.Release()
	s.device.Release()
	s.adapter.Release()
	s.instance.Release()
}
