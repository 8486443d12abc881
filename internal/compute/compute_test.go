package compute

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestLayoutSizes(t *testing.T) {
	cases := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"GpuAabb", unsafe.Sizeof(GpuAabb{}), 32},
		{"CollisionPair", unsafe.Sizeof(CollisionPair{}), 8},
		{"GpuShapeData", unsafe.Sizeof(GpuShapeData{}), 80},
		{"NarrowphaseResult", unsafe.Sizeof(NarrowphaseResult{}), 48},
		{"BroadphaseParams", unsafe.Sizeof(BroadphaseParams{}), 16},
		{"NarrowphaseParams", unsafe.Sizeof(NarrowphaseParams{}), 16},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("Expected %s to be %d bytes, got %d", c.name, c.want, c.got)
		}
	}
}

func TestLayoutOffsets(t *testing.T) {
	var s GpuShapeData
	if off := unsafe.Offsetof(s.Data); off != 16 {
		t.Errorf("Expected GpuShapeData.Data at 16, got %d", off)
	}
	if off := unsafe.Offsetof(s.AxisZ); off != 64 {
		t.Errorf("Expected GpuShapeData.AxisZ at 64, got %d", off)
	}

	var r NarrowphaseResult
	if off := unsafe.Offsetof(r.Normal); off != 16 {
		t.Errorf("Expected NarrowphaseResult.Normal at 16, got %d", off)
	}
	if off := unsafe.Offsetof(r.HasContact); off != 44 {
		t.Errorf("Expected NarrowphaseResult.HasContact at 44, got %d", off)
	}

	var a GpuAabb
	if off := unsafe.Offsetof(a.Max); off != 16 {
		t.Errorf("Expected GpuAabb.Max at 16, got %d", off)
	}
}

func TestShadersDeclareBindings(t *testing.T) {
	for name, src := range map[string]string{
		"broadphase":  broadphaseShader,
		"narrowphase": narrowphaseShader,
	} {
		if !strings.Contains(src, "@workgroup_size(64)") {
			t.Errorf("%s: expected workgroup size 64", name)
		}
		if !strings.Contains(src, "fn main(") {
			t.Errorf("%s: expected entry point main", name)
		}
		for i := 0; i < 4; i++ {
			tag := "@binding(" + string(rune('0'+i)) + ")"
			if !strings.Contains(src, tag) {
				t.Errorf("%s: expected %s", name, tag)
			}
		}
	}
}

func TestWorkgroupCount(t *testing.T) {
	cases := map[int]uint32{0: 0, 1: 1, 63: 1, 64: 1, 65: 2, 256: 4, 1000: 16}
	for n, want := range cases {
		if got := WorkgroupCount(n); got != want {
			t.Errorf("Expected WorkgroupCount(%d) = %d, got %d", n, want, got)
		}
	}
}

func TestLayoutEntries(t *testing.T) {
	entries := layoutEntries([]Binding{BindingReadOnlyStorage, BindingStorage, BindingUniform})
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	want := []wgpu.BufferBindingType{
		wgpu.BufferBindingTypeReadOnlyStorage,
		wgpu.BufferBindingTypeStorage,
		wgpu.BufferBindingTypeUniform,
	}
	for i, e := range entries {
		if e.Binding != uint32(i) {
			t.Errorf("Expected binding %d, got %d", i, e.Binding)
		}
		if e.Buffer.Type != want[i] {
			t.Errorf("Expected binding %d type %v, got %v", i, want[i], e.Buffer.Type)
		}
		if e.Visibility != wgpu.ShaderStageCompute {
			t.Errorf("Expected compute visibility on binding %d", i)
		}
	}
}

func TestTouchingDropsMisses(t *testing.T) {
	raw := []NarrowphaseResult{
		{EntityA: 0, EntityB: 1, HasContact: 1},
		{EntityA: 0, EntityB: 2},
		{EntityA: 1, EntityB: 2, HasContact: 1},
	}
	got := touching(raw)
	if len(got) != 2 {
		t.Fatalf("Expected 2 contacts, got %d", len(got))
	}
	if got[1].EntityA != 1 || got[1].EntityB != 2 {
		t.Errorf("Expected second contact (1,2), got (%d,%d)", got[1].EntityA, got[1].EntityB)
	}
}

func TestNewPhysicsRequiresSystem(t *testing.T) {
	if Get() != nil {
		t.Skip("compute system already initialized")
	}
	if _, err := NewPhysics(16, 64); err == nil {
		t.Error("Expected error without an initialized compute system")
	}
}

func TestDoubleOnDevice(t *testing.T) {
	if _, err := Initialize(); err != nil {
		t.Skipf("no GPU adapter: %v", err)
	}
	in := make([]float32, 100)
	for i := range in {
		in[i] = float32(i)
	}
	out, err := Get().Double(in)
	if err != nil {
		t.Fatalf("Double failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("Expected %d values, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i]*2 {
			t.Fatalf("Expected out[%d] = %f, got %f", i, in[i]*2, out[i])
		}
	}

	// The second run reuses the cached kernel.
	if _, err := Get().Double(in[:3]); err != nil {
		t.Errorf("Expected cached kernel to dispatch again, got %v", err)
	}
	if n := len(Get().kernels); n != 1 {
		t.Errorf("Expected one cached kernel, got %d", n)
	}
}
