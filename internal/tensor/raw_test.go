package tensor

import (
	"testing"

	"github.com/visgator-ml/visgator/internal/device"
)

func cpuDev() device.Device {
	return device.Device{}
}

func cudaDev(t *testing.T) device.Device {
	t.Helper()
	prev := device.SetCounter(device.FixedCounter(1))
	t.Cleanup(func() { device.SetCounter(prev) })
	d, err := device.Parse("cuda:0")
	if err != nil {
		t.Fatalf("Parse(cuda:0) failed: %v", err)
	}
	return d
}

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Bool, 1},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeOf(t *testing.T) {
	if dt := DataTypeOf[float32](); dt != Float32 {
		t.Errorf("DataTypeOf[float32]() = %v, want Float32", dt)
	}
	if dt := DataTypeOf[int64](); dt != Int64 {
		t.Errorf("DataTypeOf[int64]() = %v, want Int64", dt)
	}
	if dt := DataTypeOf[bool](); dt != Bool {
		t.Errorf("DataTypeOf[bool]() = %v, want Bool", dt)
	}
}

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape    Shape
		expected int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{3, 4}, 12},
		{Shape{2, 3, 4}, 24},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.expected {
			t.Errorf("Shape%v.NumElements() = %d, want %d", tt.shape, got, tt.expected)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	for _, s := range []Shape{{1}, {3, 4}, {2, 3, 4}} {
		if err := s.Validate(); err != nil {
			t.Errorf("Shape%v.Validate() failed: %v", s, err)
		}
	}

	for _, s := range []Shape{{0}, {3, 0}, {-1}, {3, -4}} {
		if err := s.Validate(); err == nil {
			t.Errorf("Shape%v.Validate() should fail but didn't", s)
		}
	}
}

func TestShapeStrides(t *testing.T) {
	tests := []struct {
		shape   Shape
		strides []int
	}{
		{Shape{4}, []int{1}},
		{Shape{3, 4}, []int{4, 1}},
		{Shape{2, 3, 4}, []int{12, 4, 1}},
	}

	for _, tt := range tests {
		got := tt.shape.Strides()
		for i := range tt.strides {
			if got[i] != tt.strides[i] {
				t.Errorf("Shape%v.Strides() = %v, want %v", tt.shape, got, tt.strides)
				break
			}
		}
	}
}

func TestFromSlice(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, cpuDev())
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	if !raw.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != Float32 {
		t.Errorf("dtype = %v, want Float32", raw.DType())
	}

	data := raw.AsFloat32()
	for i, want := range []float32{1, 2, 3, 4, 5, 6} {
		if data[i] != want {
			t.Errorf("data[%d] = %v, want %v", i, data[i], want)
		}
	}
}

func TestFromSliceSizeMismatch(t *testing.T) {
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, cpuDev()); err == nil {
		t.Error("FromSlice with wrong element count should fail")
	}
}

func TestFull(t *testing.T) {
	raw, err := Full(Shape{2, 2}, float64(-1.5), cpuDev())
	if err != nil {
		t.Fatalf("Full failed: %v", err)
	}
	for i, v := range raw.AsFloat64() {
		if v != -1.5 {
			t.Errorf("data[%d] = %v, want -1.5", i, v)
		}
	}
}

func TestAsPanicsOnDTypeMismatch(t *testing.T) {
	raw, err := NewRaw(Shape{2}, Float32, cpuDev())
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("AsFloat64 on a Float32 tensor should panic")
		}
	}()
	raw.AsFloat64()
}

func TestCloneIsDeep(t *testing.T) {
	raw, err := FromSlice([]int32{1, 2, 3}, Shape{3}, cpuDev())
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	clone := raw.Clone()
	clone.AsInt32()[0] = 99

	if raw.AsInt32()[0] != 1 {
		t.Error("mutating a clone changed the original")
	}
	if !raw.Shape().Equal(clone.Shape()) {
		t.Error("clone shape differs from original")
	}
}

func TestToDevice(t *testing.T) {
	cuda := cudaDev(t)

	raw, err := FromSlice([]float32{1, 2}, Shape{2}, cpuDev())
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	moved := raw.ToDevice(cuda)
	if moved.Device() != cuda {
		t.Errorf("moved device = %v, want %v", moved.Device(), cuda)
	}
	if raw.Device() != cpuDev() {
		t.Error("ToDevice mutated the receiver's device")
	}
	if !raw.Equal(moved) {
		t.Error("moved tensor content differs from original")
	}

	// Same-device transfer shares the buffer.
	same := raw.ToDevice(cpuDev())
	same.AsFloat32()[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("same-device transfer should share the backing buffer")
	}
}

func TestReshape(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, cpuDev())
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	flat, err := raw.Reshape(Shape{6})
	if err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if !flat.Shape().Equal(Shape{6}) {
		t.Errorf("reshaped shape = %v, want [6]", flat.Shape())
	}
	if flat.AsFloat32()[5] != 6 {
		t.Error("reshape changed element order")
	}

	if _, err := raw.Reshape(Shape{4}); err == nil {
		t.Error("Reshape to mismatched element count should fail")
	}
}
