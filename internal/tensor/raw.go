package tensor

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/visgator-ml/visgator/internal/device"
)

// RawTensor is a dense row-major array with runtime type information and a
// device tag. It owns its backing buffer; none of its methods mutate the
// receiver after construction except through the typed slice views, which
// callers use only while populating a freshly created tensor.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device device.Device
}

// NewRaw allocates a zero-filled tensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, dev device.Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.Strides(),
		dtype:  dtype,
		device: dev,
	}, nil
}

// FromSlice copies a Go slice into a new tensor of the given shape.
func FromSlice[T DType](data []T, shape Shape, dev device.Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, DataTypeOf[T](), dev)
	if err != nil {
		return nil, err
	}
	copy(As[T](raw), data)
	return raw, nil
}

// Full allocates a tensor with every element set to value.
func Full[T DType](shape Shape, value T, dev device.Device) (*RawTensor, error) {
	raw, err := NewRaw(shape, DataTypeOf[T](), dev)
	if err != nil {
		return nil, err
	}
	data := As[T](raw)
	for i := range data {
		data[i] = value
	}
	return raw, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's row-major strides, in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the device the tensor resides on.
func (r *RawTensor) Device() device.Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the backing buffer size in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// Bytes returns the raw backing buffer.
// Direct access to underlying memory; use with caution.
func (r *RawTensor) Bytes() []byte {
	return r.data
}

// As interprets the tensor's buffer as a []T.
// Panics if T does not match the tensor's dtype.
func As[T DType](r *RawTensor) []T {
	if want := DataTypeOf[T](); r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat32 interprets the buffer as []float32. Panics on dtype mismatch.
func (r *RawTensor) AsFloat32() []float32 { return As[float32](r) }

// AsFloat64 interprets the buffer as []float64. Panics on dtype mismatch.
func (r *RawTensor) AsFloat64() []float64 { return As[float64](r) }

// AsInt32 interprets the buffer as []int32. Panics on dtype mismatch.
func (r *RawTensor) AsInt32() []int32 { return As[int32](r) }

// AsInt64 interprets the buffer as []int64. Panics on dtype mismatch.
func (r *RawTensor) AsInt64() []int64 { return As[int64](r) }

// AsUint8 interprets the buffer as []uint8. Panics on dtype mismatch.
func (r *RawTensor) AsUint8() []uint8 { return As[uint8](r) }

// AsBool interprets the buffer as []bool. Panics on dtype mismatch.
func (r *RawTensor) AsBool() []bool { return As[bool](r) }

// Clone returns a deep copy on the same device.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// ToDevice returns a tensor resident on dev. When the data already lives
// there the backing buffer is shared: tensors are never mutated in place
// after construction, so read-only sharing is safe. Otherwise the buffer
// is copied under the new device tag.
func (r *RawTensor) ToDevice(dev device.Device) *RawTensor {
	if r.device == dev {
		shared := *r
		return &shared
	}
	moved := r.Clone()
	moved.device = dev
	return moved
}

// Reshape returns a tensor sharing the backing buffer with a new shape.
// The new shape must cover the same number of elements.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v to %v: element count differs", r.shape, shape)
	}
	return &RawTensor{
		data:   r.data,
		shape:  shape.Clone(),
		stride: shape.Strides(),
		dtype:  r.dtype,
		device: r.device,
	}, nil
}

// Equal reports whether two tensors have the same dtype, shape and
// element bytes. The device tag is ignored.
func (r *RawTensor) Equal(other *RawTensor) bool {
	return r.dtype == other.dtype &&
		r.shape.Equal(other.shape) &&
		bytes.Equal(r.data, other.data)
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}
