// Package batch assembles variable-sized samples into rectangular padded
// batches with validity masks.
//
// Two container types cover the two element ranks that occur in practice:
// Nested3D batches sequences of feature vectors and Nested4D batches
// images. Both pad with a caller-chosen value, derive a boolean mask where
// true marks padding, and reconstruct the original elements exactly.
// Consumers must rely on the mask, never on the padding value, to tell
// real data from filler.
package batch

import (
	"fmt"
	"sync"

	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/parallel"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// Nested3D is a batch of variable-length sequences padded to a common
// length: data is [N, L, D] with the true length of sample i recorded in
// lengths[i]. The padding mask is derived on first request and cached.
type Nested3D struct {
	data    *tensor.RawTensor // [N, L, D]
	lengths []int

	mu   sync.Mutex
	mask *tensor.RawTensor // [N, L] Bool, lazily built
}

// NewNested3D wraps an already padded [N, L, D] tensor. The padded length
// may exceed every sample's true length (over-padding); each length must
// satisfy 0 < lengths[i] <= L and N must match len(lengths).
func NewNested3D(data *tensor.RawTensor, lengths []int) (*Nested3D, error) {
	shape := data.Shape()
	if shape.Rank() != 3 {
		return nil, fmt.Errorf("batch: sequence data must be [N, L, D], got %v", shape)
	}
	if shape[0] != len(lengths) {
		return nil, fmt.Errorf("batch: %d samples but %d lengths", shape[0], len(lengths))
	}
	for i, l := range lengths {
		if l <= 0 || l > shape[1] {
			return nil, mismatch(i, "length", fmt.Sprintf("1..%d", shape[1]), l)
		}
	}

	return &Nested3D{
		data:    data,
		lengths: append([]int(nil), lengths...),
	}, nil
}

// FromSequences right-pads a non-empty set of [L_i, D] elements to the
// longest length with padValue and stacks them into one [N, L_max, D]
// batch. Every element must share D and the dtype; disagreement is a
// *ShapeMismatchError, zero elements is ErrEmptyBatch.
func FromSequences(elements []*tensor.RawTensor, padValue float64) (*Nested3D, error) {
	if err := checkElements(elements, 2, 1, "feature width"); err != nil {
		return nil, err
	}

	n := len(elements)
	width := elements[0].Shape()[1]
	lengths := make([]int, n)
	maxLen := 0
	for i, el := range elements {
		lengths[i] = el.Shape()[0]
		maxLen = max(maxLen, lengths[i])
	}

	data, err := tensor.NewRaw(tensor.Shape{n, maxLen, width}, elements[0].DType(), elements[0].Device())
	if err != nil {
		return nil, err
	}
	fill(data, padValue)

	// Sample i occupies a contiguous [L_i, D] prefix of its [L_max, D]
	// slot, so one byte copy per sample suffices.
	es := data.DType().Size()
	slot := maxLen * width * es
	dst := data.Bytes()
	for i, el := range elements {
		copy(dst[i*slot:], el.Bytes())
	}

	return &Nested3D{data: data, lengths: lengths}, nil
}

// Data returns the padded [N, L, D] tensor.
func (b *Nested3D) Data() *tensor.RawTensor {
	return b.data
}

// Lengths returns the true length of each sample. Treat as read-only.
func (b *Nested3D) Lengths() []int {
	return b.lengths
}

// Len returns the number of samples.
func (b *Nested3D) Len() int {
	return len(b.lengths)
}

// Shape returns the padded tensor's shape [N, L, D].
func (b *Nested3D) Shape() tensor.Shape {
	return b.data.Shape()
}

// Device returns the device the batch resides on.
func (b *Nested3D) Device() device.Device {
	return b.data.Device()
}

// Mask returns the [N, L] padding mask, where true marks padding:
// mask[i, j] == (j >= lengths[i]). The mask is computed once and cached;
// concurrent callers observe the same tensor. Treat as read-only.
func (b *Nested3D) Mask() *tensor.RawTensor {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mask != nil {
		return b.mask
	}

	shape := b.data.Shape()
	n, padded := shape[0], shape[1]

	mask, err := tensor.Full(tensor.Shape{n, padded}, true, b.data.Device())
	if err != nil {
		panic(fmt.Sprintf("batch: mask allocation: %v", err))
	}

	flags := mask.AsBool()
	parallel.ForSamples(n, padded, func(i int) {
		row := flags[i*padded : (i+1)*padded]
		for j := 0; j < b.lengths[i]; j++ {
			row[j] = false
		}
	}, parallel.DefaultConfig())

	b.mask = mask
	return mask
}

// To returns a copy of the batch resident on dev. The receiver is left
// untouched; a cached mask is moved along instead of being recomputed.
func (b *Nested3D) To(dev device.Device) *Nested3D {
	moved := &Nested3D{
		data:    b.data.ToDevice(dev),
		lengths: append([]int(nil), b.lengths...),
	}

	b.mu.Lock()
	if b.mask != nil {
		moved.mask = b.mask.ToDevice(dev)
	}
	b.mu.Unlock()

	return moved
}

// Sequences unpacks the batch into N independent [L_i, D] tensors equal to
// the elements the batch was built from, whatever the pad value was.
func (b *Nested3D) Sequences() []*tensor.RawTensor {
	shape := b.data.Shape()
	padded, width := shape[1], shape[2]
	es := b.data.DType().Size()
	src := b.data.Bytes()

	out := make([]*tensor.RawTensor, len(b.lengths))
	for i, length := range b.lengths {
		el, err := tensor.NewRaw(tensor.Shape{length, width}, b.data.DType(), b.data.Device())
		if err != nil {
			panic(fmt.Sprintf("batch: unreachable: %v", err))
		}
		start := i * padded * width * es
		copy(el.Bytes(), src[start:start+length*width*es])
		out[i] = el
	}
	return out
}

// String returns a short description of the batch.
func (b *Nested3D) String() string {
	return fmt.Sprintf("Nested3D%v on %s", b.data.Shape(), b.data.Device())
}
