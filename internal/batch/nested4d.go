package batch

import (
	"fmt"
	"sync"

	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/parallel"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// Size is the true spatial extent of one sample inside a padded image batch.
type Size struct {
	H, W int
}

// Nested4D is a batch of variable-sized images padded to a common canvas:
// data is [N, C, H, W] with the true extent of sample i recorded in
// sizes[i]. Each sample occupies the top-left corner of its canvas; the
// padding mask is derived on first request and cached.
type Nested4D struct {
	data  *tensor.RawTensor // [N, C, H, W]
	sizes []Size

	mu   sync.Mutex
	mask *tensor.RawTensor // [N, H, W] Bool, lazily built
}

// NewNested4D wraps an already padded [N, C, H, W] tensor. The canvas may
// exceed every sample's extent (over-padding); each size must fit inside
// it and N must match len(sizes).
func NewNested4D(data *tensor.RawTensor, sizes []Size) (*Nested4D, error) {
	shape := data.Shape()
	if shape.Rank() != 4 {
		return nil, fmt.Errorf("batch: image data must be [N, C, H, W], got %v", shape)
	}
	if shape[0] != len(sizes) {
		return nil, fmt.Errorf("batch: %d samples but %d sizes", shape[0], len(sizes))
	}
	for i, s := range sizes {
		if s.H <= 0 || s.H > shape[2] {
			return nil, mismatch(i, "height", fmt.Sprintf("1..%d", shape[2]), s.H)
		}
		if s.W <= 0 || s.W > shape[3] {
			return nil, mismatch(i, "width", fmt.Sprintf("1..%d", shape[3]), s.W)
		}
	}

	return &Nested4D{
		data:  data,
		sizes: append([]Size(nil), sizes...),
	}, nil
}

// FromImages pads a non-empty set of [C, h_i, w_i] elements to the largest
// height and width with padValue, each placed at the top-left corner of its
// canvas, and stacks them into one [N, C, H_max, W_max] batch. Every
// element must share C and the dtype; disagreement is a
// *ShapeMismatchError, zero elements is ErrEmptyBatch.
func FromImages(elements []*tensor.RawTensor, padValue float64) (*Nested4D, error) {
	if err := checkElements(elements, 3, 0, "channel count"); err != nil {
		return nil, err
	}

	n := len(elements)
	channels := elements[0].Shape()[0]
	sizes := make([]Size, n)
	maxH, maxW := 0, 0
	for i, el := range elements {
		sizes[i] = Size{H: el.Shape()[1], W: el.Shape()[2]}
		maxH = max(maxH, sizes[i].H)
		maxW = max(maxW, sizes[i].W)
	}

	data, err := tensor.NewRaw(tensor.Shape{n, channels, maxH, maxW}, elements[0].DType(), elements[0].Device())
	if err != nil {
		return nil, err
	}
	fill(data, padValue)

	es := data.DType().Size()
	dst := data.Bytes()
	parallel.ForSamples(n, channels*maxH*maxW, func(i int) {
		src := elements[i].Bytes()
		h, w := sizes[i].H, sizes[i].W
		for c := 0; c < channels; c++ {
			for y := 0; y < h; y++ {
				srcOff := ((c*h + y) * w) * es
				dstOff := ((((i*channels+c)*maxH + y) * maxW) * es)
				copy(dst[dstOff:dstOff+w*es], src[srcOff:srcOff+w*es])
			}
		}
	}, parallel.DefaultConfig())

	return &Nested4D{data: data, sizes: sizes}, nil
}

// Data returns the padded [N, C, H, W] tensor.
func (b *Nested4D) Data() *tensor.RawTensor {
	return b.data
}

// Sizes returns the true extent of each sample. Treat as read-only.
func (b *Nested4D) Sizes() []Size {
	return b.sizes
}

// Len returns the number of samples.
func (b *Nested4D) Len() int {
	return len(b.sizes)
}

// Shape returns the padded tensor's shape [N, C, H, W].
func (b *Nested4D) Shape() tensor.Shape {
	return b.data.Shape()
}

// Device returns the device the batch resides on.
func (b *Nested4D) Device() device.Device {
	return b.data.Device()
}

// Mask returns the [N, H, W] padding mask, where true marks padding:
// mask[i, y, x] == (y >= h_i || x >= w_i). Computed once and cached;
// concurrent callers observe the same tensor. Treat as read-only.
func (b *Nested4D) Mask() *tensor.RawTensor {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mask != nil {
		return b.mask
	}

	shape := b.data.Shape()
	n, maxH, maxW := shape[0], shape[2], shape[3]

	mask, err := tensor.Full(tensor.Shape{n, maxH, maxW}, true, b.data.Device())
	if err != nil {
		panic(fmt.Sprintf("batch: mask allocation: %v", err))
	}

	flags := mask.AsBool()
	parallel.ForSamples(n, maxH*maxW, func(i int) {
		canvas := flags[i*maxH*maxW : (i+1)*maxH*maxW]
		for y := 0; y < b.sizes[i].H; y++ {
			row := canvas[y*maxW : y*maxW+b.sizes[i].W]
			for x := range row {
				row[x] = false
			}
		}
	}, parallel.DefaultConfig())

	b.mask = mask
	return mask
}

// To returns a copy of the batch resident on dev. The receiver is left
// untouched; a cached mask is moved along instead of being recomputed.
func (b *Nested4D) To(dev device.Device) *Nested4D {
	moved := &Nested4D{
		data:  b.data.ToDevice(dev),
		sizes: append([]Size(nil), b.sizes...),
	}

	b.mu.Lock()
	if b.mask != nil {
		moved.mask = b.mask.ToDevice(dev)
	}
	b.mu.Unlock()

	return moved
}

// Images unpacks the batch into N independent [C, h_i, w_i] tensors equal
// to the elements the batch was built from, whatever the pad value was.
func (b *Nested4D) Images() []*tensor.RawTensor {
	shape := b.data.Shape()
	channels, maxH, maxW := shape[1], shape[2], shape[3]
	es := b.data.DType().Size()
	src := b.data.Bytes()

	out := make([]*tensor.RawTensor, len(b.sizes))
	for i, size := range b.sizes {
		el, err := tensor.NewRaw(tensor.Shape{channels, size.H, size.W}, b.data.DType(), b.data.Device())
		if err != nil {
			panic(fmt.Sprintf("batch: unreachable: %v", err))
		}
		dst := el.Bytes()
		for c := 0; c < channels; c++ {
			for y := 0; y < size.H; y++ {
				srcOff := ((((i*channels+c)*maxH + y) * maxW) * es)
				dstOff := ((c*size.H + y) * size.W) * es
				copy(dst[dstOff:dstOff+size.W*es], src[srcOff:srcOff+size.W*es])
			}
		}
		out[i] = el
	}
	return out
}

// Flatten collapses the two spatial axes in row-major order and makes the
// channel axis the feature axis: [N, C, H, W] becomes [N, H*W, C] with
// lengths[i] = h_i*w_i. A cell is padding in the result iff its (y, x)
// cell was padding here; a cached mask is carried over already flattened,
// so the result never recomputes it.
func (b *Nested4D) Flatten() *Nested3D {
	shape := b.data.Shape()
	n, channels, maxH, maxW := shape[0], shape[1], shape[2], shape[3]
	spatial := maxH * maxW

	out, err := tensor.NewRaw(tensor.Shape{n, spatial, channels}, b.data.DType(), b.data.Device())
	if err != nil {
		panic(fmt.Sprintf("batch: flatten allocation: %v", err))
	}

	transposeSpatial(out, b.data, n, channels, spatial)

	lengths := make([]int, n)
	for i, s := range b.sizes {
		lengths[i] = s.H * s.W
	}

	flat := &Nested3D{data: out, lengths: lengths}

	b.mu.Lock()
	if b.mask != nil {
		// [N, H, W] and [N, H*W] share the row-major layout, so the
		// flattened mask is a straight reshape of a copy.
		flatMask, err := b.mask.Clone().Reshape(tensor.Shape{n, spatial})
		if err != nil {
			panic(fmt.Sprintf("batch: flatten mask: %v", err))
		}
		flat.mask = flatMask
	}
	b.mu.Unlock()

	return flat
}

// transposeSpatial writes src [N, C, S] as dst [N, S, C].
func transposeSpatial(dst, src *tensor.RawTensor, n, channels, spatial int) {
	cfg := parallel.DefaultConfig()

	switch src.DType() {
	case tensor.Float32:
		in, out := src.AsFloat32(), dst.AsFloat32()
		parallel.ForSamples(n, channels*spatial, func(i int) {
			for c := 0; c < channels; c++ {
				base := (i*channels + c) * spatial
				for p := 0; p < spatial; p++ {
					out[(i*spatial+p)*channels+c] = in[base+p]
				}
			}
		}, cfg)
	case tensor.Float64:
		in, out := src.AsFloat64(), dst.AsFloat64()
		parallel.ForSamples(n, channels*spatial, func(i int) {
			for c := 0; c < channels; c++ {
				base := (i*channels + c) * spatial
				for p := 0; p < spatial; p++ {
					out[(i*spatial+p)*channels+c] = in[base+p]
				}
			}
		}, cfg)
	default:
		es := src.DType().Size()
		in, out := src.Bytes(), dst.Bytes()
		parallel.ForSamples(n, channels*spatial, func(i int) {
			for c := 0; c < channels; c++ {
				for p := 0; p < spatial; p++ {
					si := ((i*channels+c)*spatial + p) * es
					di := ((i*spatial+p)*channels + c) * es
					copy(out[di:di+es], in[si:si+es])
				}
			}
		}, cfg)
	}
}

// String returns a short description of the batch.
func (b *Nested4D) String() string {
	return fmt.Sprintf("Nested4D%v on %s", b.data.Shape(), b.data.Device())
}
