// Package boxes provides bounding-box values for grounding targets and
// predictions.
package boxes

import (
	"fmt"

	"github.com/visgator-ml/visgator/internal/batch"
	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// Format is the coordinate convention a box is stored in.
type Format int

// Supported coordinate formats.
const (
	// XYXY is (x_min, y_min, x_max, y_max).
	XYXY Format = iota
	// CXCYWH is (center_x, center_y, width, height).
	CXCYWH
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case XYXY:
		return "xyxy"
	case CXCYWH:
		return "cxcywh"
	default:
		return "unknown"
	}
}

// Boxes is a batch of N bounding boxes backed by an [N, 4] float32 tensor,
// one box per sample, each tagged with the extent of the image it lives
// in. Operations return new values; a Boxes is never mutated in place.
type Boxes struct {
	data       *tensor.RawTensor // [N, 4] Float32
	format     Format
	normalized bool
	sizes      []batch.Size // image extent per box
}

// New wraps an [N, 4] float32 tensor as a batch of boxes.
func New(data *tensor.RawTensor, format Format, normalized bool, sizes []batch.Size) (*Boxes, error) {
	shape := data.Shape()
	if shape.Rank() != 2 || shape[1] != 4 {
		return nil, fmt.Errorf("boxes: data must be [N, 4], got %v", shape)
	}
	if data.DType() != tensor.Float32 {
		return nil, fmt.Errorf("boxes: data must be float32, got %s", data.DType())
	}
	if shape[0] != len(sizes) {
		return nil, fmt.Errorf("boxes: %d boxes but %d image sizes", shape[0], len(sizes))
	}

	return &Boxes{
		data:       data,
		format:     format,
		normalized: normalized,
		sizes:      append([]batch.Size(nil), sizes...),
	}, nil
}

// FromCoords builds boxes from flat (4 values per box) coordinates.
func FromCoords(coords []float32, format Format, normalized bool, sizes []batch.Size, dev device.Device) (*Boxes, error) {
	if len(coords) != 4*len(sizes) {
		return nil, fmt.Errorf("boxes: %d coordinates for %d boxes", len(coords), len(sizes))
	}
	data, err := tensor.FromSlice(coords, tensor.Shape{len(sizes), 4}, dev)
	if err != nil {
		return nil, err
	}
	return New(data, format, normalized, sizes)
}

// Len returns the number of boxes.
func (b *Boxes) Len() int {
	return len(b.sizes)
}

// Data returns the backing [N, 4] tensor.
func (b *Boxes) Data() *tensor.RawTensor {
	return b.data
}

// Format returns the coordinate convention.
func (b *Boxes) Format() Format {
	return b.format
}

// Normalized reports whether coordinates are scaled to [0, 1].
func (b *Boxes) Normalized() bool {
	return b.normalized
}

// Sizes returns the per-box image extents. Treat as read-only.
func (b *Boxes) Sizes() []batch.Size {
	return b.sizes
}

// To returns the boxes resident on dev. The receiver is unchanged.
func (b *Boxes) To(dev device.Device) *Boxes {
	return &Boxes{
		data:       b.data.ToDevice(dev),
		format:     b.format,
		normalized: b.normalized,
		sizes:      append([]batch.Size(nil), b.sizes...),
	}
}

// ToXYXY returns the boxes converted to corner format.
func (b *Boxes) ToXYXY() *Boxes {
	if b.format == XYXY {
		return b
	}

	src := b.data.AsFloat32()
	dst := make([]float32, len(src))
	for i := 0; i < b.Len(); i++ {
		cx, cy, w, h := src[i*4], src[i*4+1], src[i*4+2], src[i*4+3]
		dst[i*4] = cx - w/2
		dst[i*4+1] = cy - h/2
		dst[i*4+2] = cx + w/2
		dst[i*4+3] = cy + h/2
	}

	data, err := tensor.FromSlice(dst, tensor.Shape{b.Len(), 4}, b.data.Device())
	if err != nil {
		panic(fmt.Sprintf("boxes: unreachable: %v", err))
	}
	return &Boxes{data: data, format: XYXY, normalized: b.normalized, sizes: b.sizes}
}

// Normalize returns the boxes with coordinates scaled to [0, 1] by each
// box's image extent.
func (b *Boxes) Normalize() *Boxes {
	if b.normalized {
		return b
	}

	src := b.data.AsFloat32()
	dst := make([]float32, len(src))
	for i, size := range b.sizes {
		w, h := float32(size.W), float32(size.H)
		dst[i*4] = src[i*4] / w
		dst[i*4+1] = src[i*4+1] / h
		dst[i*4+2] = src[i*4+2] / w
		dst[i*4+3] = src[i*4+3] / h
	}

	data, err := tensor.FromSlice(dst, tensor.Shape{b.Len(), 4}, b.data.Device())
	if err != nil {
		panic(fmt.Sprintf("boxes: unreachable: %v", err))
	}
	return &Boxes{data: data, format: b.format, normalized: true, sizes: b.sizes}
}

// IoU returns the pairwise intersection-over-union of two equally sized,
// same-format box batches.
func IoU(a, b *Boxes) ([]float64, error) {
	pa, pb, err := pair(a, b)
	if err != nil {
		return nil, err
	}

	out := make([]float64, a.Len())
	for i := range out {
		out[i] = iouPair(pa[i*4:i*4+4], pb[i*4:i*4+4])
	}
	return out, nil
}

// GIoU returns the pairwise generalized IoU: IoU minus the fraction of the
// smallest enclosing box not covered by the union. Range [-1, 1].
func GIoU(a, b *Boxes) ([]float64, error) {
	pa, pb, err := pair(a, b)
	if err != nil {
		return nil, err
	}

	out := make([]float64, a.Len())
	for i := range out {
		x, y := pa[i*4:i*4+4], pb[i*4:i*4+4]
		iou := iouPair(x, y)

		ex1 := min(x[0], y[0])
		ey1 := min(x[1], y[1])
		ex2 := max(x[2], y[2])
		ey2 := max(x[3], y[3])
		enclosing := float64(ex2-ex1) * float64(ey2-ey1)
		if enclosing <= 0 {
			out[i] = iou
			continue
		}

		union := area(x) + area(y) - intersection(x, y)
		out[i] = iou - (enclosing-union)/enclosing
	}
	return out, nil
}

func pair(a, b *Boxes) ([]float32, []float32, error) {
	if a.Len() != b.Len() {
		return nil, nil, fmt.Errorf("boxes: %d vs %d boxes", a.Len(), b.Len())
	}
	return a.ToXYXY().data.AsFloat32(), b.ToXYXY().data.AsFloat32(), nil
}

func area(b []float32) float64 {
	w := float64(b[2] - b[0])
	h := float64(b[3] - b[1])
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func intersection(a, b []float32) float64 {
	w := float64(min(a[2], b[2]) - max(a[0], b[0]))
	h := float64(min(a[3], b[3]) - max(a[1], b[1]))
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func iouPair(a, b []float32) float64 {
	inter := intersection(a, b)
	union := area(a) + area(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
