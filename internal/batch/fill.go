package batch

import "github.com/visgator-ml/visgator/internal/tensor"

// fill writes value into every element of r, converting to r's dtype.
// A zero value is a no-op: fresh buffers are already zeroed.
func fill(r *tensor.RawTensor, value float64) {
	if value == 0 {
		return
	}

	switch r.DType() {
	case tensor.Float32:
		data := r.AsFloat32()
		v := float32(value)
		for i := range data {
			data[i] = v
		}
	case tensor.Float64:
		data := r.AsFloat64()
		for i := range data {
			data[i] = value
		}
	case tensor.Int32:
		data := r.AsInt32()
		v := int32(value)
		for i := range data {
			data[i] = v
		}
	case tensor.Int64:
		data := r.AsInt64()
		v := int64(value)
		for i := range data {
			data[i] = v
		}
	case tensor.Uint8:
		data := r.AsUint8()
		v := uint8(value)
		for i := range data {
			data[i] = v
		}
	case tensor.Bool:
		data := r.AsBool()
		for i := range data {
			data[i] = true
		}
	default:
		panic("unsupported dtype for fill")
	}
}

// checkElements validates that every element shares the rank, dtype and
// trailing fixed dimension of the first one. fixedDim is the axis holding
// the fixed dimension, fixedName its description in errors.
func checkElements(elements []*tensor.RawTensor, rank, fixedDim int, fixedName string) error {
	if len(elements) == 0 {
		return ErrEmptyBatch
	}

	first := elements[0]
	if got := first.Shape().Rank(); got != rank {
		return mismatch(0, "rank", rank, got)
	}

	for i, el := range elements[1:] {
		if got := el.Shape().Rank(); got != rank {
			return mismatch(i+1, "rank", rank, got)
		}
		if got := el.DType(); got != first.DType() {
			return mismatch(i+1, "dtype", first.DType(), got)
		}
		if got := el.Shape()[fixedDim]; got != first.Shape()[fixedDim] {
			return mismatch(i+1, fixedName, first.Shape()[fixedDim], got)
		}
	}
	return nil
}
