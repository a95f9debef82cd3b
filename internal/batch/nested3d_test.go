package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/tensor"
)

func cpu() device.Device {
	return device.Device{}
}

func cuda(t *testing.T) device.Device {
	t.Helper()
	prev := device.SetCounter(device.FixedCounter(1))
	t.Cleanup(func() { device.SetCounter(prev) })
	d, err := device.Parse("cuda:0")
	require.NoError(t, err)
	return d
}

func seq(t *testing.T, rows int, values ...float32) *tensor.RawTensor {
	t.Helper()
	el, err := tensor.FromSlice(values, tensor.Shape{rows, len(values) / rows}, cpu())
	require.NoError(t, err)
	return el
}

func TestFromSequences(t *testing.T) {
	// Two sequences of width 2: lengths 3 and 1.
	a := seq(t, 3, 1, 2, 3, 4, 5, 6)
	b := seq(t, 1, 7, 8)

	nested, err := FromSequences([]*tensor.RawTensor{a, b}, 0)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 3, 2}, nested.Shape())
	assert.Equal(t, []int{3, 1}, nested.Lengths())
	assert.Equal(t, 2, nested.Len())

	data := nested.Data().AsFloat32()
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0}, data)

	mask := nested.Mask()
	assert.Equal(t, tensor.Shape{2, 3}, mask.Shape())
	assert.Equal(t, []bool{false, false, false, false, true, true}, mask.AsBool())
}

func TestFromSequencesPadValue(t *testing.T) {
	a := seq(t, 2, 1, 1, 1, 1)
	b := seq(t, 1, 2, 2)

	nested, err := FromSequences([]*tensor.RawTensor{a, b}, -1)
	require.NoError(t, err)

	data := nested.Data().AsFloat32()
	// Sample 1 row 1 is padding.
	assert.Equal(t, []float32{-1, -1}, data[6:8])
	// Real data untouched.
	assert.Equal(t, []float32{2, 2}, data[4:6])
}

func TestFromSequencesErrors(t *testing.T) {
	_, err := FromSequences(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	a := seq(t, 1, 1, 2)    // width 2
	b := seq(t, 1, 1, 2, 3) // width 3
	_, err = FromSequences([]*tensor.RawTensor{a, b}, 0)

	var sm *ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, 1, sm.Index)
	assert.Equal(t, "feature width", sm.What)
}

func TestFromSequencesDTypeMismatch(t *testing.T) {
	a := seq(t, 1, 1, 2)
	b, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{1, 2}, cpu())
	require.NoError(t, err)

	_, err = FromSequences([]*tensor.RawTensor{a, b}, 0)
	var sm *ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "dtype", sm.What)
}

func TestSequencesRoundTrip(t *testing.T) {
	elements := []*tensor.RawTensor{
		seq(t, 3, 1, 2, 3, 4, 5, 6),
		seq(t, 1, 7, 8),
		seq(t, 2, -1, 0.5, 9, 10),
	}

	for _, padValue := range []float64{0, -1, 3.25} {
		nested, err := FromSequences(elements, padValue)
		require.NoError(t, err)

		back := nested.Sequences()
		require.Len(t, back, len(elements))
		for i := range elements {
			assert.True(t, elements[i].Equal(back[i]), "pad %v, element %d", padValue, i)
		}
	}
}

func TestSequencesRoundTripInt64(t *testing.T) {
	a, err := tensor.FromSlice([]int64{1, 2, 3, 4}, tensor.Shape{2, 2}, cpu())
	require.NoError(t, err)
	b, err := tensor.FromSlice([]int64{5, 6}, tensor.Shape{1, 2}, cpu())
	require.NoError(t, err)

	nested, err := FromSequences([]*tensor.RawTensor{a, b}, -7)
	require.NoError(t, err)

	back := nested.Sequences()
	assert.True(t, a.Equal(back[0]))
	assert.True(t, b.Equal(back[1]))
}

func TestMaskCached(t *testing.T) {
	nested, err := FromSequences([]*tensor.RawTensor{
		seq(t, 2, 1, 2, 3, 4),
		seq(t, 1, 5, 6),
	}, 0)
	require.NoError(t, err)

	first := nested.Mask()
	second := nested.Mask()
	assert.Same(t, first, second, "mask should be computed once and cached")

	// Deriving the mask leaves data and lengths alone.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 0, 0}, nested.Data().AsFloat32())
	assert.Equal(t, []int{2, 1}, nested.Lengths())
}

func TestMaskConcurrent(t *testing.T) {
	nested, err := FromSequences([]*tensor.RawTensor{
		seq(t, 2, 1, 2, 3, 4),
		seq(t, 1, 5, 6),
	}, 0)
	require.NoError(t, err)

	masks := make([]*tensor.RawTensor, 16)
	var wg sync.WaitGroup
	for i := range masks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			masks[i] = nested.Mask()
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(masks); i++ {
		assert.Same(t, masks[0], masks[i])
	}
}

func TestNested3DTo(t *testing.T) {
	dev := cuda(t)

	nested, err := FromSequences([]*tensor.RawTensor{
		seq(t, 2, 1, 2, 3, 4),
		seq(t, 1, 5, 6),
	}, 0)
	require.NoError(t, err)

	wantData := append([]float32(nil), nested.Data().AsFloat32()...)
	wantMask := append([]bool(nil), nested.Mask().AsBool()...)

	moved := nested.To(dev)
	assert.Equal(t, dev, moved.Device())
	assert.Equal(t, nested.Lengths(), moved.Lengths())
	assert.Equal(t, wantData, moved.Data().AsFloat32())

	// The cached mask travels with the batch.
	assert.Equal(t, wantMask, moved.Mask().AsBool())

	// Transfer is pure: the receiver is unchanged.
	assert.Equal(t, cpu(), nested.Device())
	assert.Equal(t, wantData, nested.Data().AsFloat32())
	assert.Equal(t, wantMask, nested.Mask().AsBool())
}

func TestNewNested3DOverPadding(t *testing.T) {
	// A batch padded wider than its longest sample is legal.
	data, err := tensor.FromSlice(make([]float32, 2*5*3), tensor.Shape{2, 5, 3}, cpu())
	require.NoError(t, err)

	nested, err := NewNested3D(data, []int{4, 2})
	require.NoError(t, err)

	mask := nested.Mask().AsBool()
	assert.Equal(t, []bool{false, false, false, false, true}, mask[:5])
	assert.Equal(t, []bool{false, false, true, true, true}, mask[5:])
}

func TestNewNested3DValidation(t *testing.T) {
	data, err := tensor.FromSlice(make([]float32, 2*3*2), tensor.Shape{2, 3, 2}, cpu())
	require.NoError(t, err)

	_, err = NewNested3D(data, []int{3})
	assert.Error(t, err, "length count must match N")

	_, err = NewNested3D(data, []int{3, 4})
	assert.Error(t, err, "length beyond padded extent must be rejected")

	flat, err := data.Reshape(tensor.Shape{2, 6})
	require.NoError(t, err)
	_, err = NewNested3D(flat, []int{3, 3})
	assert.Error(t, err, "rank 2 data must be rejected")
}
