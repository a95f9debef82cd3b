package boxes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visgator-ml/visgator/internal/batch"
	"github.com/visgator-ml/visgator/internal/device"
)

func boxesFromCoords(t *testing.T, coords []float32, format Format, sizes ...batch.Size) *Boxes {
	t.Helper()
	b, err := FromCoords(coords, format, false, sizes, device.Device{})
	require.NoError(t, err)
	return b
}

func TestNewValidation(t *testing.T) {
	_, err := FromCoords([]float32{0, 0, 1}, XYXY, false, []batch.Size{{H: 1, W: 1}}, device.Device{})
	assert.Error(t, err, "coordinate count must be 4 per box")
}

func TestToXYXY(t *testing.T) {
	b := boxesFromCoords(t, []float32{50, 50, 20, 10}, CXCYWH, batch.Size{H: 100, W: 100})

	xyxy := b.ToXYXY()
	assert.Equal(t, XYXY, xyxy.Format())
	assert.Equal(t, []float32{40, 45, 60, 55}, xyxy.Data().AsFloat32())

	// Receiver untouched.
	assert.Equal(t, CXCYWH, b.Format())
	assert.Equal(t, []float32{50, 50, 20, 10}, b.Data().AsFloat32())
}

func TestNormalize(t *testing.T) {
	b := boxesFromCoords(t, []float32{40, 45, 60, 90}, XYXY, batch.Size{H: 180, W: 120})

	n := b.Normalize()
	assert.True(t, n.Normalized())
	coords := n.Data().AsFloat32()
	assert.InDelta(t, 40.0/120, coords[0], 1e-6)
	assert.InDelta(t, 45.0/180, coords[1], 1e-6)
	assert.InDelta(t, 60.0/120, coords[2], 1e-6)
	assert.InDelta(t, 90.0/180, coords[3], 1e-6)

	// Normalizing twice is a no-op.
	assert.Same(t, n, n.Normalize())
}

func TestIoU(t *testing.T) {
	size := batch.Size{H: 10, W: 10}

	a := boxesFromCoords(t, []float32{
		0, 0, 4, 4,
		0, 0, 2, 2,
		0, 0, 2, 2,
	}, XYXY, size, size, size)
	b := boxesFromCoords(t, []float32{
		0, 0, 4, 4, // identical
		2, 2, 4, 4, // disjoint (touching corner)
		1, 0, 3, 2, // half overlap
	}, XYXY, size, size, size)

	ious, err := IoU(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ious[0], 1e-9)
	assert.InDelta(t, 0.0, ious[1], 1e-9)
	assert.InDelta(t, 2.0/6.0, ious[2], 1e-9)
}

func TestGIoU(t *testing.T) {
	size := batch.Size{H: 10, W: 10}

	a := boxesFromCoords(t, []float32{0, 0, 2, 2}, XYXY, size)
	b := boxesFromCoords(t, []float32{0, 0, 2, 2}, XYXY, size)

	gious, err := GIoU(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gious[0], 1e-9)

	// Disjoint boxes: negative GIoU.
	c := boxesFromCoords(t, []float32{8, 8, 10, 10}, XYXY, size)
	gious, err = GIoU(a, c)
	require.NoError(t, err)
	assert.Less(t, gious[0], 0.0)
	assert.GreaterOrEqual(t, gious[0], -1.0)
}

func TestIoULengthMismatch(t *testing.T) {
	size := batch.Size{H: 10, W: 10}
	a := boxesFromCoords(t, []float32{0, 0, 2, 2}, XYXY, size)
	b := boxesFromCoords(t, []float32{0, 0, 2, 2, 1, 1, 3, 3}, XYXY, size, size)

	_, err := IoU(a, b)
	assert.Error(t, err)
}
