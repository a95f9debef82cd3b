package engine

import (
	"context"

	"github.com/visgator-ml/visgator/internal/boxes"
	"github.com/visgator-ml/visgator/internal/dataset"
)

// Baseline predicts the full image extent for every sample. It anchors
// metric numbers: any trained model has to beat it.
type Baseline struct{}

// Name returns "baseline".
func (Baseline) Name() string { return "baseline" }

// Forward returns one box per sample covering the whole image.
func (Baseline) Forward(_ context.Context, b *dataset.Batch) (*boxes.Boxes, error) {
	sizes := b.Images.Sizes()
	coords := make([]float32, 0, 4*len(sizes))
	for _, s := range sizes {
		coords = append(coords, 0, 0, float32(s.W), float32(s.H))
	}
	return boxes.FromCoords(coords, boxes.XYXY, false, sizes, b.Images.Device())
}
