// Package dataset feeds grounding samples to the evaluation engine.
package dataset

import (
	"fmt"

	"github.com/visgator-ml/visgator/internal/batch"
	"github.com/visgator-ml/visgator/internal/boxes"
	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// Sample is one grounding example: an image, the caption describing the
// referred region, and the target box in image-pixel XYXY coordinates.
type Sample struct {
	Image   *tensor.RawTensor // [C, H, W] Float32
	Caption string
	Target  [4]float32
}

// Dataset is a finite, indexable source of samples.
type Dataset interface {
	Len() int
	Sample(i int) (Sample, error)
}

// SliceDataset serves samples from memory.
type SliceDataset []Sample

// Len returns the number of samples.
func (d SliceDataset) Len() int { return len(d) }

// Sample returns sample i.
func (d SliceDataset) Sample(i int) (Sample, error) {
	if i < 0 || i >= len(d) {
		return Sample{}, fmt.Errorf("dataset: index %d out of range [0, %d)", i, len(d))
	}
	return d[i], nil
}

// Batch is a collated set of samples ready for a model forward pass.
// Images are padded into a single Nested4D; captions stay as token ID
// sequences for the model's text branch to embed.
type Batch struct {
	Images   *batch.Nested4D
	Captions [][]int64
}

// To returns the batch with its images resident on dev. Token IDs are
// pure metadata and travel as-is.
func (b *Batch) To(dev device.Device) *Batch {
	return &Batch{
		Images:   b.Images.To(dev),
		Captions: b.Captions,
	}
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	return b.Images.Len()
}

// Collate pads a set of samples into one batch plus its target boxes.
// The tokenizer may be nil, in which case captions are dropped.
func Collate(samples []Sample, tok *Tokenizer) (*Batch, *boxes.Boxes, error) {
	if len(samples) == 0 {
		return nil, nil, batch.ErrEmptyBatch
	}

	images := make([]*tensor.RawTensor, len(samples))
	captions := make([][]int64, len(samples))
	coords := make([]float32, 0, len(samples)*4)
	sizes := make([]batch.Size, len(samples))

	for i, s := range samples {
		if s.Image == nil {
			return nil, nil, fmt.Errorf("dataset: sample %d has no image", i)
		}
		images[i] = s.Image

		shape := s.Image.Shape()
		sizes[i] = batch.Size{H: shape[1], W: shape[2]}
		coords = append(coords, s.Target[0], s.Target[1], s.Target[2], s.Target[3])

		if tok != nil {
			captions[i] = tok.Encode(s.Caption)
		}
	}

	nested, err := batch.FromImages(images, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: collate images: %w", err)
	}

	targets, err := boxes.FromCoords(coords, boxes.XYXY, false, sizes, nested.Device())
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: collate targets: %w", err)
	}

	return &Batch{Images: nested, Captions: captions}, targets, nil
}
