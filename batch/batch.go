// Copyright 2026 The Visgator Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package batch assembles variable-sized samples into rectangular padded
// batches with validity masks.
//
// Nested3D batches sequences ([L_i, D] elements into [N, L_max, D]) and
// Nested4D batches images ([C, h_i, w_i] elements into [N, C, H_max,
// W_max]). Both derive a boolean padding mask on first request (true
// marks padding), move across devices without mutating the source, and
// unpack back into the exact original elements.
//
// Example:
//
//	imgs, err := batch.FromImages(elements, 0)
//	imgs = imgs.To(device.Default())
//	seqs := imgs.Flatten() // [N, H*W, C] for the transformer stage
package batch

import (
	"github.com/visgator-ml/visgator/internal/batch"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// Nested3D is a batch of variable-length sequences padded to a common length.
type Nested3D = batch.Nested3D

// Nested4D is a batch of variable-sized images padded to a common canvas.
type Nested4D = batch.Nested4D

// Size is the true spatial extent of one sample inside a padded image batch.
type Size = batch.Size

// ErrEmptyBatch is returned when a batch is built from zero elements.
var ErrEmptyBatch = batch.ErrEmptyBatch

// ShapeMismatchError reports an element that disagrees with the rest of
// the batch on a fixed property.
type ShapeMismatchError = batch.ShapeMismatchError

// FromSequences right-pads [L_i, D] elements to the longest length and
// stacks them into one [N, L_max, D] batch.
func FromSequences(elements []*tensor.RawTensor, padValue float64) (*Nested3D, error) {
	return batch.FromSequences(elements, padValue)
}

// FromImages pads [C, h_i, w_i] elements to the largest height and width
// and stacks them into one [N, C, H_max, W_max] batch.
func FromImages(elements []*tensor.RawTensor, padValue float64) (*Nested4D, error) {
	return batch.FromImages(elements, padValue)
}

// NewNested3D wraps an already padded [N, L, D] tensor, allowing a padded
// length larger than every sample's true length.
func NewNested3D(data *tensor.RawTensor, lengths []int) (*Nested3D, error) {
	return batch.NewNested3D(data, lengths)
}

// NewNested4D wraps an already padded [N, C, H, W] tensor, allowing a
// canvas larger than every sample's extent.
func NewNested4D(data *tensor.RawTensor, sizes []Size) (*Nested4D, error) {
	return batch.NewNested4D(data, sizes)
}
