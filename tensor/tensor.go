// Copyright 2026 The Visgator Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the raw dense-array storage layer of the visgator
// harness: shapes, runtime element types and the RawTensor buffer the
// batch containers are built on.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, device.Default())
package tensor

import (
	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// DType is a constraint for supported element types.
type DType = tensor.DType

// DataType is runtime type information for a tensor's elements.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} is a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is a dense row-major array with runtime type information and
// a device tag.
type RawTensor = tensor.RawTensor

// NewRaw allocates a zero-filled tensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, dev device.Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, dev)
}

// FromSlice copies a Go slice into a new tensor of the given shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, dev)
func FromSlice[T DType](data []T, shape Shape, dev device.Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, dev)
}

// Full allocates a tensor with every element set to value.
func Full[T DType](shape Shape, value T, dev device.Device) (*RawTensor, error) {
	return tensor.Full(shape, value, dev)
}

// As interprets the tensor's buffer as a []T.
// Panics if T does not match the tensor's dtype.
func As[T DType](r *RawTensor) []T {
	return tensor.As[T](r)
}

// DataTypeOf returns the DataType corresponding to the type parameter T.
func DataTypeOf[T DType]() DataType {
	return tensor.DataTypeOf[T]()
}
