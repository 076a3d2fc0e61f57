// Copyright 2025 Rewind ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public surface of Rewind's dense tensor type.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	y := tensor.New(tensor.Shape{3})
//	y.CopyFrom(x)
package tensor

import "github.com/rewind-ml/rewind/internal/tensor"

// Shape describes tensor dimensions.
type Shape = tensor.Shape

// Tensor is a dense float32 tensor.
type Tensor = tensor.Tensor

// New allocates a zero-filled tensor of the given shape. It panics if the
// shape is invalid.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice builds a tensor from a copy of data. The slice length must
// match the shape's element count.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}
