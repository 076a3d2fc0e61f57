package tensor

import "fmt"

// Tensor is a dense row-major float32 tensor.
//
// Tensors are mutable: the layers in internal/nn keep preallocated output and
// delta tensors alive across calls and overwrite them in place. Operations
// that allocate a result say so in their doc comment; everything else writes
// into the receiver.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
//	u := t.Clone()
//	u.AddInPlace(t)
type Tensor struct {
	shape Shape
	data  []float32
}

// New creates a zero-filled tensor with the given shape.
//
// Panics if the shape contains a non-positive dimension; sizing a tensor is a
// programmer decision, not user input.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}
}

// Zeros creates a tensor filled with zeros. Alias of New kept for symmetry
// with Full and the initializers in internal/nn.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// Full creates a tensor with every element set to value.
func Full(shape Shape, value float32) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}
	t := New(shape)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying storage. The slice aliases the tensor's
// memory; writes through it are visible to every holder of the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given row-major indices.
//
// Panics if the number of indices does not match the rank or an index is out
// of range.
func (t *Tensor) At(indices ...int) float32 {
	return t.data[t.offset(indices)]
}

// Set writes the element at the given row-major indices.
func (t *Tensor) Set(value float32, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: got %d indices for rank-%d tensor", len(indices), len(t.shape)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		off = off*t.shape[i] + idx
	}
	return off
}

// Clone returns a deep copy of the tensor. Allocates.
func (t *Tensor) Clone() *Tensor {
	c := New(t.shape)
	copy(c.data, t.data)
	return c
}

// CopyFrom overwrites the receiver with src's shape and contents.
//
// The receiver is resized when the element counts differ, so a caller-owned
// output buffer always ends up matching the producing layer.
func (t *Tensor) CopyFrom(src *Tensor) {
	if len(t.data) != len(src.data) {
		t.data = make([]float32, len(src.data))
	}
	t.shape = src.shape.Clone()
	copy(t.data, src.data)
}

// Zero sets every element to zero without reallocating.
func (t *Tensor) Zero() {
	for i := range t.data {
		t.data[i] = 0
	}
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float32) {
	for i := range t.data {
		t.data[i] = value
	}
}
