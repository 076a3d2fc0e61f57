package tensor

import "fmt"

// assertSameSize panics unless a and b hold the same number of elements.
// Element-wise operations match on size rather than exact shape, mirroring
// how the layer protocol treats vectors and single-column matrices alike.
func assertSameSize(op string, a, b *Tensor) {
	if len(a.data) != len(b.data) {
		panic(fmt.Sprintf("tensor: %s: size mismatch %v vs %v", op, a.shape, b.shape))
	}
}

// Add returns a new tensor holding t + other element-wise. Allocates.
func (t *Tensor) Add(other *Tensor) *Tensor {
	assertSameSize("Add", t, other)
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] + other.data[i]
	}
	return out
}

// AddInPlace accumulates other into the receiver element-wise.
func (t *Tensor) AddInPlace(other *Tensor) {
	assertSameSize("AddInPlace", t, other)
	for i := range t.data {
		t.data[i] += other.data[i]
	}
}

// Sub returns a new tensor holding t - other element-wise. Allocates.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	assertSameSize("Sub", t, other)
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] - other.data[i]
	}
	return out
}

// Mul returns the element-wise (Hadamard) product. Allocates.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	assertSameSize("Mul", t, other)
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] * other.data[i]
	}
	return out
}

// Scale returns t * s element-wise. Allocates.
func (t *Tensor) Scale(s float32) *Tensor {
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] * s
	}
	return out
}

// AddScaled accumulates other * s into the receiver. Used by the SGD update
// (param.AddScaled(grad, -lr)) and by momentum buffers.
func (t *Tensor) AddScaled(other *Tensor, s float32) {
	assertSameSize("AddScaled", t, other)
	for i := range t.data {
		t.data[i] += other.data[i] * s
	}
}

// ScaleInPlace multiplies every element by s.
func (t *Tensor) ScaleInPlace(s float32) {
	for i := range t.data {
		t.data[i] *= s
	}
}

// MatVec computes w @ x where w has shape [rows, cols] and x holds cols
// elements. Returns a new tensor with rows elements. Allocates.
func (w *Tensor) MatVec(x *Tensor) *Tensor {
	rows, cols := w.matDims("MatVec")
	if len(x.data) != cols {
		panic(fmt.Sprintf("tensor: MatVec: matrix %v incompatible with vector of %d elements", w.shape, len(x.data)))
	}
	out := New(Shape{rows})
	for r := 0; r < rows; r++ {
		var sum float32
		row := w.data[r*cols : (r+1)*cols]
		for c, v := range row {
			sum += v * x.data[c]
		}
		out.data[r] = sum
	}
	return out
}

// MatVecT computes wᵀ @ y where w has shape [rows, cols] and y holds rows
// elements. Returns a new tensor with cols elements. Allocates.
//
// This is the backward-pass companion of MatVec: propagating a gradient
// through y = w @ x needs g = wᵀ @ gy without materializing the transpose.
func (w *Tensor) MatVecT(y *Tensor) *Tensor {
	rows, cols := w.matDims("MatVecT")
	if len(y.data) != rows {
		panic(fmt.Sprintf("tensor: MatVecT: matrix %v incompatible with vector of %d elements", w.shape, len(y.data)))
	}
	out := New(Shape{cols})
	for r := 0; r < rows; r++ {
		yr := y.data[r]
		row := w.data[r*cols : (r+1)*cols]
		for c, v := range row {
			out.data[c] += v * yr
		}
	}
	return out
}

// AddOuter accumulates the outer product u ⊗ v into the receiver, which must
// have shape [len(u), len(v)]. This is the weight-gradient update of a fully
// connected layer: dW += gy ⊗ x.
func (t *Tensor) AddOuter(u, v *Tensor) {
	rows, cols := t.matDims("AddOuter")
	if len(u.data) != rows || len(v.data) != cols {
		panic(fmt.Sprintf("tensor: AddOuter: accumulator %v incompatible with %d x %d outer product",
			t.shape, len(u.data), len(v.data)))
	}
	for r := 0; r < rows; r++ {
		ur := u.data[r]
		row := t.data[r*cols : (r+1)*cols]
		for c := range row {
			row[c] += ur * v.data[c]
		}
	}
}

// Dot returns the inner product of two tensors of equal size.
func (t *Tensor) Dot(other *Tensor) float32 {
	assertSameSize("Dot", t, other)
	var sum float32
	for i := range t.data {
		sum += t.data[i] * other.data[i]
	}
	return sum
}

func (t *Tensor) matDims(op string) (rows, cols int) {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: %s: expected rank-2 tensor, got shape %v", op, t.shape))
	}
	return t.shape[0], t.shape[1]
}
