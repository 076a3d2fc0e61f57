package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewind-ml/rewind/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

// TestAddForwardBackward checks y = x + b and the pass-through backward.
func TestAddForwardBackward(t *testing.T) {
	layer := NewAdd(3)
	copy(layer.Bias().Tensor().Data(), []float32{1, -1, 0.5})

	out := tensor.New(tensor.Shape{3})
	layer.Forward(fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}), out)
	assert.Equal(t, []float32{2, 1, 3.5}, out.Data())

	g := tensor.New(tensor.Shape{3})
	layer.Backward(nil, fromSlice(t, []float32{0.1, 0.2, 0.3}, tensor.Shape{3}), g)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, g.Data())
}

// TestAddGradientAccumulates verifies db sums across Gradient calls.
func TestAddGradientAccumulates(t *testing.T) {
	layer := NewAdd(2)
	err := fromSlice(t, []float32{1, 2}, tensor.Shape{2})

	layer.Gradient(nil, err)
	layer.Gradient(nil, err)
	assert.Equal(t, []float32{2, 4}, layer.Bias().Grad().Data())

	layer.Bias().ZeroGrad()
	assert.Equal(t, []float32{0, 0}, layer.Bias().Grad().Data())
}

// TestLinearForward checks y = W @ x + b against a hand computation.
func TestLinearForward(t *testing.T) {
	layer := NewLinear(3, 2)
	copy(layer.Weight().Tensor().Data(), []float32{
		1, 0, -1,
		2, 1, 0,
	})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5})

	out := tensor.New(tensor.Shape{2})
	layer.Forward(fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}), out)

	// Row 0: 1*1 + 0*2 + (-1)*3 + 0.5 = -1.5
	// Row 1: 2*1 + 1*2 + 0*3 - 0.5 = 3.5
	assert.InDelta(t, -1.5, out.Data()[0], 1e-6)
	assert.InDelta(t, 3.5, out.Data()[1], 1e-6)
}

// TestLinearBackward checks g = Wᵀ @ gy.
func TestLinearBackward(t *testing.T) {
	layer := NewLinear(2, 2)
	copy(layer.Weight().Tensor().Data(), []float32{
		1, 2,
		3, 4,
	})

	g := tensor.New(tensor.Shape{2})
	layer.Backward(nil, fromSlice(t, []float32{1, 1}, tensor.Shape{2}), g)
	assert.InDelta(t, 4, g.Data()[0], 1e-6) // 1*1 + 3*1
	assert.InDelta(t, 6, g.Data()[1], 1e-6) // 2*1 + 4*1
}

// TestLinearGradient checks dW += err ⊗ x and db += err.
func TestLinearGradient(t *testing.T) {
	layer := NewLinear(2, 2)
	x := fromSlice(t, []float32{3, 5}, tensor.Shape{2})
	e := fromSlice(t, []float32{1, 2}, tensor.Shape{2})

	layer.Gradient(x, e)
	assert.Equal(t, []float32{3, 5, 6, 10}, layer.Weight().Grad().Data())
	assert.Equal(t, []float32{1, 2}, layer.Bias().Grad().Data())

	// Second call accumulates.
	layer.Gradient(x, e)
	assert.Equal(t, []float32{6, 10, 12, 20}, layer.Weight().Grad().Data())
}

// TestActivations checks forward values and derivative-based backward for
// each activation kind.
func TestActivations(t *testing.T) {
	input := fromSlice(t, []float32{-1, 0, 2}, tensor.Shape{3})
	gy := fromSlice(t, []float32{1, 1, 1}, tensor.Shape{3})

	tests := []struct {
		name     string
		layer    Layer
		forward  func(x float64) float64
		backward func(y float64) float64
	}{
		{"Identity", NewIdentity(), func(x float64) float64 { return x }, func(float64) float64 { return 1 }},
		{"Tanh", NewTanh(), math.Tanh, func(y float64) float64 { return 1 - y*y }},
		{"Sigmoid", NewSigmoid(),
			func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
			func(y float64) float64 { return y * (1 - y) }},
		{"ReLU", NewReLU(), func(x float64) float64 { return math.Max(0, x) },
			func(y float64) float64 {
				if y > 0 {
					return 1
				}
				return 0
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tensor.New(tensor.Shape{3})
			tt.layer.Forward(input, out)
			for i, x := range input.Data() {
				assert.InDelta(t, tt.forward(float64(x)), out.Data()[i], 1e-6)
			}

			g := tensor.New(tensor.Shape{3})
			tt.layer.Backward(input, gy, g)
			for i, y := range out.Data() {
				assert.InDelta(t, tt.backward(float64(y)), g.Data()[i], 1e-6)
			}

			assert.Nil(t, tt.layer.Parameters())
		})
	}
}

// TestLayerClone verifies clones copy weights but not storage.
func TestLayerClone(t *testing.T) {
	layer := NewLinear(2, 2)
	clone := layer.Clone().(*Linear)

	assert.Equal(t, layer.Weight().Tensor().Data(), clone.Weight().Tensor().Data())

	clone.Weight().Tensor().Data()[0] += 10
	assert.NotEqual(t, layer.Weight().Tensor().Data()[0], clone.Weight().Tensor().Data()[0])
}

// TestLinearStateDictRoundTrip verifies save/restore through a state dict.
func TestLinearStateDictRoundTrip(t *testing.T) {
	src := NewLinear(3, 2)
	dst := NewLinear(3, 2)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())
	assert.Equal(t, src.Bias().Tensor().Data(), dst.Bias().Tensor().Data())

	// Mismatched shape is rejected.
	other := NewLinear(2, 2)
	assert.Error(t, other.LoadStateDict(src.StateDict()))
}
