package nn

import (
	"fmt"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// Add is a layer with one learnable bias per element: y = x + b.
//
// It is the simplest parameterized layer kind and the usual choice for the
// Start module of a Recurrent network, where it shapes the initial hidden
// state at time step zero.
//
// Example:
//
//	start := nn.NewAdd(16)
//	output := tensor.New(tensor.Shape{16})
//	start.Forward(input, output)
type Add struct {
	size   int
	bias   *Parameter
	output *tensor.Tensor
	delta  *tensor.Tensor
}

// NewAdd creates an Add layer for vectors of the given size, bias zeroed.
func NewAdd(size int) *Add {
	return &Add{
		size: size,
		bias: NewParameter("bias", Zeros(tensor.Shape{size})),
	}
}

// Size returns the element count the layer operates on.
func (a *Add) Size() int {
	return a.size
}

// Bias returns the bias parameter.
func (a *Add) Bias() *Parameter {
	return a.bias
}

// Forward computes y = x + b.
func (a *Add) Forward(input, output *tensor.Tensor) {
	a.output = slot(a.output, input.Shape())
	a.output.CopyFrom(input)
	a.output.AddInPlace(a.bias.Tensor())
	writeTo(output, a.output)
}

// Backward passes the incoming gradient through unchanged: dy/dx = 1.
func (a *Add) Backward(_, gy, g *tensor.Tensor) {
	a.delta = slot(a.delta, gy.Shape())
	a.delta.CopyFrom(gy)
	writeTo(g, a.delta)
}

// Gradient accumulates db += err.
func (a *Add) Gradient(_, err *tensor.Tensor) {
	a.bias.Grad().AddInPlace(err)
}

// OutputParameter returns the slot written by the last Forward call.
func (a *Add) OutputParameter() *tensor.Tensor { return a.output }

// Delta returns the slot written by the last Backward call.
func (a *Add) Delta() *tensor.Tensor { return a.delta }

// Parameters returns the bias parameter.
func (a *Add) Parameters() []*Parameter {
	return []*Parameter{a.bias}
}

// Reset zeroes the gradient accumulator and drops scratch state.
func (a *Add) Reset() {
	a.bias.ZeroGrad()
	a.output = nil
	a.delta = nil
}

// Clone returns a deep copy with fresh scratch state.
func (a *Add) Clone() Layer {
	c := NewAdd(a.size)
	c.bias.Tensor().CopyFrom(a.bias.Tensor())
	return c
}

// StateDict returns the bias under the key "bias".
func (a *Add) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"bias": a.bias.Tensor().Clone()}
}

// LoadStateDict restores the bias, validating its shape.
func (a *Add) LoadStateDict(state map[string]*tensor.Tensor) error {
	bias, ok := state["bias"]
	if !ok {
		return fmt.Errorf("missing bias in state dict")
	}
	if !bias.Shape().Equal(tensor.Shape{a.size}) {
		return fmt.Errorf("bias shape mismatch: expected %v, got %v",
			tensor.Shape{a.size}, bias.Shape())
	}
	a.bias.Tensor().CopyFrom(bias)
	return nil
}
