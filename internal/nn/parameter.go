package nn

import (
	"github.com/rewind-ml/rewind/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters pair a tensor with a gradient accumulator of the same shape.
// Layer.Gradient calls add into the accumulator; the optimizer reads and
// then zeroes it. Keeping the gradient on the parameter (rather than in a
// separate gradient map) is what makes weight sharing across unrolled time
// steps fall out naturally: every unrolled position adds into the same
// accumulator.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad()
type Parameter struct {
	name   string         // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor // The parameter tensor
	grad   *tensor.Tensor // Accumulated gradient, same shape as tensor
}

// NewParameter creates a new trainable parameter.
//
// The gradient accumulator is allocated immediately, zero-filled, with the
// parameter's shape.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
		grad:   tensor.New(t.Shape()),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the accumulated gradient tensor.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// ZeroGrad zeroes the gradient accumulator in place.
//
// This should be called after each optimizer step to avoid carrying
// gradients into the next window.
func (p *Parameter) ZeroGrad() {
	p.grad.Zero()
}
