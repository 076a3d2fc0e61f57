// Package nn implements the layer protocol and recurrent orchestration for
// the Rewind library.
//
// This package provides building blocks for recurrent networks trained with
// truncated backpropagation through time:
//   - Layer interface: the capability set every layer kind implements
//   - Parameter: trainable parameters with accumulated gradients
//   - Linear, Add, activations: concrete layer kinds
//   - Sequential, AddMerge: composite containers
//   - Recurrent: the unrolled-window orchestrator
//
// Layers are explicit about their backward pass: every layer keeps an output
// slot written by Forward and a delta slot written by Backward, and gradient
// accumulation is a separate Gradient call so weights shared across unrolled
// time steps sum their contributions before an optimizer reads them.
package nn

import (
	"github.com/rewind-ml/rewind/internal/tensor"
)

// Layer is the capability set implemented by every layer kind.
//
// The three compute methods mirror one training step of one layer:
//
//	layer.Forward(x, y)        // y = f(x), also written to OutputParameter
//	layer.Backward(x, gy, g)   // g = ∂L/∂x given gy = ∂L/∂y, also in Delta
//	layer.Gradient(x, e)       // accumulate ∂L/∂θ into Parameters' grads
//
// Callers may pass nil for the output and gradient buffers when only the
// layer's own slots are needed; composite containers rely on this to thread
// intermediate results without extra copies.
//
// None of the methods are safe for concurrent use: counters, slots and
// gradient accumulators are mutable per-layer state.
type Layer interface {
	// Forward computes the layer's output for input, writing it to the
	// layer's output slot and, when output is non-nil, into output.
	Forward(input, output *tensor.Tensor)

	// Backward propagates the incoming gradient gy to the layer's input,
	// writing the result to the layer's delta slot and, when g is non-nil,
	// into g. input is the tensor the layer was last forwarded with; layers
	// whose derivative depends only on their saved output may ignore it.
	Backward(input, gy, g *tensor.Tensor)

	// Gradient accumulates parameter gradients for one step into the
	// layer's Parameters, given the input the step saw and the error err
	// flowing into the layer's output at that step. Gradients sum across
	// calls until ZeroGrad is invoked on the parameters.
	Gradient(input, err *tensor.Tensor)

	// OutputParameter returns the slot written by the last Forward call,
	// or nil before the first one.
	OutputParameter() *tensor.Tensor

	// Delta returns the slot written by the last Backward call, or nil
	// before the first one.
	Delta() *tensor.Tensor

	// Parameters returns the trainable parameters of this layer, including
	// nested ones for containers. Stateless layers return nil.
	Parameters() []*Parameter

	// Reset sizes and zeroes the layer's gradient accumulators and drops
	// scratch state. It must be called before the first training step; the
	// Recurrent constructor does this for its sub-layers.
	Reset()

	// Clone returns a deep copy: weights copied, scratch state fresh.
	Clone() Layer

	// StateDict returns the layer's persistent state as named tensors.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict restores persistent state produced by StateDict.
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// ZeroGradients zeroes the gradient accumulators of all parameters of l.
func ZeroGradients(l Layer) {
	for _, p := range l.Parameters() {
		p.ZeroGrad()
	}
}

// writeTo copies src into dst when dst is non-nil. Layers use it to honor
// optional caller-provided buffers next to their own slots.
func writeTo(dst, src *tensor.Tensor) {
	if dst != nil {
		dst.CopyFrom(src)
	}
}

// slot returns cur when it already holds n elements, otherwise a fresh
// tensor of the given shape. Layers size their output and delta slots with
// it lazily, so a layer adapts to whatever width it is first forwarded with.
func slot(cur *tensor.Tensor, shape tensor.Shape) *tensor.Tensor {
	if cur != nil && cur.NumElements() == shape.NumElements() {
		return cur
	}
	return tensor.New(shape)
}
