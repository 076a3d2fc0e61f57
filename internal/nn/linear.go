package nn

import (
	"fmt"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = W @ x + b
// where:
//   - x is the input vector with inFeatures elements
//   - W is the weight matrix with shape [outFeatures, inFeatures]
//   - b is the bias vector with outFeatures elements
//   - y is the output vector with outFeatures elements
//
// Weights are initialized using Xavier/Glorot initialization, biases with
// zeros. The backward pass computes g = Wᵀ @ gy; the gradient pass
// accumulates dW += err ⊗ x and db += err.
//
// Example:
//
//	layer := nn.NewLinear(8, 4)
//	output := tensor.New(tensor.Shape{4})
//	layer.Forward(input, output)
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [outFeatures, inFeatures]
	bias        *Parameter // [outFeatures]
	output      *tensor.Tensor
	delta       *tensor.Tensor
}

// NewLinear creates a new Linear layer with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int) *Linear {
	weightShape := tensor.Shape{outFeatures, inFeatures}
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape)),
		bias:        NewParameter("bias", Zeros(tensor.Shape{outFeatures})),
	}
}

// Forward computes y = W @ x + b.
//
// Panics if the input does not hold inFeatures elements.
func (l *Linear) Forward(input, output *tensor.Tensor) {
	if input.NumElements() != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d",
			l.inFeatures, input.NumElements()))
	}
	y := l.weight.Tensor().MatVec(input)
	y.AddInPlace(l.bias.Tensor())

	l.output = slot(l.output, y.Shape())
	l.output.CopyFrom(y)
	writeTo(output, l.output)
}

// Backward propagates the gradient to the input: g = Wᵀ @ gy.
func (l *Linear) Backward(_, gy, g *tensor.Tensor) {
	d := l.weight.Tensor().MatVecT(gy)
	l.delta = slot(l.delta, d.Shape())
	l.delta.CopyFrom(d)
	writeTo(g, l.delta)
}

// Gradient accumulates dW += err ⊗ input and db += err.
func (l *Linear) Gradient(input, err *tensor.Tensor) {
	l.weight.Grad().AddOuter(err, input)
	l.bias.Grad().AddInPlace(err)
}

// OutputParameter returns the slot written by the last Forward call.
func (l *Linear) OutputParameter() *tensor.Tensor { return l.output }

// Delta returns the slot written by the last Backward call.
func (l *Linear) Delta() *tensor.Tensor { return l.delta }

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Reset zeroes the gradient accumulators and drops scratch state.
func (l *Linear) Reset() {
	l.weight.ZeroGrad()
	l.bias.ZeroGrad()
	l.output = nil
	l.delta = nil
}

// Clone returns a deep copy with fresh scratch state.
func (l *Linear) Clone() Layer {
	c := NewLinear(l.inFeatures, l.outFeatures)
	c.weight.Tensor().CopyFrom(l.weight.Tensor())
	c.bias.Tensor().CopyFrom(l.bias.Tensor())
	return c
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter { return l.bias }

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int { return l.inFeatures }

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int { return l.outFeatures }

// StateDict returns weight and bias under the keys "weight" and "bias".
func (l *Linear) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"weight": l.weight.Tensor().Clone(),
		"bias":   l.bias.Tensor().Clone(),
	}
}

// LoadStateDict restores weight and bias, validating shapes.
func (l *Linear) LoadStateDict(state map[string]*tensor.Tensor) error {
	weight, ok := state["weight"]
	if !ok {
		return fmt.Errorf("missing weight in state dict")
	}
	expectedWeight := tensor.Shape{l.outFeatures, l.inFeatures}
	if !weight.Shape().Equal(expectedWeight) {
		return fmt.Errorf("weight shape mismatch: expected %v, got %v",
			expectedWeight, weight.Shape())
	}

	bias, ok := state["bias"]
	if !ok {
		return fmt.Errorf("missing bias in state dict")
	}
	if !bias.Shape().Equal(tensor.Shape{l.outFeatures}) {
		return fmt.Errorf("bias shape mismatch: expected %v, got %v",
			tensor.Shape{l.outFeatures}, bias.Shape())
	}

	l.weight.Tensor().CopyFrom(weight)
	l.bias.Tensor().CopyFrom(bias)
	return nil
}
