package nn

import (
	"math"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// activation is the shared implementation of element-wise stateless layers.
// The derivative is expressed in the layer's saved output, so Backward never
// needs the forward input.
type activation struct {
	fn     func(x float32) float32
	deriv  func(y float32) float32
	output *tensor.Tensor
	delta  *tensor.Tensor
}

func (a *activation) Forward(input, output *tensor.Tensor) {
	a.output = slot(a.output, input.Shape())
	in, out := input.Data(), a.output.Data()
	for i := range in {
		out[i] = a.fn(in[i])
	}
	writeTo(output, a.output)
}

func (a *activation) Backward(_, gy, g *tensor.Tensor) {
	a.delta = slot(a.delta, gy.Shape())
	gyd, yd, d := gy.Data(), a.output.Data(), a.delta.Data()
	for i := range gyd {
		d[i] = gyd[i] * a.deriv(yd[i])
	}
	writeTo(g, a.delta)
}

func (a *activation) Gradient(_, _ *tensor.Tensor) {}

func (a *activation) OutputParameter() *tensor.Tensor { return a.output }

func (a *activation) Delta() *tensor.Tensor { return a.delta }

func (a *activation) Parameters() []*Parameter { return nil }

func (a *activation) Reset() {
	a.output = nil
	a.delta = nil
}

func (a *activation) StateDict() map[string]*tensor.Tensor { return nil }

func (a *activation) LoadStateDict(map[string]*tensor.Tensor) error { return nil }

// Identity passes its input through unchanged: f(x) = x.
//
// Useful as the Transfer module of a Recurrent network when the merged state
// should not be squashed, and as a placeholder in tests.
type Identity struct{ activation }

// NewIdentity creates a new Identity layer.
func NewIdentity() *Identity {
	return &Identity{activation{
		fn:    func(x float32) float32 { return x },
		deriv: func(float32) float32 { return 1 },
	}}
}

// Clone returns a fresh Identity layer.
func (*Identity) Clone() Layer { return NewIdentity() }

// Tanh applies the element-wise function f(x) = tanh(x).
//
// The classic choice for the Transfer module: it keeps the recurrent state
// bounded in (-1, 1) across time steps.
type Tanh struct{ activation }

// NewTanh creates a new Tanh activation layer.
func NewTanh() *Tanh {
	return &Tanh{activation{
		fn:    func(x float32) float32 { return float32(math.Tanh(float64(x))) },
		deriv: func(y float32) float32 { return 1 - y*y },
	}}
}

// Clone returns a fresh Tanh layer.
func (*Tanh) Clone() Layer { return NewTanh() }

// Sigmoid applies the element-wise function σ(x) = 1 / (1 + exp(-x)).
//
// Squashes values into (0, 1), making it useful for gate-like transfers.
type Sigmoid struct{ activation }

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{activation{
		fn:    func(x float32) float32 { return 1.0 / (1.0 + float32(math.Exp(float64(-x)))) },
		deriv: func(y float32) float32 { return y * (1 - y) },
	}}
}

// Clone returns a fresh Sigmoid layer.
func (*Sigmoid) Clone() Layer { return NewSigmoid() }

// ReLU applies the element-wise function f(x) = max(0, x).
type ReLU struct{ activation }

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{activation{
		fn: func(x float32) float32 {
			if x > 0 {
				return x
			}
			return 0
		},
		deriv: func(y float32) float32 {
			if y > 0 {
				return 1
			}
			return 0
		},
	}}
}

// Clone returns a fresh ReLU layer.
func (*ReLU) Clone() Layer { return NewReLU() }
