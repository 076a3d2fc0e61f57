package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewind-ml/rewind/internal/nn"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// newParam builds a parameter with the given values and gradient.
func newParam(t *testing.T, name string, values, grads []float32) *nn.Parameter {
	t.Helper()
	w, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	require.NoError(t, err)
	p := nn.NewParameter(name, w)
	copy(p.Grad().Data(), grads)
	return p
}

func TestSGDStep(t *testing.T) {
	p := newParam(t, "w", []float32{1, -2, 0.5}, []float32{0.5, -1, 2})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LR: 0.1})

	sgd.Step()

	// w = w - lr*g
	want := []float32{1 - 0.1*0.5, -2 - 0.1*-1, 0.5 - 0.1*2}
	for i, v := range want {
		assert.InDelta(t, v, p.Tensor().Data()[i], 1e-6)
	}
}

func TestSGDMomentum(t *testing.T) {
	p := newParam(t, "w", []float32{0}, []float32{1})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 1, w = -0.1.
	sgd.Step()
	assert.InDelta(t, -0.1, p.Tensor().Data()[0], 1e-6)

	// Step 2 with the same gradient: v = 0.9*1 + 1 = 1.9, w = -0.1 - 0.19.
	sgd.Step()
	assert.InDelta(t, -0.29, p.Tensor().Data()[0], 1e-6)
}

func TestSGDDefaultLR(t *testing.T) {
	p := newParam(t, "w", []float32{1}, []float32{1})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{})
	assert.InDelta(t, 0.01, sgd.GetLR(), 1e-9)

	sgd.SetLR(0.5)
	assert.InDelta(t, 0.5, sgd.GetLR(), 1e-9)
}

func TestSGDZeroGrad(t *testing.T) {
	p := newParam(t, "w", []float32{1, 1}, []float32{3, -4})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{})

	sgd.ZeroGrad()
	for _, g := range p.Grad().Data() {
		assert.Zero(t, g)
	}
}

// TestSGDStateRoundTrip checks that a restored optimizer produces the same
// update as the one it was saved from.
func TestSGDStateRoundTrip(t *testing.T) {
	p1 := newParam(t, "w", []float32{0, 0}, []float32{1, -2})
	sgd1 := NewSGD([]*nn.Parameter{p1}, SGDConfig{LR: 0.1, Momentum: 0.9})
	sgd1.Step()

	p2 := newParam(t, "w", p1.Tensor().Data(), p1.Grad().Data())
	sgd2 := NewSGD([]*nn.Parameter{p2}, SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, sgd2.LoadStateDict(sgd1.StateDict()))

	sgd1.Step()
	sgd2.Step()
	assert.Equal(t, p1.Tensor().Data(), p2.Tensor().Data())
}

func TestAdamFirstStep(t *testing.T) {
	p := newParam(t, "w", []float32{1, 1, 1}, []float32{0.5, -3, 0})
	adam := NewAdam([]*nn.Parameter{p}, AdamConfig{LR: 0.01})

	adam.Step()

	// After bias correction the first update is lr * g/(|g| + eps), so
	// each weight moves by lr against the gradient's sign; a zero
	// gradient leaves the weight alone.
	assert.InDelta(t, 1-0.01, p.Tensor().Data()[0], 1e-5)
	assert.InDelta(t, 1+0.01, p.Tensor().Data()[1], 1e-5)
	assert.InDelta(t, 1, p.Tensor().Data()[2], 1e-6)
}

// TestAdamStateRoundTrip checks that restored moment estimates and the
// timestep reproduce the original optimizer's trajectory.
func TestAdamStateRoundTrip(t *testing.T) {
	p1 := newParam(t, "w", []float32{1, -1}, []float32{0.3, 0.7})
	adam1 := NewAdam([]*nn.Parameter{p1}, AdamConfig{LR: 0.01})
	adam1.Step()
	adam1.Step()

	p2 := newParam(t, "w", p1.Tensor().Data(), p1.Grad().Data())
	adam2 := NewAdam([]*nn.Parameter{p2}, AdamConfig{LR: 0.01})
	require.NoError(t, adam2.LoadStateDict(adam1.StateDict()))

	adam1.Step()
	adam2.Step()
	assert.Equal(t, p1.Tensor().Data(), p2.Tensor().Data())
}

// TestSGDTrainsRecurrentWindow runs a few truncated-BPTT windows on a tiny
// additive network and checks the loss on a constant target decreases.
func TestSGDTrainsRecurrentWindow(t *testing.T) {
	const rho = 2
	r := nn.NewRecurrent(nn.NewAdd(1), nn.NewAdd(1), nn.NewAdd(1), nn.NewIdentity(), rho)
	sgd := NewSGD(r.Parameters(), SGDConfig{LR: 0.05})

	x, err := tensor.FromSlice([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)
	const target = float32(3)

	window := func() float32 {
		var loss float32
		outs := make([]*tensor.Tensor, rho)
		for i := 0; i < rho; i++ {
			out := tensor.New(tensor.Shape{1})
			r.Forward(x, out)
			outs[i] = out
			d := out.Data()[0] - target
			loss += d * d
		}
		for i := rho - 1; i >= 0; i-- {
			gy := tensor.New(tensor.Shape{1})
			gy.Data()[0] = 2 * (outs[i].Data()[0] - target)
			r.Backward(x, gy, nil)
			r.Gradient(x, gy)
		}
		return loss
	}

	first := window()
	sgd.Step()
	sgd.ZeroGrad()
	for i := 0; i < 20; i++ {
		window()
		sgd.Step()
		sgd.ZeroGrad()
	}
	last := window()
	assert.Less(t, last, first)
}
