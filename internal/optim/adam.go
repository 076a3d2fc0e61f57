package optim

import (
	"fmt"
	"math"

	"github.com/rewind-ml/rewind/internal/nn"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*nn.Parameter
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int              // Timestep for bias correction
	m      []*tensor.Tensor // First moment estimates, parallel to params
	v      []*tensor.Tensor // Second moment estimates, parallel to params
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer with defaults filled in.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make([]*tensor.Tensor, len(params)),
		v:      make([]*tensor.Tensor, len(params)),
	}
}

// Step performs a single Adam update on every parameter.
func (a *Adam) Step() {
	a.t++
	correction1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.t)))
	correction2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.t)))

	for i, param := range a.params {
		grad := param.Grad().Data()

		if a.m[i] == nil {
			a.m[i] = tensor.New(param.Grad().Shape())
			a.v[i] = tensor.New(param.Grad().Shape())
		}
		m, v := a.m[i].Data(), a.v[i].Data()
		w := param.Tensor().Data()

		for j := range grad {
			m[j] = a.beta1*m[j] + (1-a.beta1)*grad[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*grad[j]*grad[j]

			mHat := m[j] / correction1
			vHat := v[j] / correction2
			w[j] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad zeroes every parameter's gradient accumulator.
func (a *Adam) ZeroGrad() {
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 {
	return a.lr
}

// SetLR replaces the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// StateDict returns the moment estimates, keyed by parameter index.
func (a *Adam) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for i := range a.params {
		if a.m[i] != nil {
			state[fmt.Sprintf("m.%d", i)] = a.m[i].Clone()
			state[fmt.Sprintf("v.%d", i)] = a.v[i].Clone()
		}
	}
	// Timestep rides along as a 1-element tensor so bias correction
	// resumes where it left off.
	t := tensor.New(tensor.Shape{1})
	t.Data()[0] = float32(a.t)
	state["t"] = t
	return state
}

// LoadStateDict restores moment estimates saved by StateDict.
func (a *Adam) LoadStateDict(state map[string]*tensor.Tensor) error {
	if t, ok := state["t"]; ok {
		a.t = int(t.Data()[0])
	}
	for i, param := range a.params {
		m, okM := state[fmt.Sprintf("m.%d", i)]
		v, okV := state[fmt.Sprintf("v.%d", i)]
		if !okM || !okV {
			continue
		}
		if !m.Shape().Equal(param.Tensor().Shape()) || !v.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("moment %d shape mismatch for parameter %q", i, param.Name())
		}
		a.m[i] = m.Clone()
		a.v[i] = v.Clone()
	}
	return nil
}
