package optim

import (
	"fmt"

	"github.com/rewind-ml/rewind/internal/nn"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens
// oscillations.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	params     []*nn.Parameter
	lr         float32
	momentum   float32
	velocities []*tensor.Tensor // parallel to params; nil entries until used
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make([]*tensor.Tensor, len(params)),
	}
}

// Step applies one gradient-descent update to every parameter.
func (s *SGD) Step() {
	for i, param := range s.params {
		grad := param.Grad()
		if s.momentum == 0 {
			param.Tensor().AddScaled(grad, -s.lr)
			continue
		}

		v := s.velocities[i]
		if v == nil {
			v = tensor.New(grad.Shape())
			s.velocities[i] = v
		}
		v.ScaleInPlace(s.momentum)
		v.AddInPlace(grad)
		param.Tensor().AddScaled(v, -s.lr)
	}
}

// ZeroGrad zeroes every parameter's gradient accumulator.
func (s *SGD) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR replaces the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// StateDict returns the momentum buffers, keyed by parameter index.
func (s *SGD) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for i, v := range s.velocities {
		if v != nil {
			state[fmt.Sprintf("velocity.%d", i)] = v.Clone()
		}
	}
	return state
}

// LoadStateDict restores momentum buffers saved by StateDict.
func (s *SGD) LoadStateDict(state map[string]*tensor.Tensor) error {
	for i := range s.velocities {
		v, ok := state[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !v.Shape().Equal(s.params[i].Tensor().Shape()) {
			return fmt.Errorf("velocity %d shape mismatch: expected %v, got %v",
				i, s.params[i].Tensor().Shape(), v.Shape())
		}
		s.velocities[i] = v.Clone()
	}
	return nil
}
