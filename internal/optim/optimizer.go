// Package optim implements optimization algorithms for training Rewind
// networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Gradients live on the parameters themselves: every Layer.Gradient call
// accumulates into Parameter.Grad, and Step reads those accumulators
// directly. With a Recurrent layer this is the point where the rho unrolled
// time steps' contributions, already summed per parameter, finally move the
// weights.
//
// Example usage:
//
//	optimizer := optim.NewSGD(rnn.Parameters(), optim.SGDConfig{LR: 0.01})
//
//	for epoch := range epochs {
//	    runWindow(rnn, sequence) // rho Forward + rho Backward/Gradient
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/rewind-ml/rewind/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to every parameter from its accumulated
	// gradient. It does not zero the accumulators.
	Step()

	// ZeroGrad zeroes every parameter's gradient accumulator.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR replaces the learning rate, for schedules driven by the caller.
	SetLR(lr float32)
}

func zeroGrads(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
