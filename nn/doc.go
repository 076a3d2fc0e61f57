// Copyright 2025 Rewind ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Add, Linear
//   - Activations: Identity, ReLU, Sigmoid, Tanh
//   - Containers: Sequential, AddMerge
//   - Recurrent: truncated-BPTT recurrent layer
//   - Persistence: Save/LoadRecurrent, Checkpoint
//
// # Basic Usage
//
//	import "github.com/rewind-ml/rewind/nn"
//
//	func main() {
//	    rnn := nn.NewRecurrent(
//	        nn.NewAdd(16),
//	        nn.NewLinear(8, 16),
//	        nn.NewLinear(16, 16),
//	        nn.NewTanh(),
//	        5,
//	    )
//
//	    out := tensor.New(tensor.Shape{16})
//	    rnn.Forward(input, out)
//	}
//
// # Training
//
// A Recurrent layer is driven one time step at a time: rho Forward calls in
// chronological order, then one Backward and one Gradient call per step in
// reverse. Gradients accumulate into each Parameter until an optimizer
// consumes them.
package nn
