// Copyright 2025 Rewind ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/rewind-ml/rewind/internal/nn"
)

// Layer is the interface every network layer implements.
type Layer = nn.Layer

// Parameter represents a trainable parameter in a neural network.
type Parameter = nn.Parameter

// Model is anything whose persistent state is a named tensor dict.
type Model = nn.Model

// Layers

// Add adds a learned bias vector to its input.
type Add = nn.Add

// NewAdd creates an Add layer of the given width.
func NewAdd(size int) *Add {
	return nn.NewAdd(size)
}

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(128, 64)
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// Activations

// Identity passes its input through unchanged.
type Identity = nn.Identity

// NewIdentity creates an Identity activation layer.
func NewIdentity() *Identity {
	return nn.NewIdentity()
}

// ReLU represents the Rectified Linear Unit activation function.
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Sigmoid represents the sigmoid activation function.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid() *Sigmoid {
	return nn.NewSigmoid()
}

// Tanh represents the hyperbolic tangent activation function.
type Tanh = nn.Tanh

// NewTanh creates a new Tanh activation layer.
func NewTanh() *Tanh {
	return nn.NewTanh()
}

// Containers

// Sequential chains layers so each feeds the next.
type Sequential = nn.Sequential

// NewSequential creates a sequential container over the given layers.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10),
//	)
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}

// AddMerge sums the outputs of several externally driven layers.
type AddMerge = nn.AddMerge

// NewAddMerge creates an AddMerge container over the given layers.
func NewAddMerge(layers ...Layer) *AddMerge {
	return nn.NewAddMerge(layers...)
}

// Recurrent

// Recurrent is a recurrent layer trained with truncated backpropagation
// through time over a fixed window.
type Recurrent = nn.Recurrent

// NewRecurrent creates a recurrent layer that owns deep copies of the four
// fundamental layers. rho is the backpropagation window length.
//
// Example:
//
//	rnn := nn.NewRecurrent(
//	    nn.NewAdd(hidden),          // start
//	    nn.NewLinear(in, hidden),   // input
//	    nn.NewLinear(hidden, hidden), // feedback
//	    nn.NewTanh(),               // transfer
//	    rho,
//	)
func NewRecurrent(start, input, feedback, transfer Layer, rho int) *Recurrent {
	return nn.NewRecurrent(start, input, feedback, transfer, rho)
}

// NewRecurrentShared creates a recurrent layer that borrows the caller's
// layers instead of copying them, so weights stay shared with the caller.
func NewRecurrentShared(start, input, feedback, transfer Layer, rho int) *Recurrent {
	return nn.NewRecurrentShared(start, input, feedback, transfer, rho)
}

// LoadRecurrent reconstructs a recurrent layer from a .rwnd file, rebuilding
// its wiring over the supplied prototype layers.
func LoadRecurrent(path string, start, input, feedback, transfer Layer) (*Recurrent, error) {
	return nn.LoadRecurrent(path, start, input, feedback, transfer)
}

// Checkpointing

// Checkpoint represents a complete training state snapshot.
type Checkpoint = nn.Checkpoint

// OptimizerState is the optimizer side of a checkpoint.
type OptimizerState = nn.OptimizerState

// LoadCheckpoint restores a checkpoint into an existing model and optimizer.
func LoadCheckpoint(path string, model Model, optimizer OptimizerState) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, model, optimizer)
}

// ZeroGradients zeroes the gradient accumulators of every parameter in l.
func ZeroGradients(l Layer) {
	nn.ZeroGradients(l)
}
