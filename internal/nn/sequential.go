package nn

import (
	"fmt"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// Sequential is a container layer that chains child layers together.
//
// Forward threads each child's output slot into the next child; Backward
// walks the chain in reverse threading deltas; Gradient hands every child
// the input and error tensors of its position in the chain. The container
// holds children by reference: when the same child layer also lives in
// another container (as the Recurrent orchestrator arranges), both see one
// set of weights and one gradient accumulator.
//
// Example:
//
//	body := nn.NewSequential(
//	    nn.NewLinear(8, 8),
//	    nn.NewTanh(),
//	)
//	body.Forward(input, output)
type Sequential struct {
	layers []Layer
	output *tensor.Tensor
	delta  *tensor.Tensor
}

// NewSequential creates a new Sequential container over the given layers.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Add appends a layer to the chain.
func (s *Sequential) Add(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Len returns the number of child layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// At returns the child layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) At(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.At: index out of bounds")
	}
	return s.layers[index]
}

// Forward runs every child in order, each reading the previous child's
// output slot. The last child's output becomes the container's output.
func (s *Sequential) Forward(input, output *tensor.Tensor) {
	cur := input
	for _, layer := range s.layers {
		layer.Forward(cur, nil)
		cur = layer.OutputParameter()
	}
	s.output = slot(s.output, cur.Shape())
	s.output.CopyFrom(cur)
	writeTo(output, s.output)
}

// Backward walks the chain in reverse: each child receives the delta of the
// child after it (the last child receives gy), and the first child's delta
// becomes the container's delta.
func (s *Sequential) Backward(input, gy, g *tensor.Tensor) {
	cur := gy
	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].Backward(s.childInput(i, input), cur, nil)
		cur = s.layers[i].Delta()
	}
	s.delta = slot(s.delta, cur.Shape())
	s.delta.CopyFrom(cur)
	writeTo(g, s.delta)
}

// Gradient accumulates parameter gradients for every child. The last child
// sees err; each earlier child sees the delta of its successor, as computed
// by the preceding Backward call.
func (s *Sequential) Gradient(input, err *tensor.Tensor) {
	last := len(s.layers) - 1
	for i := last; i >= 0; i-- {
		childErr := err
		if i != last {
			childErr = s.layers[i+1].Delta()
		}
		s.layers[i].Gradient(s.childInput(i, input), childErr)
	}
}

// childInput resolves the forward input of child i: the container input for
// the first child, the previous child's output slot otherwise.
func (s *Sequential) childInput(i int, input *tensor.Tensor) *tensor.Tensor {
	if i == 0 {
		return input
	}
	return s.layers[i-1].OutputParameter()
}

// OutputParameter returns the slot written by the last Forward call.
func (s *Sequential) OutputParameter() *tensor.Tensor { return s.output }

// Delta returns the slot written by the last Backward call.
func (s *Sequential) Delta() *tensor.Tensor { return s.delta }

// Parameters returns the parameters of all children, in chain order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Reset resets every child and drops the container's scratch state.
func (s *Sequential) Reset() {
	for _, layer := range s.layers {
		layer.Reset()
	}
	s.output = nil
	s.delta = nil
}

// Clone deep-copies the container and every child.
func (s *Sequential) Clone() Layer {
	layers := make([]Layer, len(s.layers))
	for i, layer := range s.layers {
		layers[i] = layer.Clone()
	}
	return NewSequential(layers...)
}

// StateDict returns every child's state, keys prefixed with the child index
// (e.g. "0.weight", "2.bias") to avoid name collisions.
func (s *Sequential) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for i, layer := range s.layers {
		for name, t := range layer.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return state
}

// LoadStateDict restores children from an index-prefixed state dict.
func (s *Sequential) LoadStateDict(state map[string]*tensor.Tensor) error {
	for i, layer := range s.layers {
		prefix := fmt.Sprintf("%d.", i)
		childState := make(map[string]*tensor.Tensor)
		for key, t := range state {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				childState[key[len(prefix):]] = t
			}
		}
		if len(childState) > 0 {
			if err := layer.LoadStateDict(childState); err != nil {
				return fmt.Errorf("failed to load layer %d: %w", i, err)
			}
		}
	}
	return nil
}
