package nn

import (
	"fmt"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// AddMerge is a container layer that sums the outputs of N parallel
// children element-wise.
//
// AddMerge does not evaluate its children: the caller forwards each child
// itself, then AddMerge.Forward sums whatever their output slots hold. The
// Recurrent orchestrator depends on this split, since its Input and
// Feedback children are driven with different inputs before the merge runs.
//
// The backward pass follows the sum rule: the incoming gradient flows to
// every addend unchanged, so Backward just records gy as the merge delta
// and the caller backward-propagates each child against that delta.
type AddMerge struct {
	layers []Layer
	output *tensor.Tensor
	delta  *tensor.Tensor
}

// NewAddMerge creates an AddMerge over the given children.
func NewAddMerge(layers ...Layer) *AddMerge {
	return &AddMerge{layers: layers}
}

// Add appends a child to the merge.
func (m *AddMerge) Add(layer Layer) {
	m.layers = append(m.layers, layer)
}

// Len returns the number of children.
func (m *AddMerge) Len() int {
	return len(m.layers)
}

// At returns the child at the given index.
//
// Panics if index is out of bounds.
func (m *AddMerge) At(index int) Layer {
	if index < 0 || index >= len(m.layers) {
		panic("AddMerge.At: index out of bounds")
	}
	return m.layers[index]
}

// Forward sums the children's output slots element-wise. The children must
// already have been forwarded; the input argument is unused.
//
// Panics if the container has no children or a child has not produced an
// output yet.
func (m *AddMerge) Forward(_, output *tensor.Tensor) {
	if len(m.layers) == 0 {
		panic("AddMerge.Forward: no children")
	}
	first := m.layers[0].OutputParameter()
	if first == nil {
		panic("AddMerge.Forward: child 0 has no output; forward the children first")
	}
	m.output = slot(m.output, first.Shape())
	m.output.CopyFrom(first)
	for i, layer := range m.layers[1:] {
		childOut := layer.OutputParameter()
		if childOut == nil {
			panic(fmt.Sprintf("AddMerge.Forward: child %d has no output; forward the children first", i+1))
		}
		m.output.AddInPlace(childOut)
	}
	writeTo(output, m.output)
}

// Backward records gy as the merge delta and, when g is non-nil, copies it
// there. Children are backward-propagated by the caller against Delta.
func (m *AddMerge) Backward(_, gy, g *tensor.Tensor) {
	m.delta = slot(m.delta, gy.Shape())
	m.delta.CopyFrom(gy)
	writeTo(g, m.delta)
}

// Gradient is a no-op: the caller drives each child's gradient computation
// against the merge delta.
func (m *AddMerge) Gradient(_, _ *tensor.Tensor) {}

// OutputParameter returns the slot written by the last Forward call.
func (m *AddMerge) OutputParameter() *tensor.Tensor { return m.output }

// Delta returns the slot written by the last Backward call.
func (m *AddMerge) Delta() *tensor.Tensor { return m.delta }

// Parameters returns the parameters of all children.
func (m *AddMerge) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Reset resets every child and drops the container's scratch state.
func (m *AddMerge) Reset() {
	for _, layer := range m.layers {
		layer.Reset()
	}
	m.output = nil
	m.delta = nil
}

// Clone deep-copies the container and every child.
func (m *AddMerge) Clone() Layer {
	layers := make([]Layer, len(m.layers))
	for i, layer := range m.layers {
		layers[i] = layer.Clone()
	}
	return NewAddMerge(layers...)
}

// StateDict returns every child's state, keys prefixed with the child index.
func (m *AddMerge) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for i, layer := range m.layers {
		for name, t := range layer.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return state
}

// LoadStateDict restores children from an index-prefixed state dict.
func (m *AddMerge) LoadStateDict(state map[string]*tensor.Tensor) error {
	for i, layer := range m.layers {
		prefix := fmt.Sprintf("%d.", i)
		childState := make(map[string]*tensor.Tensor)
		for key, t := range state {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				childState[key[len(prefix):]] = t
			}
		}
		if len(childState) > 0 {
			if err := layer.LoadStateDict(childState); err != nil {
				return fmt.Errorf("failed to load child %d: %w", i, err)
			}
		}
	}
	return nil
}
