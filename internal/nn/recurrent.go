package nn

import (
	"fmt"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// Recurrent unrolls a small composite sub-network over a fixed window of rho
// time steps and trains it with truncated backpropagation through time.
//
// The orchestrator owns four fundamental sub-layers supplied at
// construction:
//
//   - Start:    produces the initial hidden state, used at time step 0 only
//   - Input:    transforms the external input at every time step
//   - Feedback: transforms the previous step's transfer output
//   - Transfer: the nonlinearity applied after merging Input and Feedback
//
// From them it wires three composite modules:
//
//	initial = Sequential{Input, Start, Transfer}   // time step 0
//	merge   = AddMerge(Input, Feedback)            // time steps >= 1
//	body    = Sequential{merge, Transfer}          // time steps >= 1
//
// The caller drives one window as rho Forward calls in chronological order,
// then rho Backward/Gradient pairs in reverse chronological order, passing
// each step's historical input and incoming gradient. Counters select the
// wiring path per call and wrap at rho, resetting the window state. Call
// ordering is the caller's responsibility: the orchestrator does not detect
// out-of-order or miscounted calls, it silently produces wrong gradients
// (matching the contract in the package-level documentation of the training
// drivers that use it).
//
// Example:
//
//	rnn := nn.NewRecurrent(
//	    nn.NewAdd(hidden),            // start
//	    nn.NewLinear(in, hidden),     // input
//	    nn.NewLinear(hidden, hidden), // feedback
//	    nn.NewTanh(),                 // transfer
//	    rho,
//	)
//	for t := 0; t < rho; t++ {
//	    rnn.Forward(xs[t], ys[t])
//	}
//	for t := rho - 1; t >= 0; t-- {
//	    rnn.Backward(xs[t], grads[t], g)
//	    rnn.Gradient(xs[t], grads[t])
//	}
//
// Not safe for concurrent use.
type Recurrent struct {
	start    Layer
	input    Layer
	feedback Layer
	transfer Layer

	initial *Sequential
	merge   *AddMerge
	body    *Sequential

	rho          int
	forwardStep  int
	backwardStep int
	gradientStep int

	deterministic bool
	ownsLayers    bool

	// recurrentError accumulates the error flowing backward through time
	// within one window; zeroed when forwardStep wraps.
	recurrentError *tensor.Tensor

	// history holds one transfer-output snapshot per Forward call of the
	// open window, consumed from the end during Gradient.
	history []*tensor.Tensor

	output *tensor.Tensor
	delta  *tensor.Tensor
}

// NewRecurrent creates an owning Recurrent layer over deep copies of the
// four fundamental layers. Mutating the orchestrator's weights afterwards
// does not affect the layers the caller passed in.
//
// rho is the truncation window length and must be at least 1; a smaller
// value is a programmer error and panics.
func NewRecurrent(start, input, feedback, transfer Layer, rho int) *Recurrent {
	if rho < 1 {
		panic(fmt.Sprintf("Recurrent: rho must be >= 1, got %d", rho))
	}
	r := &Recurrent{
		start:      start.Clone(),
		input:      input.Clone(),
		feedback:   feedback.Clone(),
		transfer:   transfer.Clone(),
		rho:        rho,
		ownsLayers: true,
	}
	r.wire()
	return r
}

// NewRecurrentShared creates a borrowing Recurrent layer over the caller's
// layers themselves. The orchestrator reads and writes their weights and
// gradients in place; the caller must keep the layers alive for as long as
// the orchestrator is used and must not hand the same layers to a second
// concurrently-trained orchestrator.
func NewRecurrentShared(start, input, feedback, transfer Layer, rho int) *Recurrent {
	if rho < 1 {
		panic(fmt.Sprintf("Recurrent: rho must be >= 1, got %d", rho))
	}
	r := &Recurrent{
		start:      start,
		input:      input,
		feedback:   feedback,
		transfer:   transfer,
		rho:        rho,
		ownsLayers: false,
	}
	r.wire()
	return r
}

// wire builds the three composite modules from the four fundamentals and
// runs the sizing pass. Construction and persistence reload both go through
// here so a reloaded instance is structurally identical to a fresh one.
func (r *Recurrent) wire() {
	r.initial = NewSequential(r.input, r.start, r.transfer)
	r.merge = NewAddMerge(r.input, r.feedback)
	r.body = NewSequential(r.merge, r.transfer)

	r.start.Reset()
	r.input.Reset()
	r.feedback.Reset()
	r.transfer.Reset()
}

// Forward evaluates one time step.
//
// At step 0 the initial module runs: Input, then Start, then Transfer, with
// no feedback. At later steps the Input and Feedback layers run first (the
// latter reading the previous step's transfer output), then the recurrent
// body re-merges their outputs and applies Transfer. Either way the
// caller-visible result is the transfer output, which is also snapshotted
// into the feedback history unless the layer is in deterministic mode.
//
// When the call completes the window (forwardStep reaches rho), the forward
// and backward counters reset and the recurrent error is zeroed, ready for
// the next independent sequence.
func (r *Recurrent) Forward(input, output *tensor.Tensor) {
	if r.forwardStep == 0 {
		r.initial.Forward(input, nil)
	} else {
		r.input.Forward(input, nil)
		r.feedback.Forward(r.transfer.OutputParameter(), nil)
		r.body.Forward(input, nil)
	}

	out := r.transfer.OutputParameter()
	r.output = slot(r.output, out.Shape())
	r.output.CopyFrom(out)
	writeTo(output, r.output)

	// Save the feedback output parameter when training the module.
	if !r.deterministic {
		r.history = append(r.history, r.output.Clone())
	}

	r.forwardStep++
	if r.forwardStep == r.rho {
		r.forwardStep = 0
		r.backwardStep = 0
		if r.recurrentError != nil {
			r.recurrentError.Zero()
		}
	}
}

// Backward propagates one step's error backward through the unrolled
// window, in reverse chronological order relative to Forward.
//
// gy is summed into the recurrent error first: error flowing from later
// time steps joins the error injected at this step. While the window's
// earliest step has not been reached, the accumulated error goes backward
// through the recurrent body, then through Input (producing g) and Feedback
// independently; at the earliest step it goes through the initial module
// instead, since that is what ran forward at time 0. After either branch
// the Feedback delta becomes the recurrent error carried into the next
// (chronologically earlier) Backward call.
func (r *Recurrent) Backward(_, gy, g *tensor.Tensor) {
	if r.recurrentError == nil {
		r.recurrentError = gy.Clone()
	} else {
		r.recurrentError.AddInPlace(gy)
	}

	var propagated *tensor.Tensor
	if r.backwardStep < r.rho-1 {
		r.body.Backward(r.body.OutputParameter(), r.recurrentError, nil)
		r.input.Backward(r.input.OutputParameter(), r.body.Delta(), nil)
		r.feedback.Backward(r.feedback.OutputParameter(), r.body.Delta(), nil)
		propagated = r.input.Delta()
	} else {
		r.initial.Backward(r.initial.OutputParameter(), r.recurrentError, nil)
		propagated = r.initial.Delta()
	}

	r.delta = slot(r.delta, propagated.Shape())
	r.delta.CopyFrom(propagated)
	writeTo(g, r.delta)

	// Carry the recurrent error signal one step back through time. With
	// rho == 1 the feedback layer never runs backward and has no delta.
	if d := r.feedback.Delta(); d != nil {
		r.recurrentError.CopyFrom(d)
	}
	r.backwardStep++
}

// Gradient accumulates one step's parameter gradients, in the same reverse
// order as Backward. input is the external input the step saw; err is the
// error that reached this layer's output at that step.
//
// While the window's earliest step has not been reached, the recurrent body
// accumulates against (input, err), Input against the merge delta, and
// Feedback against the merge delta paired with the historical transfer
// snapshot that actually fed it at that step. At the earliest step only the
// initial module ran forward, so only its gradient accumulates, driven by
// the Start delta; the body, Input and Feedback paths contribute nothing.
//
// When the call completes the window, the gradient counter resets and the
// feedback history is cleared.
func (r *Recurrent) Gradient(input, err *tensor.Tensor) {
	if r.gradientStep < r.rho-1 {
		r.body.Gradient(input, err)
		r.input.Gradient(input, r.merge.Delta())
		snapshot := r.history[len(r.history)-2-r.gradientStep]
		r.feedback.Gradient(snapshot, r.merge.Delta())
	} else {
		r.initial.Gradient(input, r.start.Delta())
	}

	r.gradientStep++
	if r.gradientStep == r.rho {
		r.gradientStep = 0
		r.history = r.history[:0]
	}
}

// SetDeterministic toggles inference mode. In deterministic mode Forward
// does not record feedback history, so a deployed network can run
// indefinitely without accumulating per-step snapshots.
func (r *Recurrent) SetDeterministic(deterministic bool) {
	r.deterministic = deterministic
}

// Deterministic reports whether the layer is in inference mode.
func (r *Recurrent) Deterministic() bool {
	return r.deterministic
}

// Rho returns the truncation window length.
func (r *Recurrent) Rho() int {
	return r.rho
}

// OwnsLayers reports whether this instance holds private copies of its four
// fundamental layers (true for NewRecurrent) or borrows the caller's
// (NewRecurrentShared).
func (r *Recurrent) OwnsLayers() bool {
	return r.ownsLayers
}

// StartLayer returns the Start sub-layer.
func (r *Recurrent) StartLayer() Layer { return r.start }

// InputLayer returns the Input sub-layer.
func (r *Recurrent) InputLayer() Layer { return r.input }

// FeedbackLayer returns the Feedback sub-layer.
func (r *Recurrent) FeedbackLayer() Layer { return r.feedback }

// TransferLayer returns the Transfer sub-layer.
func (r *Recurrent) TransferLayer() Layer { return r.transfer }

// OutputParameter returns the slot written by the last Forward call.
func (r *Recurrent) OutputParameter() *tensor.Tensor { return r.output }

// Delta returns the slot written by the last Backward call.
func (r *Recurrent) Delta() *tensor.Tensor { return r.delta }

// Parameters returns the parameters of the four fundamental layers. The
// composite modules alias the same layers, so collecting from the
// fundamentals yields each parameter exactly once.
func (r *Recurrent) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range []Layer{r.start, r.input, r.feedback, r.transfer} {
		params = append(params, l.Parameters()...)
	}
	return params
}

// Reset clears all window state: counters, recurrent error, feedback
// history and every sub-layer's gradient accumulators and scratch slots.
func (r *Recurrent) Reset() {
	r.initial.Reset()
	r.body.Reset()
	r.feedback.Reset()

	r.forwardStep = 0
	r.backwardStep = 0
	r.gradientStep = 0
	r.recurrentError = nil
	r.history = nil
	r.output = nil
	r.delta = nil
}

// Clone returns an owning deep copy with the same rho and weights.
func (r *Recurrent) Clone() Layer {
	return NewRecurrent(r.start, r.input, r.feedback, r.transfer, r.rho)
}

// recurrentPrefixes orders the four fundamental layers for persistence.
var recurrentPrefixes = []string{"start", "input", "feedback", "transfer"}

func (r *Recurrent) fundamentals() []Layer {
	return []Layer{r.start, r.input, r.feedback, r.transfer}
}

// StateDict returns the state of the four fundamental layers, keys prefixed
// with "start.", "input.", "feedback." and "transfer.". The composite
// modules and the feedback history are wiring and window state, never
// persisted; reload rebuilds them from the fundamentals.
func (r *Recurrent) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for i, l := range r.fundamentals() {
		for name, t := range l.StateDict() {
			state[recurrentPrefixes[i]+"."+name] = t
		}
	}
	return state
}

// LoadStateDict restores the four fundamental layers from a prefixed state
// dict produced by StateDict.
func (r *Recurrent) LoadStateDict(state map[string]*tensor.Tensor) error {
	for i, l := range r.fundamentals() {
		prefix := recurrentPrefixes[i] + "."
		childState := make(map[string]*tensor.Tensor)
		for key, t := range state {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				childState[key[len(prefix):]] = t
			}
		}
		if len(childState) > 0 {
			if err := l.LoadStateDict(childState); err != nil {
				return fmt.Errorf("failed to load %s layer: %w", recurrentPrefixes[i], err)
			}
		}
	}
	return nil
}
