package nn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rewind-ml/rewind/internal/serialization"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// Model is anything whose persistent state is a named tensor dict. Every
// Layer satisfies it.
type Model interface {
	StateDict() map[string]*tensor.Tensor
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// OptimizerState represents an optimizer that can save/load its state.
//
// This interface is used by checkpoints to serialize optimizer state
// without creating an import cycle; the optimizers in internal/optim
// implement it.
type OptimizerState interface {
	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict loads optimizer state from serialization.
	LoadStateDict(state map[string]*tensor.Tensor) error

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Save writes the Recurrent layer to a .rwnd file.
//
// Only the four fundamental layers plus rho and the ownership mode are
// persisted: the composite wiring is rebuilt on load by the exact
// construction algorithm, so a reloaded instance is structurally identical
// to a freshly constructed one. Window state (counters, recurrent error,
// feedback history) is transient and never written.
func (r *Recurrent) Save(path string) error {
	meta := map[string]string{
		"rho":         strconv.Itoa(r.rho),
		"owns_layers": strconv.FormatBool(r.ownsLayers),
	}
	return serialization.SaveStateDict(path, "Recurrent", r.StateDict(), meta)
}

// LoadRecurrent reconstructs a Recurrent layer from a .rwnd file.
//
// The file stores weights, not wiring, so the caller supplies prototype
// layers of the kinds the network was built from; their weights are
// overwritten with the persisted state. The persisted ownership mode
// selects the constructor: an owning instance is rebuilt over clones of the
// prototypes, a borrowing one over the prototypes themselves.
func LoadRecurrent(path string, start, input, feedback, transfer Layer) (*Recurrent, error) {
	state, header, err := serialization.LoadStateDict(path)
	if err != nil {
		return nil, err
	}
	if header.ModelType != "Recurrent" {
		return nil, fmt.Errorf("expected a Recurrent model, got %q", header.ModelType)
	}
	rho, err := strconv.Atoi(header.Metadata["rho"])
	if err != nil || rho < 1 {
		return nil, fmt.Errorf("invalid rho %q in %s", header.Metadata["rho"], path)
	}
	owns, err := strconv.ParseBool(header.Metadata["owns_layers"])
	if err != nil {
		return nil, fmt.Errorf("invalid owns_layers %q in %s", header.Metadata["owns_layers"], path)
	}

	var r *Recurrent
	if owns {
		r = NewRecurrent(start, input, feedback, transfer, rho)
	} else {
		r = NewRecurrentShared(start, input, feedback, transfer, rho)
	}
	if err := r.LoadStateDict(state); err != nil {
		return nil, err
	}
	return r, nil
}

// Checkpoint represents a complete training state snapshot: model
// parameters, optimizer state and training metadata. Checkpoints let a
// long-running training job resume after an interruption.
//
// Example:
//
//	checkpoint := &nn.Checkpoint{
//	    Model:     rnn,
//	    Optimizer: optimizer,
//	    Epoch:     10,
//	    Step:      5000,
//	    Loss:      0.123,
//	}
//	err := checkpoint.Save("checkpoint_epoch_10.rwnd")
type Checkpoint struct {
	Model     Model          // The model being trained
	Optimizer OptimizerState // The optimizer with its state; may be nil
	Epoch     int            // Training epoch number
	Step      int64          // Training step number
	Loss      float64        // Loss value at this checkpoint
	CreatedAt time.Time      // When the checkpoint was created
}

const optimizerPrefix = "optimizer."

// Save writes the checkpoint to a .rwnd file. Optimizer state is stored
// under an "optimizer." prefix next to the model parameters.
func (c *Checkpoint) Save(path string) error {
	combined := make(map[string]*tensor.Tensor)
	for name, t := range c.Model.StateDict() {
		combined[name] = t
	}
	if c.Optimizer != nil {
		for name, t := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = t
		}
	}

	meta := map[string]string{
		"epoch": strconv.Itoa(c.Epoch),
		"step":  strconv.FormatInt(c.Step, 10),
		"loss":  strconv.FormatFloat(c.Loss, 'g', -1, 64),
	}
	if c.Optimizer != nil {
		meta["lr"] = strconv.FormatFloat(float64(c.Optimizer.GetLR()), 'g', -1, 32)
	}
	return serialization.SaveStateDict(path, "Checkpoint", combined, meta)
}

// LoadCheckpoint restores a checkpoint into an existing model and optimizer.
//
// The model and optimizer must already be constructed with the same
// architecture the checkpoint was saved from; only their state is loaded.
// optimizer may be nil when no optimizer state is wanted.
func LoadCheckpoint(path string, model Model, optimizer OptimizerState) (*Checkpoint, error) {
	state, header, err := serialization.LoadStateDict(path)
	if err != nil {
		return nil, err
	}
	if header.ModelType != "Checkpoint" {
		return nil, fmt.Errorf("expected a Checkpoint file, got %q", header.ModelType)
	}

	modelState := make(map[string]*tensor.Tensor)
	optimizerState := make(map[string]*tensor.Tensor)
	for name, t := range state {
		if strings.HasPrefix(name, optimizerPrefix) {
			optimizerState[strings.TrimPrefix(name, optimizerPrefix)] = t
		} else {
			modelState[name] = t
		}
	}
	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if optimizer != nil && len(optimizerState) > 0 {
		if err := optimizer.LoadStateDict(optimizerState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	c := &Checkpoint{
		Model:     model,
		Optimizer: optimizer,
		CreatedAt: header.CreatedAt,
	}
	if v, err := strconv.Atoi(header.Metadata["epoch"]); err == nil {
		c.Epoch = v
	}
	if v, err := strconv.ParseInt(header.Metadata["step"], 10, 64); err == nil {
		c.Step = v
	}
	if v, err := strconv.ParseFloat(header.Metadata["loss"], 64); err == nil {
		c.Loss = v
	}
	return c, nil
}
