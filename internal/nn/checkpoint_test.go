package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewind-ml/rewind/internal/nn"
	"github.com/rewind-ml/rewind/internal/optim"
	"github.com/rewind-ml/rewind/internal/tensor"
)

func newTestRecurrent(t *testing.T) *nn.Recurrent {
	t.Helper()
	return nn.NewRecurrent(nn.NewAdd(2), nn.NewLinear(2, 2), nn.NewLinear(2, 2), nn.NewTanh(), 3)
}

// TestRecurrentSaveLoadRoundTrip checks that a reloaded network is
// behaviorally identical to the saved one: same outputs, same rho, same
// ownership mode, wiring rebuilt from the persisted fundamentals.
func TestRecurrentSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rnn.rwnd")

	original := newTestRecurrent(t)
	require.NoError(t, original.Save(path))

	loaded, err := nn.LoadRecurrent(path, nn.NewAdd(2), nn.NewLinear(2, 2), nn.NewLinear(2, 2), nn.NewTanh())
	require.NoError(t, err)

	assert.Equal(t, original.Rho(), loaded.Rho())
	assert.Equal(t, original.OwnsLayers(), loaded.OwnsLayers())

	inputs := [][]float32{{1, -0.5}, {0.25, 2}, {-1, 1}}
	for i, vals := range inputs {
		x, err := tensor.FromSlice(vals, tensor.Shape{2})
		require.NoError(t, err)
		a := tensor.New(tensor.Shape{2})
		b := tensor.New(tensor.Shape{2})
		original.Forward(x, a)
		loaded.Forward(x, b)
		assert.Equal(t, a.Data(), b.Data(), "step %d", i)
	}
}

// TestLoadRecurrentWrongModelType checks the model-type guard.
func TestLoadRecurrentWrongModelType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.rwnd")

	r := newTestRecurrent(t)
	ckpt := &nn.Checkpoint{Model: r, Epoch: 1}
	require.NoError(t, ckpt.Save(path))

	_, err := nn.LoadRecurrent(path, nn.NewAdd(2), nn.NewLinear(2, 2), nn.NewLinear(2, 2), nn.NewTanh())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a Recurrent model")
}

// TestLoadRecurrentShapeMismatch checks that prototypes of the wrong width
// are rejected instead of silently loading garbage.
func TestLoadRecurrentShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rnn.rwnd")
	require.NoError(t, newTestRecurrent(t).Save(path))

	_, err := nn.LoadRecurrent(path, nn.NewAdd(3), nn.NewLinear(3, 3), nn.NewLinear(3, 3), nn.NewTanh())
	require.Error(t, err)
}

// TestCheckpointRoundTrip checks the full training snapshot: model weights,
// SGD momentum buffers and the training metadata all survive a save/load.
func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.rwnd")

	model := newTestRecurrent(t)
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.05, Momentum: 0.9})

	// One training window so the optimizer accumulates momentum state.
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	gy, err := tensor.FromSlice([]float32{0.5, -0.5}, tensor.Shape{2})
	require.NoError(t, err)
	for i := 0; i < model.Rho(); i++ {
		model.Forward(x, nil)
	}
	for i := 0; i < model.Rho(); i++ {
		model.Backward(x, gy, nil)
		model.Gradient(x, gy)
	}
	optimizer.Step()

	ckpt := &nn.Checkpoint{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     7,
		Step:      4200,
		Loss:      0.0625,
	}
	require.NoError(t, ckpt.Save(path))

	restoredModel := newTestRecurrent(t)
	restoredOpt := optim.NewSGD(restoredModel.Parameters(), optim.SGDConfig{LR: 0.05, Momentum: 0.9})
	restored, err := nn.LoadCheckpoint(path, restoredModel, restoredOpt)
	require.NoError(t, err)

	assert.Equal(t, 7, restored.Epoch)
	assert.Equal(t, int64(4200), restored.Step)
	assert.InDelta(t, 0.0625, restored.Loss, 1e-12)

	for name, want := range model.StateDict() {
		got, ok := restoredModel.StateDict()[name]
		require.True(t, ok, "missing tensor %q", name)
		assert.Equal(t, want.Data(), got.Data(), "tensor %q", name)
	}
	for name, want := range optimizer.StateDict() {
		got, ok := restoredOpt.StateDict()[name]
		require.True(t, ok, "missing optimizer tensor %q", name)
		assert.Equal(t, want.Data(), got.Data(), "optimizer tensor %q", name)
	}
}

// TestCheckpointWithoutOptimizer checks that a model-only checkpoint loads
// cleanly when no optimizer is supplied.
func TestCheckpointWithoutOptimizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model-only.rwnd")

	model := newTestRecurrent(t)
	ckpt := &nn.Checkpoint{Model: model, Epoch: 3, Loss: 1.5}
	require.NoError(t, ckpt.Save(path))

	restoredModel := newTestRecurrent(t)
	restored, err := nn.LoadCheckpoint(path, restoredModel, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Epoch)
	assert.InDelta(t, 1.5, restored.Loss, 1e-12)

	out := restoredModel.StartLayer().StateDict()
	want := model.StartLayer().StateDict()
	for name := range want {
		assert.Equal(t, want[name].Data(), out[name].Data())
	}
}
