package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// SaveStateDict writes a state dict to path in .rwnd format.
//
// Tensors are laid out in sorted name order so identical dicts produce
// byte-identical files. metadata may be nil.
func SaveStateDict(path, modelType string, state map[string]*tensor.Tensor, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteStateDict(f, modelType, state, metadata); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteStateDict writes a state dict to w in .rwnd format.
func WriteStateDict(w io.Writer, modelType string, state map[string]*tensor.Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	// Build the data section first: the header carries its checksum.
	var data []byte
	metas := make([]TensorMeta, 0, len(names))
	for _, name := range names {
		t := state[name]
		offset := align(int64(len(data)))
		data = append(data, make([]byte, offset-int64(len(data)))...)

		for _, v := range t.Data() {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  "float32",
			Shape:  t.Shape().Clone(),
			Offset: offset,
			Size:   int64(t.NumElements()) * 4,
		})
	}

	checksum := sha256.Sum256(data)
	header := Header{
		FormatVersion: FormatVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       metas,
		Metadata:      metadata,
		Checksum:      hex.EncodeToString(checksum[:]),
	}
	headerJSON, err := json.Marshal(&header)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var fixed [fixedHeaderSize]byte
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], 0) // flags, reserved
	binary.LittleEndian.PutUint64(fixed[12:20], uint64(len(headerJSON)))

	if _, err := w.Write(fixed[:]); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Pad so the data section starts 64-byte aligned.
	written := int64(fixedHeaderSize + len(headerJSON))
	if pad := align(written) - written; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}
