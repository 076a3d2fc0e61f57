package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// LoadStateDict reads a .rwnd file from path.
func LoadStateDict(path string) (map[string]*tensor.Tensor, *Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadStateDict(f)
}

// ReadStateDict reads a .rwnd stream from r, validating the magic bytes,
// format version and data checksum before decoding any tensor.
func ReadStateDict(r io.Reader) (map[string]*tensor.Tensor, *Header, error) {
	var fixed [fixedHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if !bytes.Equal(fixed[0:4], []byte(MagicBytes)) {
		return nil, nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[12:20])
	if headerSize > MaxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to decode header: %w", err)
	}

	// Skip padding up to the aligned data section start.
	read := int64(fixedHeaderSize) + int64(headerSize)
	if pad := align(read) - read; pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	checksum := sha256.Sum256(data)
	if hex.EncodeToString(checksum[:]) != header.Checksum {
		return nil, nil, ErrChecksumMismatch
	}

	state := make(map[string]*tensor.Tensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		if meta.DType != "float32" {
			return nil, nil, fmt.Errorf("tensor %q: unsupported dtype %q", meta.Name, meta.DType)
		}
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return nil, nil, fmt.Errorf("%w: tensor %q", ErrOutOfBounds, meta.Name)
		}
		shape := tensor.Shape(meta.Shape)
		if int64(shape.NumElements())*4 != meta.Size {
			return nil, nil, fmt.Errorf("tensor %q: shape %v does not match %d bytes", meta.Name, shape, meta.Size)
		}

		values := make([]float32, shape.NumElements())
		raw := data[meta.Offset : meta.Offset+meta.Size]
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		t, err := tensor.FromSlice(values, shape)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		state[meta.Name] = t
	}
	return state, &header, nil
}
