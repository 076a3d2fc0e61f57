package serialization

import "time"

// Format constants.
const (
	MagicBytes    = "RWND"
	FormatVersion = 1

	// HeaderAlignment aligns the start of the tensor data section.
	HeaderAlignment = 64

	// MaxHeaderSize bounds the JSON header so a corrupted size field cannot
	// trigger an arbitrarily large allocation.
	MaxHeaderSize = 16 << 20

	fixedHeaderSize = 20 // magic + version + flags + header size
)

// Header is the JSON header in a .rwnd file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .rwnd format
	ModelType     string            `json:"model_type"`     // Type of model (e.g., "Recurrent", "Sequential")
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor metadata
	Metadata      map[string]string `json:"metadata"`       // Scalar model state (rho, ownership, ...)
	Checksum      string            `json:"checksum"`       // SHA-256 of the data section, hex encoded
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "feedback.weight")
	DType  string `json:"dtype"`  // Data type; always "float32" in version 1
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// align rounds n up to the next multiple of HeaderAlignment.
func align(n int64) int64 {
	rem := n % HeaderAlignment
	if rem == 0 {
		return n
	}
	return n + HeaderAlignment - rem
}
