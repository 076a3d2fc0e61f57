// Package serialization provides the native .rwnd format for saving and
// loading Rewind models.
//
// The .rwnd format is a simple binary container for named float32 tensors:
//
//	Format Structure:
//	  [4 bytes: Magic "RWND"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata, including a SHA-256 checksum of the data]
//	  [Tensor data: raw little-endian float32 bytes, 64-byte aligned]
//
// The header records each tensor's name, shape, offset and size, plus an
// arbitrary string metadata map that callers use for scalar state (window
// lengths, ownership flags, model type).
//
// Example usage:
//
//	// Save a state dict
//	err := serialization.SaveStateDict("model.rwnd", "Recurrent", stateDict, meta)
//
//	// Load it back
//	stateDict, header, err := serialization.LoadStateDict("model.rwnd")
package serialization
