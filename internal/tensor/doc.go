// Package tensor provides the dense numeric primitives used by the Rewind
// recurrent network library.
//
// Tensors are row-major float32 arrays with an attached Shape. All math is
// synchronous CPU code: the layer protocol in internal/nn preallocates
// output and delta slots and mutates them in place across time steps, so
// there is no backend indirection and no implicit data movement.
//
// Construction from user data returns errors; shape mismatches inside
// operations are programmer errors and panic.
package tensor
