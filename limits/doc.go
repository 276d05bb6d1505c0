// Package limits provides centralized size constants and validation functions
// for streamcore. Every backend validates option strings, IPC paths and
// receive sizes against these bounds so the same input is accepted or
// rejected identically regardless of transport.
//
// # Size Hierarchy
//
//   - MaxStringOption (8192 bytes): The longest value a string option may hold.
//     Empty strings are always legal.
//
//   - MaxIPCPath (107 bytes): The longest Unix-domain socket path, one byte short
//     of sun_path so the kernel can NUL-terminate it.
//
//   - DefaultRecvMax (1MB): The default upper bound for a single received
//     WebSocket message.
//
//   - MaxRecvSize (64MB): The largest configurable receive limit.
//
// # Validation Functions
//
//	if err := limits.ValidateString(value); err != nil {
//	    // ErrTooLarge, wrapped with the observed and allowed sizes
//	}
package limits
