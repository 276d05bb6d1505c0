package options

import "errors"

var (
	// ErrNotSupported indicates an unknown option, scheme or absent capability
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidArgument indicates a type, size or range mismatch
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReadOnly indicates an attempt to set a read-only option
	ErrReadOnly = errors.New("read only resource")

	// ErrWriteOnly indicates an attempt to read a write-only option
	ErrWriteOnly = errors.New("write only resource")
)
