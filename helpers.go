package streamcore

import (
	"fmt"
	"reflect"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
)

// isNil reports whether v is nil or a typed nil pointer behind an
// interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

type closer interface {
	Close()
	Stop()
	Free()
}

// Close closes a Stream, Dialer or Listener. A nil handle is ignored.
func Close(c closer) {
	if isNil(c) {
		return
	}
	c.Close()
}

// Stop closes c and waits for its operations to complete. A nil handle is
// ignored.
func Stop(c closer) {
	if isNil(c) {
		return
	}
	c.Stop()
}

// Free stops and releases c. A nil handle is ignored.
func Free(c closer) {
	if isNil(c) {
		return
	}
	c.Free()
}

// Send resets op and submits it to s. A nil stream fails the op with
// ErrClosed.
func Send(s Stream, op *aio.Op) {
	op.Reset()
	if isNil(s) {
		aio.Fail(op, ErrClosed)
		return
	}
	s.Send(op)
}

// Recv resets op and submits it to s. A nil stream fails the op with
// ErrClosed.
func Recv(s Stream, op *aio.Op) {
	op.Reset()
	if isNil(s) {
		aio.Fail(op, ErrClosed)
		return
	}
	s.Recv(op)
}

// Dial resets op and starts a dial on d.
func Dial(d Dialer, op *aio.Op) {
	op.Reset()
	if isNil(d) {
		aio.Fail(op, ErrClosed)
		return
	}
	d.Dial(op)
}

// Accept resets op and starts an accept on l.
func Accept(l Listener, op *aio.Op) {
	op.Reset()
	if isNil(l) {
		aio.Fail(op, ErrClosed)
		return
	}
	l.Accept(op)
}

func get[T any](c Configurable, name string, t options.Type) (T, error) {
	var zero T
	if isNil(c) {
		return zero, fmt.Errorf("%w: get %q on nil object", ErrClosed, name)
	}
	v, err := c.Get(name, t)
	if err != nil {
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: option %q returned %T", ErrInvalidArgument, name, v)
	}
	return x, nil
}

func set(c Configurable, name string, v any, t options.Type) error {
	if isNil(c) {
		return fmt.Errorf("%w: set %q on nil object", ErrClosed, name)
	}
	return c.Set(name, v, t)
}

// GetInt reads a 32-bit integer option.
func GetInt(c Configurable, name string) (int32, error) {
	return get[int32](c, name, options.TypeInt32)
}

// GetBool reads a boolean option.
func GetBool(c Configurable, name string) (bool, error) {
	return get[bool](c, name, options.TypeBool)
}

// GetSize reads a size option.
func GetSize(c Configurable, name string) (int, error) {
	return get[int](c, name, options.TypeSize)
}

// GetString reads a string option. The returned string is the caller's.
func GetString(c Configurable, name string) (string, error) {
	return get[string](c, name, options.TypeString)
}

// GetDuration reads a duration option.
func GetDuration(c Configurable, name string) (time.Duration, error) {
	return get[time.Duration](c, name, options.TypeDuration)
}

// GetAddr reads a socket address option.
func GetAddr(c Configurable, name string) (options.SockAddr, error) {
	return get[options.SockAddr](c, name, options.TypeSockAddr)
}

// SetInt writes a 32-bit integer option.
func SetInt(c Configurable, name string, v int32) error {
	return set(c, name, v, options.TypeInt32)
}

// SetBool writes a boolean option.
func SetBool(c Configurable, name string, v bool) error {
	return set(c, name, v, options.TypeBool)
}

// SetSize writes a size option. Negative sizes are rejected.
func SetSize(c Configurable, name string, v int) error {
	return set(c, name, v, options.TypeSize)
}

// SetString writes a string option. The empty string is a legal value.
func SetString(c Configurable, name string, v string) error {
	return set(c, name, v, options.TypeString)
}

// SetDuration writes a duration option, truncated to milliseconds.
func SetDuration(c Configurable, name string, v time.Duration) error {
	return set(c, name, v, options.TypeDuration)
}

// SetAddr writes a socket address option.
func SetAddr(c Configurable, name string, v options.SockAddr) error {
	return set(c, name, v, options.TypeSockAddr)
}
