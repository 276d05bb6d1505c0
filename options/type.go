package options

import (
	"fmt"
	"time"

	"github.com/opd-ai/streamcore/limits"
)

// Type is the declared type of an option.
type Type int

const (
	// TypeInt32 options hold an int32
	TypeInt32 Type = iota + 1
	// TypeBool options hold a bool
	TypeBool
	// TypeSize options hold a non-negative int
	TypeSize
	// TypeString options hold a string of at most limits.MaxStringOption bytes
	TypeString
	// TypeDuration options hold a non-negative time.Duration with millisecond granularity
	TypeDuration
	// TypeSockAddr options hold a SockAddr
	TypeSockAddr
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeBool:
		return "bool"
	case TypeSize:
		return "size"
	case TypeString:
		return "string"
	case TypeDuration:
		return "duration"
	case TypeSockAddr:
		return "sockaddr"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Normalize checks that v has the Go type declared by t and is in range,
// returning the value to store. Durations are truncated to milliseconds.
func Normalize(v any, t Type) (any, error) {
	switch t {
	case TypeInt32:
		if x, ok := v.(int32); ok {
			return x, nil
		}
	case TypeBool:
		if x, ok := v.(bool); ok {
			return x, nil
		}
	case TypeSize:
		if x, ok := v.(int); ok {
			if x < 0 {
				return nil, fmt.Errorf("%w: negative size %d", ErrInvalidArgument, x)
			}
			return x, nil
		}
	case TypeString:
		if x, ok := v.(string); ok {
			if err := limits.ValidateString(x); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			return x, nil
		}
	case TypeDuration:
		if x, ok := v.(time.Duration); ok {
			if x < 0 {
				return nil, fmt.Errorf("%w: negative duration %v", ErrInvalidArgument, x)
			}
			return x.Truncate(time.Millisecond), nil
		}
	case TypeSockAddr:
		if x, ok := v.(SockAddr); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: %T is not a %s value", ErrInvalidArgument, v, t)
}
