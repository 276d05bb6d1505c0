package options

import (
	"fmt"
	"sort"
	"sync"
)

// Option describes one named, typed option. A nil Get makes the option
// write-only; a nil Set makes it read-only.
type Option struct {
	Name string
	Type Type
	Get  func() (any, error)
	Set  func(v any) error
}

// Table is the immutable set of options an object publishes.
type Table struct {
	byName map[string]Option
}

// NewTable builds a Table. Later options with the same name replace
// earlier ones, so a backend can override a shared option.
func NewTable(opts ...Option) *Table {
	t := &Table{byName: make(map[string]Option, len(opts))}
	for _, o := range opts {
		t.byName[o.Name] = o
	}
	return t
}

// Lookup returns the option registered under name.
func (t *Table) Lookup(name string) (Option, bool) {
	if t == nil {
		return Option{}, false
	}
	o, ok := t.byName[name]
	return o, ok
}

// Names returns the sorted option names.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get reads option name as typ.
func (t *Table) Get(name string, typ Type) (any, error) {
	o, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: option %q", ErrNotSupported, name)
	}
	if o.Type != typ {
		return nil, fmt.Errorf("%w: option %q is %s, not %s", ErrInvalidArgument, name, o.Type, typ)
	}
	if o.Get == nil {
		return nil, fmt.Errorf("%w: option %q", ErrWriteOnly, name)
	}
	return o.Get()
}

// Set writes v to option name as typ.
func (t *Table) Set(name string, v any, typ Type) error {
	o, ok := t.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: option %q", ErrNotSupported, name)
	}
	if o.Type != typ {
		return fmt.Errorf("%w: option %q is %s, not %s", ErrInvalidArgument, name, o.Type, typ)
	}
	val, err := Normalize(v, typ)
	if err != nil {
		return err
	}
	if o.Set == nil {
		return fmt.Errorf("%w: option %q", ErrReadOnly, name)
	}
	return o.Set(val)
}

// Field exposes *p as a read-write option guarded by mu.
func Field[T any](name string, typ Type, mu sync.Locker, p *T) Option {
	return CheckedField(name, typ, mu, p, nil)
}

// CheckedField is Field with a validation hook run under mu before the
// value is stored. The hook may reject the value or the object's state.
func CheckedField[T any](name string, typ Type, mu sync.Locker, p *T, check func(T) error) Option {
	return Option{
		Name: name,
		Type: typ,
		Get: func() (any, error) {
			mu.Lock()
			defer mu.Unlock()
			return *p, nil
		},
		Set: func(v any) error {
			x, ok := v.(T)
			if !ok {
				return fmt.Errorf("%w: %T for option %q", ErrInvalidArgument, v, name)
			}
			mu.Lock()
			defer mu.Unlock()
			if check != nil {
				if err := check(x); err != nil {
					return err
				}
			}
			*p = x
			return nil
		},
	}
}

// ReadOnly exposes a computed, read-only option.
func ReadOnly(name string, typ Type, get func() (any, error)) Option {
	return Option{Name: name, Type: typ, Get: get}
}

// Const exposes a fixed, read-only value.
func Const(name string, typ Type, v any) Option {
	return ReadOnly(name, typ, func() (any, error) { return v, nil })
}

// WriteOnly exposes an option that can only be set.
func WriteOnly(name string, typ Type, set func(v any) error) Option {
	return Option{Name: name, Type: typ, Set: set}
}
