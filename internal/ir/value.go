package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Value is a sealed interface over the scalar types that can be bound to a
// statement placeholder.
// Only Null, Bool, Int, Float, Text, and Raw implement this.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null binds SQL NULL.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool binds a boolean.
type Bool bool

func (Bool) value() {}

// Int binds a 64-bit signed integer.
type Int int64

func (Int) value() {}

// Float binds a 64-bit float.
type Float float64

func (Float) value() {}

// Text binds a string.
type Text string

func (Text) value() {}

// Raw binds opaque bytes (BLOB columns).
// Construct with NewRaw so the value does not alias caller memory.
type Raw []byte

func (Raw) value() {}

// NewRaw copies b into a Raw value.
func NewRaw(b []byte) Raw {
	out := make(Raw, len(b))
	copy(out, b)
	return out
}

// Kind names the variant of v. Used in text output and error messages.
func Kind(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case Text:
		return "text"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal reports whether a and b are the same variant holding the same value.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Raw:
		bv, ok := b.(Raw)
		return ok && bytes.Equal(av, bv)
	case nil:
		return b == nil
	default:
		if _, ok := b.(Raw); ok {
			return false
		}
		return a == b
	}
}

// FromAny converts a native Go scalar to a Value.
// Integer widths are widened to Int; uint64 values above math.MaxInt64 are
// rejected rather than wrapped.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case []byte:
		return NewRaw(val), nil
	case float32, float64:
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(int64(val)), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(int64(val)), nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		n, err := cast.ToInt64E(val)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// MustFromAny is FromAny for literals in tests and examples. Panics on error.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Values converts a list of native scalars.
func Values(vs ...any) ([]Value, error) {
	out := make([]Value, len(vs))
	for i, v := range vs {
		val, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
		out[i] = val
	}
	return out, nil
}

// Native returns the database/sql argument for v.
func Native(v Value) any {
	switch val := v.(type) {
	case Null, nil:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Text:
		return string(val)
	case Raw:
		return []byte(val)
	default:
		return nil
	}
}

// DriverArgs converts an ordered parameter list into database/sql arguments.
// Order is preserved exactly.
func DriverArgs(params []Value) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = Native(p)
	}
	return args
}
