package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a sealed interface representing the closed property value variant.
// Only Null, String, Int, Float, Bool, Array, and Object implement it.
type Value interface {
	sealed() // Sealed - only types in this package implement it
}

// Null represents an explicit null value.
// Using a concrete type keeps nulls distinguishable from absent keys.
type Null struct{}

func (Null) sealed() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) sealed() {}

// Int represents an integer value. Always int64 on the wire.
type Int int64

func (Int) sealed() {}

// Float represents a floating-point value (revenue, ratios).
type Float float64

func (Float) sealed() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) sealed() {}

// Array represents an ordered list of values.
type Array []Value

func (Array) sealed() {}

// Object represents a map of string keys to values.
type Object map[string]Value

func (Object) sealed() {}

// UnmarshalJSON implements json.Unmarshaler for Object so that persisted
// payloads (retry records, campaign caches) round-trip through the variant.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	if _, isNull := v.(Null); isNull {
		*o = nil
		return nil
	}
	obj, ok := v.(Object)
	if !ok {
		return fmt.Errorf("value: expected JSON object, got %T", v)
	}
	*o = obj
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (a *Array) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	arr, ok := v.(Array)
	if !ok {
		return fmt.Errorf("value: expected JSON array, got %T", v)
	}
	*a = arr
	return nil
}

// Decode parses raw JSON into a Value. Numbers without a fractional part
// decode as Int, everything else as Float.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("value: decode: %w", err)
	}
	return FromAny(raw)
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch t := v.(type) {
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case Object:
		out := make(Object, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	default:
		return v
	}
}
