package value

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FromAny converts a loose Go value (as produced by callers or by
// encoding/json with UseNumber) into the sealed variant.
//
// Supported inputs: nil, string, bool, all integer and float widths,
// json.Number, time.Time (encoded as RFC 3339 string), []any, and
// map[string]any. Anything else returns an error so the caller can drop
// the property and log instead of sending garbage.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint:
		return Int(v), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if n, err := v.Int64(); err == nil {
				return Int(n), nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("value: bad number %q: %w", v.String(), err)
		}
		return Float(f), nil
	case time.Time:
		return String(v.UTC().Format(time.RFC3339)), nil
	case []any:
		arr := make(Array, 0, len(v))
		for i, e := range v {
			ev, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("value: element %d: %w", i, err)
			}
			arr = append(arr, ev)
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(v))
		for k, e := range v {
			ev, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("value: key %q: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("value: unsupported type %T", raw)
	}
}

// ObjectFromAny converts a caller-supplied property map, silently skipping
// nil maps. Individual bad entries fail the whole conversion.
func ObjectFromAny(props map[string]any) (Object, error) {
	if props == nil {
		return nil, nil
	}
	obj := make(Object, len(props))
	for k, raw := range props {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		obj[k] = v
	}
	return obj, nil
}

// AsString extracts a string if v is one.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsFloat extracts a numeric value, accepting both Int and Float.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// AsBool extracts a boolean if v is one.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(Bool)
	return bool(b), ok
}

// AsStringSlice extracts []string from an Array whose elements are all
// strings. Non-string elements make the extraction fail.
func AsStringSlice(v Value) ([]string, bool) {
	arr, ok := v.(Array)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(String)
		if !ok {
			return nil, false
		}
		out = append(out, string(s))
	}
	return out, true
}

// IsNull reports whether v is the explicit null or a nil interface.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}
