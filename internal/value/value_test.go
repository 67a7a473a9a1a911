package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromAny_Scalars tests conversion of supported scalar inputs.
func TestFromAny_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"string", "hello", String("hello")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int64", int64(1 << 40), Int(1 << 40)},
		{"float", 9.99, Float(9.99)},
		{"nil", nil, Null{}},
		{"json number int", json.Number("7"), Int(7)},
		{"json number float", json.Number("7.5"), Float(7.5)},
		{"json number exponent", json.Number("1e3"), Float(1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestFromAny_Unsupported rejects values outside the closed variant.
func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(struct{ X int }{1})
	require.Error(t, err)

	_, err = FromAny(map[string]any{"ok": "yes", "bad": make(chan int)})
	require.Error(t, err)
}

// TestFromAny_Nested converts lists and maps recursively.
func TestFromAny_Nested(t *testing.T) {
	got, err := FromAny(map[string]any{
		"items": []any{
			map[string]any{"name": "cola", "price": 1200},
		},
	})
	require.NoError(t, err)

	obj, ok := got.(Object)
	require.True(t, ok)
	items, ok := obj["items"].(Array)
	require.True(t, ok)
	require.Len(t, items, 1)

	item, ok := items[0].(Object)
	require.True(t, ok)
	assert.Equal(t, String("cola"), item["name"])
	assert.Equal(t, Int(1200), item["price"])
}

// TestObject_JSONRoundTrip verifies persisted payloads survive re-decoding.
func TestObject_JSONRoundTrip(t *testing.T) {
	orig := Object{
		"name":    String("purchase"),
		"revenue": Float(9.99),
		"count":   Int(3),
		"flag":    Bool(false),
		"none":    Null{},
		"tags":    Array{String("a"), String("b")},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, orig, back)
}

// TestDecode_NumberFidelity keeps integers integral through decode.
func TestDecode_NumberFidelity(t *testing.T) {
	v, err := Decode([]byte(`{"a": 10, "b": 10.0}`))
	require.NoError(t, err)

	obj := v.(Object)
	assert.Equal(t, Int(10), obj["a"])
	assert.Equal(t, Float(10), obj["b"])
}

// TestClone_DeepCopy mutating a clone must not touch the original.
func TestClone_DeepCopy(t *testing.T) {
	orig := Object{"items": Array{Object{"name": String("x")}}}
	cl := Clone(orig).(Object)
	cl["items"].(Array)[0].(Object)["name"] = String("y")

	assert.Equal(t, String("x"), orig["items"].(Array)[0].(Object)["name"])
}

// TestAccessors covers the typed extraction helpers.
func TestAccessors(t *testing.T) {
	f, ok := AsFloat(Int(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = AsFloat(String("3"))
	assert.False(t, ok)

	ss, ok := AsStringSlice(Array{String("a"), String("b")})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ss)

	_, ok = AsStringSlice(Array{String("a"), Int(1)})
	assert.False(t, ok)

	assert.True(t, IsNull(Null{}))
	assert.True(t, IsNull(nil))
	assert.False(t, IsNull(String("")))
}
