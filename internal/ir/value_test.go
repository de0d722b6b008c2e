package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestIRObjectSortedKeysUTF16Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue([]byte(`{"1":"a","name":"tornado","n":3,"ok":true,"none":null,"list":[1,2]}`))
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"1":    IRString("a"),
		"name": IRString("tornado"),
		"n":    IRInt(3),
		"ok":   IRBool(true),
		"none": IRNull{},
		"list": IRArray{IRInt(1), IRInt(2)},
	}, v)
}

func TestDecodeValueRejectsFloats(t *testing.T) {
	_, err := DecodeValue([]byte(`{"x":1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")

	_, err = DecodeValue([]byte(`2e3`))
	require.Error(t, err)
}

func TestDecodeValueLargeInt(t *testing.T) {
	v, err := DecodeValue([]byte(`9223372036854775807`))
	require.NoError(t, err)
	assert.Equal(t, IRInt(9223372036854775807), v)
}

func TestIRObjectUnmarshalJSON(t *testing.T) {
	var obj IRObject
	require.NoError(t, json.Unmarshal([]byte(`{"a":{"b":[true]}}`), &obj))
	assert.Equal(t, IRObject{"a": IRObject{"b": IRArray{IRBool(true)}}}, obj)

	err := json.Unmarshal([]byte(`[1]`), &obj)
	assert.Error(t, err)
}

func TestIRArrayUnmarshalJSON(t *testing.T) {
	var arr IRArray
	require.NoError(t, json.Unmarshal([]byte(`["x",2]`), &arr))
	assert.Equal(t, IRArray{IRString("x"), IRInt(2)}, arr)
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "quas", IRString("quas")},
		{"int", 3, IRInt(3)},
		{"int64", int64(-4), IRInt(-4)},
		{"uint64", uint64(7), IRInt(7)},
		{"integral float", float64(12), IRInt(12)},
		{"bool", true, IRBool(true)},
		{"slice", []any{"a", 1}, IRArray{IRString("a"), IRInt(1)}},
		{"map", map[string]any{"k": false}, IRObject{"k": IRBool(false)}},
		{"already ir", IRString("x"), IRString("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyRejects(t *testing.T) {
	_, err := FromAny(1.25)
	assert.Error(t, err)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)

	_, err = FromAny(map[string]any{"nested": []any{0.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["nested"]`)
}

func TestToAnyRoundTrip(t *testing.T) {
	v := IRObject{"a": IRArray{IRInt(1), IRNull{}}, "b": IRString("x")}
	back, err := FromAny(ToAny(v))
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    IRValue
		want bool
	}{
		{"nil", nil, false},
		{"null", IRNull{}, false},
		{"false", IRBool(false), false},
		{"zero", IRInt(0), false},
		{"empty string", IRString(""), false},
		{"true", IRBool(true), true},
		{"number", IRInt(-1), true},
		{"string", IRString("0"), true},
		{"empty object", IRObject{}, true},
		{"empty array", IRArray{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.v))
		})
	}
}

func TestMarshalIRValue(t *testing.T) {
	data, err := MarshalIRValue(IRObject{"b": IRArray{IRInt(1)}, "a": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"a":null,"b":[1]}`, string(data))
}
