package goadsio

import (
	"reflect"
	"testing"
)

func TestDecodeSymbolValue(t *testing.T) {
	cases := []struct {
		name string
		dt   DataType
		data []byte
		want any
	}{
		{"bool", TypeBool, []byte{1}, true},
		{"int32", TypeInt32, []byte{0x2A, 0, 0, 0}, int32(42)},
		{"float64", TypeFloat64, []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, float64(1.0)},
		{"string trims nul", TypeString, []byte("pump 1\x00\x00\x00\x00"), "pump 1"},
		{"string without terminator stays raw", TypeString, []byte("abcd"), []byte("abcd")},
		{"array", TypeInt16, []byte{1, 0, 2, 0}, []int16{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeSymbolValue(tc.dt, tc.data)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Expected %v (%T), got %v (%T)", tc.want, tc.want, got, got)
			}
		})
	}
}

func TestDecodeSymbolValueError(t *testing.T) {
	if _, err := DecodeSymbolValue(TypeInt32, []byte{1, 2, 3}); err == nil {
		t.Error("Expected error for partial element, got nil")
	}
}
