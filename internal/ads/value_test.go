package ads

import (
	"bytes"
	"reflect"
	"testing"
)

func TestDecodeValueSingle(t *testing.T) {
	cases := []struct {
		name string
		dt   DataType
		data []byte
		want any
	}{
		{"bool true", TypeBit, []byte{1}, true},
		{"bool false", TypeBit, []byte{0}, false},
		{"int8", TypeInt8, []byte{0xFE}, int8(-2)},
		{"uint8", TypeUint8, []byte{0xFE}, uint8(254)},
		{"int16", TypeInt16, []byte{0xFE, 0xFF}, int16(-2)},
		{"uint16", TypeUint16, []byte{0x01, 0x02}, uint16(0x0201)},
		{"int32", TypeInt32, []byte{0xFF, 0xFF, 0xFF, 0xFF}, int32(-1)},
		{"uint32", TypeUint32, []byte{0x78, 0x56, 0x34, 0x12}, uint32(0x12345678)},
		{"int64", TypeInt64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, int64(-1)},
		{"uint64", TypeUint64, []byte{1, 0, 0, 0, 0, 0, 0, 0}, uint64(1)},
		{"real32", TypeReal32, []byte{0x00, 0x00, 0x80, 0x3F}, float32(1.0)},
		{"real64", TypeReal64, []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, float64(1.0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeValue(tc.dt, tc.data)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %v (%T), got %v (%T)", tc.want, tc.want, got, got)
			}
		})
	}
}

func TestDecodeValueArray(t *testing.T) {
	got, err := DecodeValue(TypeInt16, []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00})
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	want := []int16{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDecodeValueStringRaw(t *testing.T) {
	raw := []byte("hello\x00\x00\x00")
	got, err := DecodeValue(TypeString, raw)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	b, ok := got.([]byte)
	if !ok {
		t.Fatalf("Expected raw bytes for STRING, got %T", got)
	}
	if !bytes.Equal(b, raw) {
		t.Errorf("Expected %v, got %v", raw, b)
	}
}

func TestDecodeValueErrors(t *testing.T) {
	if _, err := DecodeValue(TypeVoid, []byte{1}); err == nil {
		t.Error("Expected error for VOID, got nil")
	}
	if _, err := DecodeValue(TypeInt32, []byte{1, 2, 3}); err == nil {
		t.Error("Expected error for partial element, got nil")
	}
	if _, err := DecodeValue(TypeBigType, []byte{1}); err == nil {
		t.Error("Expected error for BIGTYPE, got nil")
	}
}
