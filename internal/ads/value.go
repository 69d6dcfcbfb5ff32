package ads

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeValue interprets raw symbol bytes according to the data-type tag.
// The element count is the byte length divided by the type's element width.
// Single-element results are unwrapped; multi-element results are returned
// as a slice of the corresponding Go type. STRING data is returned as raw
// bytes for the caller to NUL-trim.
func DecodeValue(dt DataType, data []byte) (any, error) {
	width := dt.ElementSize()
	if width == 0 {
		return nil, fmt.Errorf("ads: cannot decode values of type %d", uint32(dt))
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("ads: %d bytes is not a multiple of element width %d", len(data), width)
	}
	count := len(data) / width

	switch dt {
	case TypeString:
		return data, nil
	case TypeBit:
		return unwrap(decodeEach(data, width, count, func(b []byte) bool { return b[0] != 0 })), nil
	case TypeInt8:
		return unwrap(decodeEach(data, width, count, func(b []byte) int8 { return int8(b[0]) })), nil
	case TypeUint8:
		return unwrap(decodeEach(data, width, count, func(b []byte) uint8 { return b[0] })), nil
	case TypeInt16:
		return unwrap(decodeEach(data, width, count, func(b []byte) int16 {
			return int16(binary.LittleEndian.Uint16(b))
		})), nil
	case TypeUint16, TypeWString:
		return unwrap(decodeEach(data, width, count, binary.LittleEndian.Uint16)), nil
	case TypeInt32:
		return unwrap(decodeEach(data, width, count, func(b []byte) int32 {
			return int32(binary.LittleEndian.Uint32(b))
		})), nil
	case TypeUint32:
		return unwrap(decodeEach(data, width, count, binary.LittleEndian.Uint32)), nil
	case TypeInt64:
		return unwrap(decodeEach(data, width, count, func(b []byte) int64 {
			return int64(binary.LittleEndian.Uint64(b))
		})), nil
	case TypeUint64:
		return unwrap(decodeEach(data, width, count, binary.LittleEndian.Uint64)), nil
	case TypeReal32:
		return unwrap(decodeEach(data, width, count, func(b []byte) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(b))
		})), nil
	case TypeReal64:
		return unwrap(decodeEach(data, width, count, func(b []byte) float64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(b))
		})), nil
	default:
		return nil, fmt.Errorf("ads: cannot decode values of type %d", uint32(dt))
	}
}

func decodeEach[T any](data []byte, width, count int, decode func([]byte) T) []T {
	out := make([]T, count)
	for i := 0; i < count; i++ {
		out[i] = decode(data[i*width : (i+1)*width])
	}
	return out
}

func unwrap[T any](values []T) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
