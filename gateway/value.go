package gateway

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mrpasztoradam/goadsio"
	"github.com/mrpasztoradam/goadsio/internal/ads"
)

// encodeValue converts a JSON-decoded value into the wire bytes for the
// symbol's declared PLC type. JSON numbers arrive as float64 and booleans
// as bool, so each branch converts from those.
func encodeValue(symbol string, dt ads.DataType, size uint32, value interface{}) ([]byte, error) {
	switch dt {
	case ads.TypeBit:
		b, ok := value.(bool)
		if !ok {
			return nil, NewTypeMismatchError(symbol, "BOOL", fmt.Sprintf("%T", value))
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case ads.TypeInt8, ads.TypeUint8:
		n, ok := value.(float64)
		if !ok {
			return nil, NewTypeMismatchError(symbol, dt.String(), fmt.Sprintf("%T", value))
		}
		return []byte{byte(int64(n))}, nil

	case ads.TypeInt16, ads.TypeUint16:
		n, ok := value.(float64)
		if !ok {
			return nil, NewTypeMismatchError(symbol, dt.String(), fmt.Sprintf("%T", value))
		}
		return binary.LittleEndian.AppendUint16(nil, uint16(int64(n))), nil

	case ads.TypeInt32, ads.TypeUint32:
		n, ok := value.(float64)
		if !ok {
			return nil, NewTypeMismatchError(symbol, dt.String(), fmt.Sprintf("%T", value))
		}
		return binary.LittleEndian.AppendUint32(nil, uint32(int64(n))), nil

	case ads.TypeInt64, ads.TypeUint64:
		n, ok := value.(float64)
		if !ok {
			return nil, NewTypeMismatchError(symbol, dt.String(), fmt.Sprintf("%T", value))
		}
		return binary.LittleEndian.AppendUint64(nil, uint64(int64(n))), nil

	case ads.TypeReal32:
		n, ok := value.(float64)
		if !ok {
			return nil, NewTypeMismatchError(symbol, "REAL", fmt.Sprintf("%T", value))
		}
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(n))), nil

	case ads.TypeReal64:
		n, ok := value.(float64)
		if !ok {
			return nil, NewTypeMismatchError(symbol, "LREAL", fmt.Sprintf("%T", value))
		}
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(n)), nil

	case ads.TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, NewTypeMismatchError(symbol, "STRING", fmt.Sprintf("%T", value))
		}
		buf := make([]byte, size)
		limit := int(size) - 1
		if limit < 0 {
			limit = 0
		}
		if len(s) > limit {
			s = s[:limit]
		}
		copy(buf, s)
		return buf, nil

	default:
		return nil, NewTypeMismatchError(symbol, dt.String(), fmt.Sprintf("%T", value))
	}
}

// decodeValue turns wire bytes into a JSON-friendly value for the
// symbol's declared PLC type. Strings are trimmed at the first NUL.
func decodeValue(dt ads.DataType, data []byte) (interface{}, error) {
	return goadsio.DecodeSymbolValue(dt, data)
}
