package goadsio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf16"
)

// Type-safe read methods for common TwinCAT types. Each resolves the named
// symbol through the per-client cache, so repeated access reuses one
// server handle.

// ReadBool reads a BOOL value from a symbol by name.
func (c *Client) ReadBool(ctx context.Context, symbolName string) (bool, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 1)
	if err != nil {
		return false, err
	}
	return data[0] != 0, nil
}

// ReadInt8 reads an INT8/SINT value from a symbol by name.
func (c *Client) ReadInt8(ctx context.Context, symbolName string) (int8, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 1)
	if err != nil {
		return 0, err
	}
	return int8(data[0]), nil
}

// ReadUint8 reads a UINT8/USINT/BYTE value from a symbol by name.
func (c *Client) ReadUint8(ctx context.Context, symbolName string) (uint8, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadInt16 reads an INT16/INT value from a symbol by name.
func (c *Client) ReadInt16(ctx context.Context, symbolName string) (int16, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(data)), nil
}

// ReadUint16 reads a UINT16/UINT/WORD value from a symbol by name.
func (c *Client) ReadUint16(ctx context.Context, symbolName string) (uint16, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// ReadInt32 reads an INT32/DINT value from a symbol by name.
func (c *Client) ReadInt32(ctx context.Context, symbolName string) (int32, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}

// ReadUint32 reads a UINT32/UDINT/DWORD value from a symbol by name.
func (c *Client) ReadUint32(ctx context.Context, symbolName string) (uint32, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadInt64 reads an INT64/LINT value from a symbol by name.
func (c *Client) ReadInt64(ctx context.Context, symbolName string) (int64, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

// ReadUint64 reads a UINT64/ULINT/LWORD value from a symbol by name.
func (c *Client) ReadUint64(ctx context.Context, symbolName string) (uint64, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadFloat32 reads a REAL/FLOAT value from a symbol by name.
func (c *Client) ReadFloat32(ctx context.Context, symbolName string) (float32, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
}

// ReadFloat64 reads an LREAL/DOUBLE value from a symbol by name.
func (c *Client) ReadFloat64(ctx context.Context, symbolName string) (float64, error) {
	data, err := c.readSymbolSized(ctx, symbolName, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
}

// ReadString reads a STRING value from a symbol by name, truncated at the
// first NUL byte.
func (c *Client) ReadString(ctx context.Context, symbolName string) (string, error) {
	data, err := c.SymbolByName(symbolName).ReadBytes(ctx)
	if err != nil {
		return "", err
	}
	s, _ := stringFromPLC(data)
	return s, nil
}

// ReadTime reads a TIME value and returns it as time.Duration. TIME is a
// 32-bit signed millisecond count.
func (c *Client) ReadTime(ctx context.Context, symbolName string) (time.Duration, error) {
	val, err := c.ReadInt32(ctx, symbolName)
	if err != nil {
		return 0, err
	}
	return time.Duration(val) * time.Millisecond, nil
}

// ReadDate reads a DATE value and returns it as time.Time. DATE is a
// 32-bit unsigned count of seconds since 1970-01-01.
func (c *Client) ReadDate(ctx context.Context, symbolName string) (time.Time, error) {
	val, err := c.ReadUint32(ctx, symbolName)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(val), 0), nil
}

// ReadWString reads a WSTRING (UTF-16LE) value and returns it as UTF-8.
func (c *Client) ReadWString(ctx context.Context, symbolName string) (string, error) {
	data, err := c.SymbolByName(symbolName).ReadBytes(ctx)
	if err != nil {
		return "", err
	}

	length := len(data)
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			length = i
			break
		}
	}

	units := make([]uint16, length/2)
	for i := range units {
		units[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}
	return string(utf16.Decode(units)), nil
}

// readSymbolSized reads a symbol and checks the minimum payload size.
func (c *Client) readSymbolSized(ctx context.Context, symbolName string, size int) ([]byte, error) {
	data, err := c.SymbolByName(symbolName).ReadBytes(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) < size {
		return nil, fmt.Errorf("goadsio: symbol %q: expected at least %d bytes, got %d", symbolName, size, len(data))
	}
	return data, nil
}

// Type-safe write methods for common TwinCAT types.

// WriteBool writes a BOOL value to a symbol by name.
func (c *Client) WriteBool(ctx context.Context, symbolName string, value bool) error {
	data := make([]byte, 1)
	if value {
		data[0] = 1
	}
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteInt8 writes an INT8/SINT value to a symbol by name.
func (c *Client) WriteInt8(ctx context.Context, symbolName string, value int8) error {
	return c.SymbolByName(symbolName).WriteBytes(ctx, []byte{byte(value)})
}

// WriteUint8 writes a UINT8/USINT/BYTE value to a symbol by name.
func (c *Client) WriteUint8(ctx context.Context, symbolName string, value uint8) error {
	return c.SymbolByName(symbolName).WriteBytes(ctx, []byte{value})
}

// WriteInt16 writes an INT16/INT value to a symbol by name.
func (c *Client) WriteInt16(ctx context.Context, symbolName string, value int16) error {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, uint16(value))
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteUint16 writes a UINT16/UINT/WORD value to a symbol by name.
func (c *Client) WriteUint16(ctx context.Context, symbolName string, value uint16) error {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, value)
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteInt32 writes an INT32/DINT value to a symbol by name.
func (c *Client) WriteInt32(ctx context.Context, symbolName string, value int32) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(value))
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteUint32 writes a UINT32/UDINT/DWORD value to a symbol by name.
func (c *Client) WriteUint32(ctx context.Context, symbolName string, value uint32) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteInt64 writes an INT64/LINT value to a symbol by name.
func (c *Client) WriteInt64(ctx context.Context, symbolName string, value int64) error {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(value))
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteUint64 writes a UINT64/ULINT/LWORD value to a symbol by name.
func (c *Client) WriteUint64(ctx context.Context, symbolName string, value uint64) error {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, value)
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteFloat32 writes a REAL/FLOAT value to a symbol by name.
func (c *Client) WriteFloat32(ctx context.Context, symbolName string, value float32) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, math.Float32bits(value))
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteFloat64 writes an LREAL/DOUBLE value to a symbol by name.
func (c *Client) WriteFloat64(ctx context.Context, symbolName string, value float64) error {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(value))
	return c.SymbolByName(symbolName).WriteBytes(ctx, data)
}

// WriteString writes a STRING value to a symbol by name. The buffer is
// padded with zeros to the symbol's declared size, which also provides the
// NUL terminator.
func (c *Client) WriteString(ctx context.Context, symbolName string, value string) error {
	sym := c.SymbolByName(symbolName)
	info, err := sym.Info(ctx)
	if err != nil {
		return err
	}

	data := make([]byte, info.Size)
	maxLen := int(info.Size) - 1
	if maxLen < 0 {
		maxLen = 0
	}
	if len(value) > maxLen {
		value = value[:maxLen]
	}
	copy(data, value)
	return sym.WriteBytes(ctx, data)
}

// WriteTime writes a time.Duration value to a TIME symbol.
func (c *Client) WriteTime(ctx context.Context, symbolName string, value time.Duration) error {
	return c.WriteInt32(ctx, symbolName, int32(value/time.Millisecond))
}

// WriteDate writes a time.Time value to a DATE symbol.
func (c *Client) WriteDate(ctx context.Context, symbolName string, value time.Time) error {
	return c.WriteUint32(ctx, symbolName, uint32(value.Unix()))
}

// WriteWString writes a string to a WSTRING symbol, converted from UTF-8
// to UTF-16LE and zero-padded to the declared buffer size.
func (c *Client) WriteWString(ctx context.Context, symbolName string, value string) error {
	sym := c.SymbolByName(symbolName)
	info, err := sym.Info(ctx)
	if err != nil {
		return err
	}

	data := make([]byte, info.Size)
	units := utf16.Encode([]rune(value))
	maxUnits := (int(info.Size) / 2) - 1
	if maxUnits < 0 {
		maxUnits = 0
	}
	if len(units) > maxUnits {
		units = units[:maxUnits]
	}
	for i, u := range units {
		data[i*2] = byte(u)
		data[i*2+1] = byte(u >> 8)
	}
	return sym.WriteBytes(ctx, data)
}
