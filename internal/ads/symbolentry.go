package ads

import (
	"encoding/binary"
	"fmt"
)

// symbolEntryFixedLength is the fixed header portion of a symbol entry; the
// name, type name, and comment trail it at offsets derived from the declared
// length fields, never from terminator scanning.
const symbolEntryFixedLength = 30

// SymbolEntry describes one symbol: its address, size, type tag, and the
// trailing name/type/comment strings.
type SymbolEntry struct {
	EntryLength uint32
	IndexGroup  uint32
	IndexOffset uint32
	Size        uint32
	DataType    DataType
	Flags       SymbolFlag
	Name        string
	TypeName    string
	Comment     string
}

// MarshalBinary encodes the fixed header followed by the NUL-terminated
// name, type name, and comment.
func (s *SymbolEntry) MarshalBinary() ([]byte, error) {
	trailing := len(s.Name) + len(s.TypeName) + len(s.Comment) + 3
	s.EntryLength = uint32(symbolEntryFixedLength + trailing)

	buf := make([]byte, 0, s.EntryLength)
	buf = binary.LittleEndian.AppendUint32(buf, s.EntryLength)
	buf = binary.LittleEndian.AppendUint32(buf, s.IndexGroup)
	buf = binary.LittleEndian.AppendUint32(buf, s.IndexOffset)
	buf = binary.LittleEndian.AppendUint32(buf, s.Size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.DataType))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.Flags))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s.Name)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s.TypeName)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s.Comment)))
	buf = append(buf, s.Name...)
	buf = append(buf, 0)
	buf = append(buf, s.TypeName...)
	buf = append(buf, 0)
	buf = append(buf, s.Comment...)
	buf = append(buf, 0)
	return buf, nil
}

// UnmarshalBinary decodes the fixed header and locates the trailing strings
// by their declared lengths.
func (s *SymbolEntry) UnmarshalBinary(data []byte) error {
	if len(data) < symbolEntryFixedLength {
		return fmt.Errorf("ads: symbol entry requires %d bytes, got %d", symbolEntryFixedLength, len(data))
	}
	s.EntryLength = binary.LittleEndian.Uint32(data[0:4])
	s.IndexGroup = binary.LittleEndian.Uint32(data[4:8])
	s.IndexOffset = binary.LittleEndian.Uint32(data[8:12])
	s.Size = binary.LittleEndian.Uint32(data[12:16])

	dataType, err := ParseDataType(binary.LittleEndian.Uint32(data[16:20]), Lenient)
	if err != nil {
		return err
	}
	s.DataType = dataType
	s.Flags = SymbolFlag(binary.LittleEndian.Uint32(data[20:24]))

	nameLen := int(binary.LittleEndian.Uint16(data[24:26]))
	typeLen := int(binary.LittleEndian.Uint16(data[26:28]))
	commentLen := int(binary.LittleEndian.Uint16(data[28:30]))

	// Each string is followed by a NUL that is not counted in its length.
	need := symbolEntryFixedLength + nameLen + 1 + typeLen + 1 + commentLen
	if len(data) < need {
		return fmt.Errorf("ads: symbol entry declares %d trailing bytes, got %d",
			need-symbolEntryFixedLength, len(data)-symbolEntryFixedLength)
	}

	off := symbolEntryFixedLength
	s.Name = string(data[off : off+nameLen])
	off += nameLen + 1
	s.TypeName = string(data[off : off+typeLen])
	off += typeLen + 1
	s.Comment = string(data[off : off+commentLen])
	return nil
}
