package ads

import (
	"encoding/binary"
	"fmt"
	"time"
)

// logMessageFixedLength covers the fields preceding the variable-length
// message text.
const logMessageFixedLength = 32

// LogMessage is the sample payload pushed by the TwinCAT log system
// (notification on index group 1, offset 65535 at the LOGGER port).
type LogMessage struct {
	Timestamp  time.Time
	Identifier uint32
	AmsPort    uint16
	SenderName string
	Message    []byte
}

// UnmarshalBinary decodes a log-system notification sample. The message text
// is located by its declared length, not by terminator scanning.
func (m *LogMessage) UnmarshalBinary(data []byte) error {
	if len(data) < logMessageFixedLength {
		return fmt.Errorf("ads: log message requires %d bytes, got %d", logMessageFixedLength, len(data))
	}
	m.Timestamp = FiletimeToTime(binary.LittleEndian.Uint64(data[0:8]))
	m.Identifier = binary.LittleEndian.Uint32(data[8:12])
	m.AmsPort = binary.LittleEndian.Uint16(data[12:14])
	m.SenderName = trimNul(data[14:30])
	length := int(binary.LittleEndian.Uint16(data[30:32]))
	if len(data) < logMessageFixedLength+length {
		return fmt.Errorf("ads: log message declares %d bytes, got %d", length, len(data)-logMessageFixedLength)
	}
	m.Message = make([]byte, length)
	copy(m.Message, data[logMessageFixedLength:logMessageFixedLength+length])
	return nil
}

// Text returns the message body as a string, trimmed at the first NUL.
func (m *LogMessage) Text() string {
	return trimNul(m.Message)
}
