package ads

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Payload is one command request or response body. Encoding is always
// little-endian and byte-packed.
type Payload interface {
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// RequestHeader is the generic 12-byte read/write request prefix shared by
// several commands. Derived requests append their extra fields after this
// layout; the concatenated result is one contiguous buffer.
type RequestHeader struct {
	IndexGroup  uint32
	IndexOffset uint32
	Length      uint32
}

func (r *RequestHeader) appendBinary(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, r.IndexGroup)
	buf = binary.LittleEndian.AppendUint32(buf, r.IndexOffset)
	return binary.LittleEndian.AppendUint32(buf, r.Length)
}

func (r *RequestHeader) MarshalBinary() ([]byte, error) {
	return r.appendBinary(make([]byte, 0, 12)), nil
}

func (r *RequestHeader) UnmarshalBinary(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("ads: request header requires 12 bytes, got %d", len(data))
	}
	r.IndexGroup = binary.LittleEndian.Uint32(data[0:4])
	r.IndexOffset = binary.LittleEndian.Uint32(data[4:8])
	r.Length = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

// ResponseHeader is the generic 4-byte response prefix carrying the result
// code.
type ResponseHeader struct {
	Result Error
}

func (r *ResponseHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(r.Result))
	return buf, nil
}

func (r *ResponseHeader) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ads: response header requires 4 bytes, got %d", len(data))
	}
	r.Result = Error(binary.LittleEndian.Uint32(data[0:4]))
	return nil
}

// ReadResponseHeader extends ResponseHeader with the returned data length.
type ReadResponseHeader struct {
	ResponseHeader
	ReadLength uint32
}

func (r *ReadResponseHeader) MarshalBinary() ([]byte, error) {
	base, _ := r.ResponseHeader.MarshalBinary()
	return binary.LittleEndian.AppendUint32(base, r.ReadLength), nil
}

func (r *ReadResponseHeader) UnmarshalBinary(data []byte) error {
	if err := r.ResponseHeader.UnmarshalBinary(data); err != nil {
		return err
	}
	if len(data) < 8 {
		return fmt.Errorf("ads: read response header requires 8 bytes, got %d", len(data))
	}
	r.ReadLength = binary.LittleEndian.Uint32(data[4:8])
	return nil
}

// DeviceInfoRequest has an empty body.
type DeviceInfoRequest struct{}

func (r *DeviceInfoRequest) MarshalBinary() ([]byte, error) { return nil, nil }
func (r *DeviceInfoRequest) UnmarshalBinary([]byte) error   { return nil }

// DeviceInfoResponse carries the device version and its fixed 16-byte name
// field. The name is NUL-trimmed on decode.
type DeviceInfoResponse struct {
	Result   Error
	Version  uint8
	Revision uint8
	Build    uint16
	Name     string
}

func (r *DeviceInfoResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Result))
	buf[4] = r.Version
	buf[5] = r.Revision
	binary.LittleEndian.PutUint16(buf[6:8], r.Build)
	copy(buf[8:24], r.Name)
	return buf, nil
}

func (r *DeviceInfoResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 24 {
		return fmt.Errorf("ads: device info response requires 24 bytes, got %d", len(data))
	}
	r.Result = Error(binary.LittleEndian.Uint32(data[0:4]))
	r.Version = data[4]
	r.Revision = data[5]
	r.Build = binary.LittleEndian.Uint16(data[6:8])
	r.Name = trimNul(data[8:24])
	return nil
}

// ReadRequest is the generic request header used verbatim by the Read
// command.
type ReadRequest = RequestHeader

// ReadResponse carries the result code, declared length, and the read bytes.
type ReadResponse struct {
	Result Error
	Data   []byte
}

func (r *ReadResponse) MarshalBinary() ([]byte, error) {
	hdr := ReadResponseHeader{
		ResponseHeader: ResponseHeader{Result: r.Result},
		ReadLength:     uint32(len(r.Data)),
	}
	buf, _ := hdr.MarshalBinary()
	return append(buf, r.Data...), nil
}

func (r *ReadResponse) UnmarshalBinary(data []byte) error {
	var hdr ReadResponseHeader
	if err := hdr.UnmarshalBinary(data); err != nil {
		return err
	}
	if len(data) < 8+int(hdr.ReadLength) {
		return fmt.Errorf("ads: read response declares %d bytes, got %d", hdr.ReadLength, len(data)-8)
	}
	r.Result = hdr.Result
	r.Data = make([]byte, hdr.ReadLength)
	copy(r.Data, data[8:8+hdr.ReadLength])
	return nil
}

// WriteRequest extends the generic request header with trailing data; Length
// always equals len(Data) on the wire.
type WriteRequest struct {
	RequestHeader
	Data []byte
}

func (w *WriteRequest) MarshalBinary() ([]byte, error) {
	w.Length = uint32(len(w.Data))
	buf := w.appendBinary(make([]byte, 0, 12+len(w.Data)))
	return append(buf, w.Data...), nil
}

func (w *WriteRequest) UnmarshalBinary(data []byte) error {
	if err := w.RequestHeader.UnmarshalBinary(data); err != nil {
		return err
	}
	if len(data) < 12+int(w.Length) {
		return fmt.Errorf("ads: write request declares %d bytes, got %d", w.Length, len(data)-12)
	}
	w.Data = make([]byte, w.Length)
	copy(w.Data, data[12:12+w.Length])
	return nil
}

// WriteResponse carries only the result code.
type WriteResponse = ResponseHeader

// ReadStateRequest has an empty body.
type ReadStateRequest struct{}

func (r *ReadStateRequest) MarshalBinary() ([]byte, error) { return nil, nil }
func (r *ReadStateRequest) UnmarshalBinary([]byte) error   { return nil }

// ReadStateResponse carries the ADS and device states.
type ReadStateResponse struct {
	Result      Error
	ADSState    State
	DeviceState uint16
}

func (r *ReadStateResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Result))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(r.ADSState))
	binary.LittleEndian.PutUint16(buf[6:8], r.DeviceState)
	return buf, nil
}

func (r *ReadStateResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: read state response requires 8 bytes, got %d", len(data))
	}
	r.Result = Error(binary.LittleEndian.Uint32(data[0:4]))
	r.ADSState = State(binary.LittleEndian.Uint16(data[4:6]))
	r.DeviceState = binary.LittleEndian.Uint16(data[6:8])
	return nil
}

// WriteControlRequest changes the ADS state of a device.
type WriteControlRequest struct {
	ADSState    State
	DeviceState uint16
	Data        []byte
}

func (w *WriteControlRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8, 8+len(w.Data))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(w.ADSState))
	binary.LittleEndian.PutUint16(buf[2:4], w.DeviceState)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(w.Data)))
	return append(buf, w.Data...), nil
}

func (w *WriteControlRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: write control request requires 8 bytes, got %d", len(data))
	}
	w.ADSState = State(binary.LittleEndian.Uint16(data[0:2]))
	w.DeviceState = binary.LittleEndian.Uint16(data[2:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	if len(data) < 8+int(length) {
		return fmt.Errorf("ads: write control request declares %d bytes, got %d", length, len(data)-8)
	}
	w.Data = make([]byte, length)
	copy(w.Data, data[8:8+length])
	return nil
}

// WriteControlResponse carries only the result code.
type WriteControlResponse = ResponseHeader

// ReadWriteRequest extends the generic request header (whose Length field
// holds the read length) with the write length and trailing write data.
type ReadWriteRequest struct {
	RequestHeader          // Length = bytes to read back
	WriteLength   uint32
	Data          []byte
}

func (r *ReadWriteRequest) MarshalBinary() ([]byte, error) {
	r.WriteLength = uint32(len(r.Data))
	buf := r.appendBinary(make([]byte, 0, 16+len(r.Data)))
	buf = binary.LittleEndian.AppendUint32(buf, r.WriteLength)
	return append(buf, r.Data...), nil
}

func (r *ReadWriteRequest) UnmarshalBinary(data []byte) error {
	if err := r.RequestHeader.UnmarshalBinary(data); err != nil {
		return err
	}
	if len(data) < 16 {
		return fmt.Errorf("ads: read/write request requires 16 bytes, got %d", len(data))
	}
	r.WriteLength = binary.LittleEndian.Uint32(data[12:16])
	if len(data) < 16+int(r.WriteLength) {
		return fmt.Errorf("ads: read/write request declares %d bytes, got %d", r.WriteLength, len(data)-16)
	}
	r.Data = make([]byte, r.WriteLength)
	copy(r.Data, data[16:16+r.WriteLength])
	return nil
}

// ReadWriteResponse carries the result code plus returned data. Its concrete
// meaning depends on the index group of the originating request; use
// UpcastByIndexGroup to select the specific record.
type ReadWriteResponse struct {
	Result Error
	Data   []byte
}

func (r *ReadWriteResponse) MarshalBinary() ([]byte, error) {
	hdr := ReadResponseHeader{
		ResponseHeader: ResponseHeader{Result: r.Result},
		ReadLength:     uint32(len(r.Data)),
	}
	buf, _ := hdr.MarshalBinary()
	return append(buf, r.Data...), nil
}

func (r *ReadWriteResponse) UnmarshalBinary(data []byte) error {
	var hdr ReadResponseHeader
	if err := hdr.UnmarshalBinary(data); err != nil {
		return err
	}
	if len(data) < 8+int(hdr.ReadLength) {
		return fmt.Errorf("ads: read/write response declares %d bytes, got %d", hdr.ReadLength, len(data)-8)
	}
	r.Result = hdr.Result
	r.Data = make([]byte, hdr.ReadLength)
	copy(r.Data, data[8:8+hdr.ReadLength])
	return nil
}

// Handle returns the response data as a 4-byte handle value (the shape of a
// SYM_HNDBYNAME response).
func (r *ReadWriteResponse) Handle() (uint32, error) {
	if len(r.Data) < 4 {
		return 0, fmt.Errorf("ads: handle response requires 4 bytes, got %d", len(r.Data))
	}
	return binary.LittleEndian.Uint32(r.Data[0:4]), nil
}

// AddDeviceNotificationRequest registers a push subscription. MaxDelay and
// CycleTime are in 100 ns units on the wire.
type AddDeviceNotificationRequest struct {
	IndexGroup       uint32
	IndexOffset      uint32
	Length           uint32
	TransmissionMode TransmissionMode
	MaxDelay         uint32
	CycleTime        uint32
	Reserved         [16]byte
}

func (r *AddDeviceNotificationRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 40)
	buf = binary.LittleEndian.AppendUint32(buf, r.IndexGroup)
	buf = binary.LittleEndian.AppendUint32(buf, r.IndexOffset)
	buf = binary.LittleEndian.AppendUint32(buf, r.Length)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(r.TransmissionMode))
	buf = binary.LittleEndian.AppendUint32(buf, r.MaxDelay)
	buf = binary.LittleEndian.AppendUint32(buf, r.CycleTime)
	return append(buf, r.Reserved[:]...), nil
}

func (r *AddDeviceNotificationRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 40 {
		return fmt.Errorf("ads: add notification request requires 40 bytes, got %d", len(data))
	}
	r.IndexGroup = binary.LittleEndian.Uint32(data[0:4])
	r.IndexOffset = binary.LittleEndian.Uint32(data[4:8])
	r.Length = binary.LittleEndian.Uint32(data[8:12])
	mode, err := ParseTransmissionMode(binary.LittleEndian.Uint32(data[12:16]), Lenient)
	if err != nil {
		return err
	}
	r.TransmissionMode = mode
	r.MaxDelay = binary.LittleEndian.Uint32(data[16:20])
	r.CycleTime = binary.LittleEndian.Uint32(data[20:24])
	copy(r.Reserved[:], data[24:40])
	return nil
}

// AddDeviceNotificationResponse confirms a subscription and carries the
// server-assigned handle.
type AddDeviceNotificationResponse struct {
	Result Error
	Handle uint32
}

func (r *AddDeviceNotificationResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Result))
	binary.LittleEndian.PutUint32(buf[4:8], r.Handle)
	return buf, nil
}

func (r *AddDeviceNotificationResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: add notification response requires 8 bytes, got %d", len(data))
	}
	r.Result = Error(binary.LittleEndian.Uint32(data[0:4]))
	r.Handle = binary.LittleEndian.Uint32(data[4:8])
	return nil
}

// DeleteDeviceNotificationRequest removes a push subscription by handle.
type DeleteDeviceNotificationRequest struct {
	Handle uint32
}

func (r *DeleteDeviceNotificationRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, r.Handle)
	return buf, nil
}

func (r *DeleteDeviceNotificationRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ads: delete notification request requires 4 bytes, got %d", len(data))
	}
	r.Handle = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// DeleteDeviceNotificationResponse carries only the result code.
type DeleteDeviceNotificationResponse = ResponseHeader

// filetimeEpochDelta is the number of 100 ns intervals between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch.
const filetimeEpochDelta = 116444736000000000

// FiletimeToTime converts a Windows FILETIME value to a time.Time.
func FiletimeToTime(ft uint64) time.Time {
	return time.Unix(0, (int64(ft)-filetimeEpochDelta)*100)
}

// TimeToFiletime converts a time.Time to a Windows FILETIME value.
func TimeToFiletime(t time.Time) uint64 {
	return uint64(t.UnixNano()/100 + filetimeEpochDelta)
}

// NotificationSample is one pushed value for one subscription handle.
type NotificationSample struct {
	Handle uint32
	Data   []byte
}

// NotificationStamp groups the samples pushed at one server timestamp.
type NotificationStamp struct {
	Timestamp uint64 // FILETIME
	Samples   []NotificationSample
}

// Time returns the stamp's timestamp as a time.Time.
func (s *NotificationStamp) Time() time.Time {
	return FiletimeToTime(s.Timestamp)
}

// DeviceNotificationRequest is the unsolicited push frame: a declared total
// length followed by stamped sample groups. Sample data is located purely by
// the declared length counts.
type DeviceNotificationRequest struct {
	Stamps []NotificationStamp
}

func (r *DeviceNotificationRequest) MarshalBinary() ([]byte, error) {
	body := make([]byte, 0, 64)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(r.Stamps)))
	for _, stamp := range r.Stamps {
		body = binary.LittleEndian.AppendUint64(body, stamp.Timestamp)
		body = binary.LittleEndian.AppendUint32(body, uint32(len(stamp.Samples)))
		for _, sample := range stamp.Samples {
			body = binary.LittleEndian.AppendUint32(body, sample.Handle)
			body = binary.LittleEndian.AppendUint32(body, uint32(len(sample.Data)))
			body = append(body, sample.Data...)
		}
	}
	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(body)), uint32(len(body)))
	return append(buf, body...), nil
}

func (r *DeviceNotificationRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: notification frame requires 8 bytes, got %d", len(data))
	}
	length := binary.LittleEndian.Uint32(data[0:4])
	if len(data) < 4+int(length) {
		return fmt.Errorf("ads: notification frame declares %d bytes, got %d", length, len(data)-4)
	}
	stampCount := binary.LittleEndian.Uint32(data[4:8])

	off := 8
	r.Stamps = make([]NotificationStamp, 0, stampCount)
	for i := uint32(0); i < stampCount; i++ {
		if len(data) < off+12 {
			return fmt.Errorf("ads: truncated notification stamp %d", i)
		}
		stamp := NotificationStamp{
			Timestamp: binary.LittleEndian.Uint64(data[off : off+8]),
		}
		sampleCount := binary.LittleEndian.Uint32(data[off+8 : off+12])
		off += 12

		stamp.Samples = make([]NotificationSample, 0, sampleCount)
		for j := uint32(0); j < sampleCount; j++ {
			if len(data) < off+8 {
				return fmt.Errorf("ads: truncated notification sample %d/%d", i, j)
			}
			handle := binary.LittleEndian.Uint32(data[off : off+4])
			size := binary.LittleEndian.Uint32(data[off+4 : off+8])
			off += 8
			if len(data) < off+int(size) {
				return fmt.Errorf("ads: notification sample declares %d bytes, got %d", size, len(data)-off)
			}
			sample := NotificationSample{Handle: handle, Data: make([]byte, size)}
			copy(sample.Data, data[off:off+int(size)])
			off += int(size)
			stamp.Samples = append(stamp.Samples, sample)
		}
		r.Stamps = append(r.Stamps, stamp)
	}
	return nil
}

// trimNul interprets a fixed-size character array as a string, trimming at
// the first NUL byte.
func trimNul(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
