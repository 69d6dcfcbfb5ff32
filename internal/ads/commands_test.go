package ads

import (
	"bytes"
	"testing"
	"time"
)

func TestDeviceInfoResponseLayout(t *testing.T) {
	resp := &DeviceInfoResponse{
		Result:   ErrNoError,
		Version:  3,
		Revision: 1,
		Build:    4024,
		Name:     "TwinCAT System",
	}
	data, err := resp.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 24 {
		t.Fatalf("Expected 24 bytes, got %d", len(data))
	}
	// 4024 = 0x0FB8 little-endian.
	if data[6] != 0xB8 || data[7] != 0x0F {
		t.Errorf("Expected build bytes B8 0F, got %02X %02X", data[6], data[7])
	}

	var decoded DeviceInfoResponse
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Name != "TwinCAT System" {
		t.Errorf("Expected name %q, got %q", "TwinCAT System", decoded.Name)
	}
	if decoded.Version != 3 || decoded.Revision != 1 || decoded.Build != 4024 {
		t.Errorf("Expected version 3.1.4024, got %d.%d.%d", decoded.Version, decoded.Revision, decoded.Build)
	}
}

func TestDeviceInfoResponseShort(t *testing.T) {
	var resp DeviceInfoResponse
	if err := resp.UnmarshalBinary(make([]byte, 23)); err == nil {
		t.Error("Expected error for short device info response, got nil")
	}
}

func TestReadResponseRoundTrip(t *testing.T) {
	resp := &ReadResponse{Result: ErrNoError, Data: []byte{0x01, 0x02, 0x03, 0x04}}
	data, err := resp.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 12 {
		t.Fatalf("Expected 12 bytes, got %d", len(data))
	}
	// Declared length follows the result code.
	if data[4] != 4 || data[5] != 0 || data[6] != 0 || data[7] != 0 {
		t.Errorf("Expected declared length 4, got bytes %02X %02X %02X %02X", data[4], data[5], data[6], data[7])
	}

	var decoded ReadResponse
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.Data, resp.Data) {
		t.Errorf("Expected data %v, got %v", resp.Data, decoded.Data)
	}
}

func TestReadResponseTruncatedData(t *testing.T) {
	resp := &ReadResponse{Data: []byte{1, 2, 3, 4}}
	data, _ := resp.MarshalBinary()

	var decoded ReadResponse
	if err := decoded.UnmarshalBinary(data[:10]); err == nil {
		t.Error("Expected error for truncated read response, got nil")
	}
}

func TestWriteRequestForcesLength(t *testing.T) {
	req := &WriteRequest{
		RequestHeader: RequestHeader{
			IndexGroup:  IndexGroupSymbolValueByHnd,
			IndexOffset: 0x1234,
			Length:      999, // ignored on marshal
		},
		Data: []byte{0xAA, 0xBB},
	}
	data, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 14 {
		t.Fatalf("Expected 14 bytes, got %d", len(data))
	}
	if req.Length != 2 {
		t.Errorf("Expected length forced to 2, got %d", req.Length)
	}

	var decoded WriteRequest
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.IndexGroup != IndexGroupSymbolValueByHnd {
		t.Errorf("Expected index group 0x%04X, got 0x%04X", IndexGroupSymbolValueByHnd, decoded.IndexGroup)
	}
	if !bytes.Equal(decoded.Data, []byte{0xAA, 0xBB}) {
		t.Errorf("Expected data AA BB, got %v", decoded.Data)
	}
}

func TestReadWriteRequestLayout(t *testing.T) {
	req := &ReadWriteRequest{
		RequestHeader: RequestHeader{
			IndexGroup:  IndexGroupSymbolHandleByName,
			IndexOffset: 0,
			Length:      4, // read length stays as set
		},
		Data: []byte("Main.counter\x00"),
	}
	data, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 16+13 {
		t.Fatalf("Expected %d bytes, got %d", 16+13, len(data))
	}
	if req.Length != 4 {
		t.Errorf("Expected read length to stay 4, got %d", req.Length)
	}
	if req.WriteLength != 13 {
		t.Errorf("Expected write length 13, got %d", req.WriteLength)
	}

	var decoded ReadWriteRequest
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if string(decoded.Data) != "Main.counter\x00" {
		t.Errorf("Expected name payload, got %q", decoded.Data)
	}
}

func TestReadWriteResponseHandle(t *testing.T) {
	resp := &ReadWriteResponse{Result: ErrNoError, Data: []byte{0x78, 0x56, 0x34, 0x12}}
	handle, err := resp.Handle()
	if err != nil {
		t.Fatalf("Failed to extract handle: %v", err)
	}
	if handle != 0x12345678 {
		t.Errorf("Expected handle 0x12345678, got 0x%08X", handle)
	}

	short := &ReadWriteResponse{Data: []byte{1, 2}}
	if _, err := short.Handle(); err == nil {
		t.Error("Expected error for short handle data, got nil")
	}
}

func TestReadStateResponseRoundTrip(t *testing.T) {
	resp := &ReadStateResponse{Result: ErrNoError, ADSState: StateRun, DeviceState: 2}
	data, err := resp.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 8 {
		t.Fatalf("Expected 8 bytes, got %d", len(data))
	}

	var decoded ReadStateResponse
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.ADSState != StateRun {
		t.Errorf("Expected state RUN, got %s", decoded.ADSState)
	}
	if decoded.DeviceState != 2 {
		t.Errorf("Expected device state 2, got %d", decoded.DeviceState)
	}
}

func TestWriteControlRequestRoundTrip(t *testing.T) {
	req := &WriteControlRequest{ADSState: StateReset, DeviceState: 0, Data: []byte{0xFF}}
	data, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 9 {
		t.Fatalf("Expected 9 bytes, got %d", len(data))
	}

	var decoded WriteControlRequest
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.ADSState != StateReset {
		t.Errorf("Expected state RESET, got %s", decoded.ADSState)
	}
	if !bytes.Equal(decoded.Data, []byte{0xFF}) {
		t.Errorf("Expected data FF, got %v", decoded.Data)
	}
}

func TestAddDeviceNotificationRequestLayout(t *testing.T) {
	req := &AddDeviceNotificationRequest{
		IndexGroup:       IndexGroupSymbolValueByHnd,
		IndexOffset:      7,
		Length:           4,
		TransmissionMode: TransServerCycle,
		MaxDelay:         10000,  // 1 ms in 100 ns units
		CycleTime:        1000000, // 100 ms in 100 ns units
	}
	data, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(data) != 40 {
		t.Fatalf("Expected 40 bytes, got %d", len(data))
	}
	// Transmission mode 3 at offset 12.
	if data[12] != 3 || data[13] != 0 {
		t.Errorf("Expected transmission mode bytes 03 00, got %02X %02X", data[12], data[13])
	}
	for i := 24; i < 40; i++ {
		if data[i] != 0 {
			t.Errorf("Expected zero reserved byte at offset %d, got %02X", i, data[i])
		}
	}

	var decoded AddDeviceNotificationRequest
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.CycleTime != 1000000 {
		t.Errorf("Expected cycle time 1000000, got %d", decoded.CycleTime)
	}
	if decoded.TransmissionMode != TransServerCycle {
		t.Errorf("Expected server cycle mode, got %d", decoded.TransmissionMode)
	}
}

func TestAddDeviceNotificationResponseRoundTrip(t *testing.T) {
	resp := &AddDeviceNotificationResponse{Result: ErrNoError, Handle: 42}
	data, _ := resp.MarshalBinary()

	var decoded AddDeviceNotificationResponse
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Handle != 42 {
		t.Errorf("Expected handle 42, got %d", decoded.Handle)
	}
}

func TestDeleteDeviceNotificationRequestRoundTrip(t *testing.T) {
	req := &DeleteDeviceNotificationRequest{Handle: 0xDEADBEEF}
	data, _ := req.MarshalBinary()
	if len(data) != 4 {
		t.Fatalf("Expected 4 bytes, got %d", len(data))
	}

	var decoded DeleteDeviceNotificationRequest
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Handle != 0xDEADBEEF {
		t.Errorf("Expected handle 0xDEADBEEF, got 0x%08X", decoded.Handle)
	}
}

func TestDeviceNotificationRoundTrip(t *testing.T) {
	req := &DeviceNotificationRequest{
		Stamps: []NotificationStamp{
			{
				Timestamp: TimeToFiletime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
				Samples: []NotificationSample{
					{Handle: 1, Data: []byte{0x2A, 0x00}},
					{Handle: 2, Data: []byte{0x01}},
				},
			},
			{
				Timestamp: TimeToFiletime(time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC)),
				Samples: []NotificationSample{
					{Handle: 1, Data: []byte{0x2B, 0x00}},
				},
			},
		},
	}
	data, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded DeviceNotificationRequest
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if len(decoded.Stamps) != 2 {
		t.Fatalf("Expected 2 stamps, got %d", len(decoded.Stamps))
	}
	if len(decoded.Stamps[0].Samples) != 2 {
		t.Fatalf("Expected 2 samples in first stamp, got %d", len(decoded.Stamps[0].Samples))
	}
	if decoded.Stamps[0].Samples[1].Handle != 2 {
		t.Errorf("Expected handle 2, got %d", decoded.Stamps[0].Samples[1].Handle)
	}
	if !bytes.Equal(decoded.Stamps[1].Samples[0].Data, []byte{0x2B, 0x00}) {
		t.Errorf("Expected sample data 2B 00, got %v", decoded.Stamps[1].Samples[0].Data)
	}

	want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if !decoded.Stamps[0].Time().Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, decoded.Stamps[0].Time())
	}
}

func TestDeviceNotificationTruncated(t *testing.T) {
	req := &DeviceNotificationRequest{
		Stamps: []NotificationStamp{
			{Timestamp: 1, Samples: []NotificationSample{{Handle: 1, Data: []byte{1, 2, 3, 4}}}},
		},
	}
	data, _ := req.MarshalBinary()

	cases := []struct {
		name string
		cut  int
	}{
		{"missing sample data", 2},
		{"missing sample header", 8},
		{"missing stamp header", 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			truncated := make([]byte, len(data)-tc.cut)
			copy(truncated, data)
			var decoded DeviceNotificationRequest
			if err := decoded.UnmarshalBinary(truncated); err == nil {
				t.Error("Expected error for truncated frame, got nil")
			}
		})
	}
}

func TestFiletimeConversion(t *testing.T) {
	// The Unix epoch in FILETIME units.
	if got := FiletimeToTime(116444736000000000); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("Expected Unix epoch, got %v", got)
	}

	now := time.Date(2023, 3, 15, 8, 30, 0, 123456700, time.UTC)
	if got := FiletimeToTime(TimeToFiletime(now)); !got.Equal(now) {
		t.Errorf("Expected %v after round trip, got %v", now, got)
	}
}
