package ads

import (
	"errors"
	"testing"
)

func TestCommandIDString(t *testing.T) {
	if got := CmdReadWrite.String(); got != "ReadWrite" {
		t.Errorf("Expected ReadWrite, got %s", got)
	}
	if got := CommandID(0x1234).String(); got != "Command(0x1234)" {
		t.Errorf("Expected Command(0x1234), got %s", got)
	}
}

func TestParseState(t *testing.T) {
	state, err := ParseState(5, Strict)
	if err != nil {
		t.Fatalf("Failed to parse state 5: %v", err)
	}
	if state != StateRun {
		t.Errorf("Expected RUN, got %s", state)
	}

	if _, err := ParseState(200, Strict); !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("Expected ErrInvalidEnumValue for state 200, got %v", err)
	}

	state, err = ParseState(200, Lenient)
	if err != nil {
		t.Fatalf("Lenient parse failed: %v", err)
	}
	if uint16(state) != 200 {
		t.Errorf("Expected raw value 200 preserved, got %d", state)
	}
}

func TestParseDataType(t *testing.T) {
	dt, err := ParseDataType(3, Strict)
	if err != nil {
		t.Fatalf("Failed to parse data type 3: %v", err)
	}
	if dt != TypeInt32 {
		t.Errorf("Expected DINT, got %s", dt)
	}

	// VOID and BIGTYPE have no element width but are still valid tags.
	if _, err := ParseDataType(0, Strict); err != nil {
		t.Errorf("Expected VOID to parse, got %v", err)
	}
	if _, err := ParseDataType(65, Strict); err != nil {
		t.Errorf("Expected BIGTYPE to parse, got %v", err)
	}

	if _, err := ParseDataType(99, Strict); !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("Expected ErrInvalidEnumValue for data type 99, got %v", err)
	}
	if _, err := ParseDataType(99, Lenient); err != nil {
		t.Errorf("Expected lenient parse to pass raw value through, got %v", err)
	}
}

func TestParseTransmissionMode(t *testing.T) {
	mode, err := ParseTransmissionMode(3, Strict)
	if err != nil {
		t.Fatalf("Failed to parse mode 3: %v", err)
	}
	if mode != TransServerCycle {
		t.Errorf("Expected server cycle mode, got %d", mode)
	}

	if _, err := ParseTransmissionMode(42, Strict); !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("Expected ErrInvalidEnumValue for mode 42, got %v", err)
	}
	if _, err := ParseTransmissionMode(42, Lenient); err != nil {
		t.Errorf("Expected lenient parse to pass raw value through, got %v", err)
	}
}

func TestDataTypeString(t *testing.T) {
	cases := []struct {
		dt   DataType
		want string
	}{
		{TypeBit, "BOOL"},
		{TypeInt16, "INT"},
		{TypeUint32, "UDINT"},
		{TypeReal64, "LREAL"},
		{TypeString, "STRING"},
		{DataType(77), "DataType(77)"},
	}
	for _, tc := range cases {
		if got := tc.dt.String(); got != tc.want {
			t.Errorf("Expected %s, got %s", tc.want, got)
		}
	}
}

func TestDataTypeElementSize(t *testing.T) {
	cases := []struct {
		dt   DataType
		want int
	}{
		{TypeBit, 1},
		{TypeInt16, 2},
		{TypeReal32, 4},
		{TypeUint64, 8},
		{TypeWString, 2},
		{TypeVoid, 0},
		{TypeBigType, 0},
	}
	for _, tc := range cases {
		if got := tc.dt.ElementSize(); got != tc.want {
			t.Errorf("Expected element size %d for %s, got %d", tc.want, tc.dt, got)
		}
	}
}
