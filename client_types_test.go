package goadsio_test

import (
	"context"
	"testing"
	"time"
)

func TestTypedReadWriteRoundTrips(t *testing.T) {
	client := dialClient(t, newFakePLC(t))
	ctx := context.Background()

	t.Run("bool", func(t *testing.T) {
		if err := client.WriteBool(ctx, "Main.running", true); err != nil {
			t.Fatalf("WriteBool: %v", err)
		}
		got, err := client.ReadBool(ctx, "Main.running")
		if err != nil {
			t.Fatalf("ReadBool: %v", err)
		}
		if !got {
			t.Error("Expected true, got false")
		}
	})

	t.Run("int32", func(t *testing.T) {
		if err := client.WriteInt32(ctx, "Main.counter", -1234); err != nil {
			t.Fatalf("WriteInt32: %v", err)
		}
		got, err := client.ReadInt32(ctx, "Main.counter")
		if err != nil {
			t.Fatalf("ReadInt32: %v", err)
		}
		if got != -1234 {
			t.Errorf("Expected -1234, got %d", got)
		}
	})

	t.Run("float64", func(t *testing.T) {
		if err := client.WriteFloat64(ctx, "Main.temp", 21.5); err != nil {
			t.Fatalf("WriteFloat64: %v", err)
		}
		got, err := client.ReadFloat64(ctx, "Main.temp")
		if err != nil {
			t.Fatalf("ReadFloat64: %v", err)
		}
		if got != 21.5 {
			t.Errorf("Expected 21.5, got %v", got)
		}
	})

	t.Run("string", func(t *testing.T) {
		if err := client.WriteString(ctx, "Main.label", "running"); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
		got, err := client.ReadString(ctx, "Main.label")
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		if got != "running" {
			t.Errorf("Expected %q, got %q", "running", got)
		}
	})

	t.Run("wstring", func(t *testing.T) {
		if err := client.WriteWString(ctx, "Main.caption", "Grüße"); err != nil {
			t.Fatalf("WriteWString: %v", err)
		}
		got, err := client.ReadWString(ctx, "Main.caption")
		if err != nil {
			t.Fatalf("ReadWString: %v", err)
		}
		if got != "Grüße" {
			t.Errorf("Expected %q, got %q", "Grüße", got)
		}
	})
}

func TestWriteStringTruncatesToDeclaredSize(t *testing.T) {
	client := dialClient(t, newFakePLC(t))
	ctx := context.Background()

	// Main.caption declares 20 bytes; a WSTRING that long cannot fit and
	// must come back truncated rather than overflow the buffer.
	long := "0123456789abcdefghij"
	if err := client.WriteWString(ctx, "Main.caption", long); err != nil {
		t.Fatalf("WriteWString: %v", err)
	}
	got, err := client.ReadWString(ctx, "Main.caption")
	if err != nil {
		t.Fatalf("ReadWString: %v", err)
	}
	if len(got) >= len(long) {
		t.Errorf("Expected truncated value, got %q", got)
	}
}

func TestReadTimeAndDate(t *testing.T) {
	client := dialClient(t, newFakePLC(t))
	ctx := context.Background()

	if err := client.WriteTime(ctx, "Main.counter", 1500*time.Millisecond); err != nil {
		t.Fatalf("WriteTime: %v", err)
	}
	d, err := client.ReadTime(ctx, "Main.counter")
	if err != nil {
		t.Fatalf("ReadTime: %v", err)
	}
	if d != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got %v", d)
	}

	stamp := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if err := client.WriteDate(ctx, "Main.counter", stamp); err != nil {
		t.Fatalf("WriteDate: %v", err)
	}
	date, err := client.ReadDate(ctx, "Main.counter")
	if err != nil {
		t.Fatalf("ReadDate: %v", err)
	}
	if !date.Equal(stamp) {
		t.Errorf("Expected %v, got %v", stamp, date)
	}
}
