package conv

import (
	"math"
	"testing"
)

func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic, got none", name)
		}
	}()
	f()
}

func TestIntToUint32(t *testing.T) {
	if got := IntToUint32(0); got != 0 {
		t.Errorf("IntToUint32(0) = %d, want 0", got)
	}
	if got := IntToUint32(math.MaxUint32); got != math.MaxUint32 {
		t.Errorf("IntToUint32(MaxUint32) = %d, want %d", got, uint32(math.MaxUint32))
	}
	mustPanic(t, "IntToUint32(-1)", func() { IntToUint32(-1) })
}

func TestIntToUint16(t *testing.T) {
	if got := IntToUint16(0); got != 0 {
		t.Errorf("IntToUint16(0) = %d, want 0", got)
	}
	if got := IntToUint16(math.MaxUint16); got != math.MaxUint16 {
		t.Errorf("IntToUint16(MaxUint16) = %d, want %d", got, uint16(math.MaxUint16))
	}
	mustPanic(t, "IntToUint16(-1)", func() { IntToUint16(-1) })
	mustPanic(t, "IntToUint16(MaxUint16+1)", func() { IntToUint16(math.MaxUint16 + 1) })
}

func TestUint64ToUint32(t *testing.T) {
	if got := Uint64ToUint32(42); got != 42 {
		t.Errorf("Uint64ToUint32(42) = %d, want 42", got)
	}
	mustPanic(t, "Uint64ToUint32(overflow)", func() { Uint64ToUint32(math.MaxUint32 + 1) })
}

func TestUint64ToUint16(t *testing.T) {
	if got := Uint64ToUint16(42); got != 42 {
		t.Errorf("Uint64ToUint16(42) = %d, want 42", got)
	}
	mustPanic(t, "Uint64ToUint16(overflow)", func() { Uint64ToUint16(math.MaxUint16 + 1) })
}

func TestIntToInt32(t *testing.T) {
	if got := IntToInt32(-5); got != -5 {
		t.Errorf("IntToInt32(-5) = %d, want -5", got)
	}
	if got := IntToInt32(math.MaxInt32); got != math.MaxInt32 {
		t.Errorf("IntToInt32(MaxInt32) = %d, want %d", got, int32(math.MaxInt32))
	}
	mustPanic(t, "IntToInt32(MaxInt32+1)", func() { IntToInt32(math.MaxInt32 + 1) })
	mustPanic(t, "IntToInt32(MinInt32-1)", func() { IntToInt32(math.MinInt32 - 1) })
}
