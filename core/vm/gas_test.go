package vm

import (
	"errors"
	"testing"
)

func TestToWordSize(t *testing.T) {
	for _, tc := range []struct{ in, want uint64 }{
		{0, 0}, {1, 1}, {32, 1}, {33, 2}, {64, 2},
	} {
		if got := toWordSize(tc.in); got != tc.want {
			t.Errorf("toWordSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMemoryCost(t *testing.T) {
	tests := []struct {
		oldSize, newSize uint64
		want             uint64
		ok               bool
	}{
		{0, 0, 0, true},
		{0, 32, 3, true},
		{0, 1, 3, true},
		{32, 32, 0, true},
		{64, 32, 0, true},
		{0, 1024 * 32, 3*1024 + 1024*1024/512, true},
		{32, 64, 3, true},
		{0, MaxMemorySize, memoryFee(MaxMemorySize / 32), true},
		{0, MaxMemorySize + 1, 0, false},
	}
	for _, tt := range tests {
		got, ok := MemoryCost(tt.oldSize, tt.newSize)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MemoryCost(%d, %d) = %d, %v; want %d, %v", tt.oldSize, tt.newSize, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCallGasCap(t *testing.T) {
	tests := []struct {
		name                         string
		available, required, request uint64
		overflow                     bool
		want                         uint64
		err                          error
	}{
		{"fits", 100, 10, 50, false, 50, nil},
		{"capped", 100, 10, 200, false, 90, nil},
		{"request overflows", 100, 10, 0, true, 90, nil},
		{"cannot pay instruction", 100, 101, 0, false, 0, ErrOutOfGas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callGas(tt.available, tt.required, tt.request, tt.overflow)
			if !errors.Is(err, tt.err) || got != tt.want {
				t.Fatalf("callGas = %d, %v; want %d, %v", got, err, tt.want, tt.err)
			}
		})
	}
}
