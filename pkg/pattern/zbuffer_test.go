package pattern

import (
	"errors"
	"testing"
)

func TestNewZBufferAlignment(t *testing.T) {
	z, err := NewZBuffer(3, 2, 1)
	if err != nil {
		t.Fatalf("Failed to create zbuffer: %v", err)
	}
	if z.Stride%rowAlign != 0 {
		t.Errorf("Expected stride aligned to %d, got %d", rowAlign, z.Stride)
	}
	if z.Stride < 3 {
		t.Errorf("Expected stride at least 3, got %d", z.Stride)
	}
	if !z.Owns() {
		t.Error("Expected allocated buffer to own its data")
	}

	z.SetDepth(2, 1, 0, 42)
	if z.Depth(2, 1, 0) != 42 {
		t.Errorf("Expected 42, got %d", z.Depth(2, 1, 0))
	}

	z.Free()
	if z.data != nil {
		t.Error("Expected owned data to be released")
	}
}

func TestNewZBufferFromDataNegativeStride(t *testing.T) {
	// Two rows of 2 elements with 2 channels, stored bottom-up
	data := []uint8{
		30, 31, 40, 41, // row 1
		10, 11, 20, 21, // row 0
	}
	z, err := NewZBufferFromData(2, 2, -4, 2, data, false)
	if err != nil {
		t.Fatalf("Failed to wrap data: %v", err)
	}

	tests := []struct {
		x, y, channel int
		want          uint8
	}{
		{0, 0, 0, 10},
		{1, 0, 1, 21},
		{0, 1, 1, 31},
		{1, 1, 0, 40},
	}
	for _, tt := range tests {
		if got := z.Depth(tt.x, tt.y, tt.channel); got != tt.want {
			t.Errorf("Depth(%d,%d,%d): Expected %d, got %d", tt.x, tt.y, tt.channel, tt.want, got)
		}
	}

	if row := z.Row(1); row[0] != 30 || len(row) != 4 {
		t.Errorf("Expected row 1 to start with 30, got %v", row)
	}

	z.Free()
	if z.Depth(0, 0, 0) != 10 {
		t.Error("Expected borrowed data to survive Free")
	}
}

func TestNewZBufferFromDataValidation(t *testing.T) {
	if _, err := NewZBufferFromData(4, 2, 3, 1, make([]uint8, 8), false); !errors.Is(err, ErrInvalidStride) {
		t.Errorf("Expected ErrInvalidStride, got %v", err)
	}
	if _, err := NewZBufferFromData(4, 2, -3, 1, make([]uint8, 8), false); !errors.Is(err, ErrInvalidStride) {
		t.Errorf("Expected ErrInvalidStride for negative stride, got %v", err)
	}
	if _, err := NewZBufferFromData(4, 3, 4, 1, make([]uint8, 8), false); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
	if _, err := NewZBufferFromData(0, 3, 4, 1, make([]uint8, 8), false); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
	// The last row need not be padded to the full stride
	if _, err := NewZBufferFromData(4, 2, 6, 1, make([]uint8, 10), false); err != nil {
		t.Errorf("Expected unpadded last row to be accepted, got %v", err)
	}
}

func TestNewZBufferFromPatternIsView(t *testing.T) {
	p, _ := New(3, 3)
	z := NewZBufferFromPattern(p)

	if z.Channels != 4 || z.Stride != p.Stride() {
		t.Fatalf("Expected 4 channels and stride %d, got %d and %d", p.Stride(), z.Channels, z.Stride)
	}

	p.Pixel(2, 1)[2] = 99
	if z.Depth(2, 1, 2) != 99 {
		t.Errorf("Expected view to see pattern writes, got %d", z.Depth(2, 1, 2))
	}

	z.Free()
	if p.Pix == nil || z.Depth(2, 1, 2) != 99 {
		t.Error("Expected pattern storage to survive freeing the view")
	}
}
