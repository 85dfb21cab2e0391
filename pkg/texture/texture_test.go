package texture

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"stereogram/pkg/codec"
	"stereogram/pkg/pattern"
)

// createTestPattern creates a pattern whose pixels depend on the seed
func createTestPattern(t *testing.T, width, height, seed int) *pattern.Pattern {
	t.Helper()
	p, err := pattern.New(width, height)
	if err != nil {
		t.Fatalf("Failed to create pattern: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.Set(x, y, color.RGBA{R: uint8(x + seed), G: uint8(y * seed), B: uint8(seed), A: 255})
		}
	}
	return p
}

func TestFromPatternSharesPixels(t *testing.T) {
	p := createTestPattern(t, 4, 3, 1)
	tex := FromPattern(p)

	if tex.Width != 4 || tex.Height != 3 || len(tex.Pix) != 4*3*4 {
		t.Fatalf("Unexpected texture %dx%d with %d bytes", tex.Width, tex.Height, len(tex.Pix))
	}
	p.Pix[5] = 77
	if tex.Pix[5] != 77 {
		t.Error("Expected texture to share the pattern's pixels")
	}
}

func TestUniformValues(t *testing.T) {
	u := Uniforms{Strength: 2.5, PatternUnit: 0, ZBufferUnit: 1}
	v := u.Values()

	if v[UniformStrength] != float32(2.5) {
		t.Errorf("Expected strength 2.5, got %v", v[UniformStrength])
	}
	if v[UniformZBuffer] != int32(1) || v[UniformPattern] != int32(0) {
		t.Errorf("Unexpected sampler units %v and %v", v[UniformPattern], v[UniformZBuffer])
	}
}

func TestChannelLookup(t *testing.T) {
	// 3x2 elements of 2 channels, stored bottom-up with padding
	data := []uint8{
		10, 11, 12, 13, 14, 15, 0, 0, // row 1
		1, 2, 3, 4, 5, 6, 0, 0, // row 0
	}
	zb, err := pattern.NewZBufferFromData(3, 2, -8, 2, data, false)
	if err != nil {
		t.Fatalf("Failed to wrap data: %v", err)
	}

	got, err := ChannelLookup(zb, 1)
	if err != nil {
		t.Fatalf("ChannelLookup failed: %v", err)
	}
	want := []uint8{2, 4, 6, 11, 13, 15}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if _, err := ChannelLookup(zb, 2); !errors.Is(err, ErrChannel) {
		t.Errorf("Expected ErrChannel, got %v", err)
	}
}

func TestSaveFrameSequence(t *testing.T) {
	dir := t.TempDir()
	frames := []*pattern.Pattern{
		createTestPattern(t, 5, 5, 1),
		createTestPattern(t, 5, 5, 2),
		createTestPattern(t, 5, 5, 3),
	}

	if err := SaveFrameSequence(frames, dir, "frame", codec.PNG); err != nil {
		t.Fatalf("SaveFrameSequence failed: %v", err)
	}

	for i, want := range frames {
		path := filepath.Join(dir, FrameName("frame", i, codec.PNG))
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("Expected %s to exist: %v", path, err)
		}
		got, err := codec.DecodeFile(path)
		if err != nil {
			t.Fatalf("Failed to read frame %d: %v", i, err)
		}
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("Frame %d differs after saving", i)
		}
	}

	if name := FrameName("out", 7, codec.JPEG); name != "out_007.jpg" {
		t.Errorf("Expected out_007.jpg, got %s", name)
	}
}

func TestFrameStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFrameWriter(&buf, 6, 4)
	if err != nil {
		t.Fatalf("NewFrameWriter failed: %v", err)
	}

	frames := []*pattern.Pattern{
		createTestPattern(t, 6, 4, 1),
		createTestPattern(t, 6, 4, 9),
	}
	for _, p := range frames {
		if err := fw.WriteFrame(p); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	if err := fw.WriteFrame(createTestPattern(t, 5, 4, 1)); !errors.Is(err, ErrFrameSize) {
		t.Errorf("Expected ErrFrameSize, got %v", err)
	}
	if fw.Frames() != 2 {
		t.Errorf("Expected 2 frames, got %d", fw.Frames())
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := ReadFrames(&buf)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("Expected %d frames, got %d", len(frames), len(got))
	}
	for i := range frames {
		if !bytes.Equal(got[i].Pix, frames[i].Pix) {
			t.Errorf("Frame %d differs after round trip", i)
		}
	}
}

func TestReadFramesRejectsGarbage(t *testing.T) {
	if _, err := ReadFrames(bytes.NewReader([]byte("definitely not zstd"))); err == nil {
		t.Error("Expected error for garbage input")
	}
}
