package pattern

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"stereogram/pkg/fixed"
)

// newTestPattern creates a pattern where every pixel encodes its position
func newTestPattern(t *testing.T, width, height int) *Pattern {
	t.Helper()
	p, err := New(width, height)
	if err != nil {
		t.Fatalf("Failed to create pattern: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: uint8(x + y), A: 255})
		}
	}
	return p
}

func TestNewIsGray(t *testing.T) {
	p, err := New(3, 2)
	if err != nil {
		t.Fatalf("Failed to create pattern: %v", err)
	}
	if len(p.Pix) != 3*2*BytesPerPixel {
		t.Fatalf("Expected %d bytes, got %d", 3*2*BytesPerPixel, len(p.Pix))
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if got := p.At(x, y); got != Gray {
				t.Errorf("Pixel (%d,%d): Expected %v, got %v", x, y, Gray, got)
			}
		}
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 1}, {1, 0}, {-2, 3}} {
		if _, err := New(dims[0], dims[1]); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("New(%d, %d): Expected ErrInvalidDimensions, got %v", dims[0], dims[1], err)
		}
	}
}

func TestRowAndPixelAddressing(t *testing.T) {
	p := newTestPattern(t, 5, 4)

	row := p.Row(2)
	if len(row) != 5*BytesPerPixel {
		t.Fatalf("Expected row length %d, got %d", 5*BytesPerPixel, len(row))
	}
	if row[3*BytesPerPixel] != 30 || row[3*BytesPerPixel+1] != 20 {
		t.Errorf("Expected row 2 column 3 to be (30,20), got (%d,%d)", row[12], row[13])
	}

	px := p.Pixel(4, 3)
	px[0] = 1
	if p.At(4, 3).R != 1 {
		t.Error("Expected Pixel to alias pattern storage")
	}
}

func TestRGBAViewSharesStorage(t *testing.T) {
	p := newTestPattern(t, 4, 4)
	img := p.RGBA()

	img.SetRGBA(1, 2, color.RGBA{R: 9, G: 8, B: 7, A: 6})
	if got := p.At(1, 2); got != (color.RGBA{R: 9, G: 8, B: 7, A: 6}) {
		t.Errorf("Expected write through image view, got %v", got)
	}
}

func TestFromImageAndClone(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	src.SetRGBA(11, 11, color.RGBA{R: 200, A: 255})

	p, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if p.Width != 3 || p.Height != 2 {
		t.Fatalf("Expected 3x2, got %dx%d", p.Width, p.Height)
	}
	if p.At(1, 1).R != 200 {
		t.Errorf("Expected translated pixel, got %v", p.At(1, 1))
	}

	c := p.Clone()
	c.Pix[0] = 77
	if p.Pix[0] == 77 {
		t.Error("Expected clone to have independent storage")
	}
}

func TestStats(t *testing.T) {
	p, _ := New(2, 2)
	p.Set(0, 0, color.RGBA{R: 0, A: 255})
	p.Set(1, 0, color.RGBA{R: 100, A: 255})
	p.Set(0, 1, color.RGBA{R: 200, A: 255})
	p.Set(1, 1, color.RGBA{R: 100, A: 255})

	s := p.Stats()
	if s[0].Mean != 100 {
		t.Errorf("Expected red mean 100, got %f", s[0].Mean)
	}
	if want := math.Sqrt(20000.0 / 3); math.Abs(s[0].StdDev-want) > 1e-9 {
		t.Errorf("Expected red stddev %f, got %f", want, s[0].StdDev)
	}
	if s[0].Min != 0 || s[0].Max != 200 {
		t.Errorf("Expected red range [0,200], got [%f,%f]", s[0].Min, s[0].Max)
	}
	if s[3].StdDev != 0 || s[3].Mean != 255 {
		t.Errorf("Expected constant alpha, got %+v", s[3])
	}
}

func TestBlend2(t *testing.T) {
	row := []uint8{
		0, 0, 0, 255,
		100, 200, 50, 255,
		255, 255, 255, 255,
	}
	dst := make([]uint8, 4)

	Blend2(dst, row, fixed.ToFixed(1), 3)
	if dst[0] != 100 || dst[1] != 200 || dst[2] != 50 || dst[3] != 255 {
		t.Errorf("Expected exact sample at integral position, got %v", dst)
	}

	Blend2(dst, row, fixed.ToFixed(0)+fixed.One/2, 3)
	if dst[0] != 50 || dst[1] != 100 || dst[2] != 25 {
		t.Errorf("Expected midpoint blend, got %v", dst)
	}

	// Between the last column and the first one
	Blend2(dst, row, fixed.ToFixed(2)+fixed.One/2, 3)
	if dst[0] != 127 {
		t.Errorf("Expected wraparound blend 127, got %d", dst[0])
	}

	// Negative positions wrap as well
	Blend2(dst, row, fixed.ToFixed(-2), 3)
	if dst[0] != 100 {
		t.Errorf("Expected column -2 to wrap to column 1, got %v", dst)
	}
}

func TestRowsWraparound(t *testing.T) {
	p := newTestPattern(t, 2, 3)

	r1, r2 := Rows(p.Pix, fixed.ToFixed(2), p.Width, p.Height)
	if r1[1] != 20 || r2[1] != 0 {
		t.Errorf("Expected rows 2 and 0, got rows with G=%d and G=%d", r1[1], r2[1])
	}

	r1, r2 = Rows(p.Pix, fixed.ToFixed(-1), p.Width, p.Height)
	if r1[1] != 20 || r2[1] != 0 {
		t.Errorf("Expected row -1 to wrap to 2, got rows with G=%d and G=%d", r1[1], r2[1])
	}
}

func TestBlend4(t *testing.T) {
	p := newTestPattern(t, 4, 4)
	dst := make([]uint8, 4)

	r1, r2 := Rows(p.Pix, fixed.ToFixed(1)+fixed.One/2, p.Width, p.Height)
	Blend4(dst, r1, r2, fixed.ToFixed(2), fixed.ToFixed(1)+fixed.One/2, p.Width)

	if dst[0] != 20 {
		t.Errorf("Expected R=20, got %d", dst[0])
	}
	if dst[1] != 15 {
		t.Errorf("Expected G=15, got %d", dst[1])
	}
}
