package pattern

import "stereogram/pkg/fixed"

// Rows returns row FromFixed(y) of pix and the row below it. Both indices
// wrap around height, so the row after the last one is the first.
func Rows(pix []uint8, y, width, height int) (row1, row2 []uint8) {
	i := fixed.FromFixed(y) % height
	if i < 0 {
		i += height
	}
	j := i + 1
	if j == height {
		j = 0
	}

	stride := width * BytesPerPixel
	return pix[i*stride : (i+1)*stride], pix[j*stride : (j+1)*stride]
}

// Blend2 writes to dst the linear interpolation of row at the fixed point
// position x. The column index wraps around width.
//
// dst may alias one of the two source pixels.
func Blend2(dst, row []uint8, x, width int) {
	x1 := fixed.FromFixed(x) % width
	if x1 < 0 {
		x1 += width
	}
	x2 := x1 + 1
	if x2 == width {
		x2 = 0
	}

	a1, a2 := fixed.IFrac(x), fixed.Frac(x)
	p1 := row[x1*BytesPerPixel : x1*BytesPerPixel+BytesPerPixel]
	p2 := row[x2*BytesPerPixel : x2*BytesPerPixel+BytesPerPixel]

	for c := 0; c < BytesPerPixel; c++ {
		dst[c] = uint8(fixed.FromFixed(int(p1[c])*a1 + int(p2[c])*a2))
	}
}

// Blend4 writes to dst the bilinear interpolation of row1 and row2 at the
// fixed point position (x, y). Only the fractional part of y is used to
// weight the two rows.
func Blend4(dst, row1, row2 []uint8, x, y, width int) {
	var p1, p2 [BytesPerPixel]uint8
	Blend2(p1[:], row1, x, width)
	Blend2(p2[:], row2, x, width)

	a1, a2 := fixed.IFrac(y), fixed.Frac(y)
	for c := 0; c < BytesPerPixel; c++ {
		dst[c] = uint8(fixed.FromFixed(int(p1[c])*a1 + int(p2[c])*a2))
	}
}
