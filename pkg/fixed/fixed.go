// Package fixed provides the scaled-integer arithmetic used by the pixel
// kernels.
//
// A fixed point value is an int holding real*2^Bits. All kernels work on
// these values only, so the same inputs produce the same pixels on every
// run regardless of how rows are scheduled.
package fixed

// Bits is the number of bits reserved for the fractional part.
const Bits = 10

// One is the fixed point representation of 1.
const One = 1 << Bits

// Lim is the largest fractional part, i.e. lim x for x -> 1.
const Lim = One - 1

// ToFixed converts an integer to fixed point.
func ToFixed(c int) int {
	return c << Bits
}

// FromFixed returns the integral part of c. The shift is arithmetic, so
// negative values are floored and the sign is kept.
func FromFixed(c int) int {
	return c >> Bits
}

// FromFloat converts a real value to fixed point, truncating towards zero.
func FromFloat(f float64) int {
	return int(f * One)
}

// ToFloat converts a fixed point value back to a real value.
func ToFloat(c int) float64 {
	return float64(c) / One
}

// Mul multiplies c by the fixed point value v. If c is an integer the
// result is an integer; if c is fixed point the result is fixed point.
func Mul(c, v int) int {
	return FromFixed(c * v)
}

// Frac returns the fractional part of c. It is never negative.
func Frac(c int) int {
	return c & Lim
}

// IFrac returns 1 - Frac(c). Frac(c) and IFrac(c) always sum to One, so
// they can be used directly as a pair of interpolation weights.
func IFrac(c int) int {
	return One - Frac(c)
}

// Clamp restricts c to a colour channel value in [0, 255].
func Clamp(c int) int {
	switch {
	case c < 0:
		return 0
	case c > 255:
		return 255
	default:
		return c
	}
}
