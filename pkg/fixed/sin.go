package fixed

import "math"

// SinTable holds one full period of precalculated fixed point sine values.
type SinTable struct {
	values []int
}

// NewSinTable samples count values of sin(2*pi*i/count). A count below 1
// is treated as 1.
func NewSinTable(count int) *SinTable {
	if count < 1 {
		count = 1
	}

	t := &SinTable{values: make([]int, count)}
	for i := range t.values {
		t.values[i] = FromFloat(math.Sin(2 * math.Pi * float64(i) / float64(count)))
	}
	return t
}

// Len returns the number of samples in one period.
func (t *SinTable) Len() int {
	return len(t.values)
}

// At returns sin(2*pi*x/Len()) for any x, including negative ones.
func (t *SinTable) At(x int) int {
	i := x % len(t.values)
	if i < 0 {
		i += len(t.values)
	}
	return t.values[i]
}

// Release drops the sample storage. The table must not be used afterwards.
func (t *SinTable) Release() {
	t.values = nil
}
