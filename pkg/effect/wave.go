package effect

import (
	"errors"
	"fmt"

	"stereogram/pkg/fixed"
	"stereogram/pkg/pattern"
)

var (
	// ErrNilSource is returned when a wave effect has nothing to resample.
	ErrNilSource = errors.New("effect: nil source pattern")

	// ErrSourceIsTarget is returned when a wave effect would resample the
	// pattern it is writing.
	ErrSourceIsTarget = errors.New("effect: source and target are the same pattern")

	// ErrStrengthCount is returned when wave strengths do not come in
	// horizontal/vertical pairs.
	ErrStrengthCount = errors.New("effect: wave strengths must come in pairs")
)

// wave renders a distorted copy of source. Element 2i of strengths and
// offsets belongs to the horizontal displacement of wave i, element 2i+1 to
// the vertical one.
type wave struct {
	strengths []int
	offsets   []int
	source    *pattern.Pattern
	sinH      *fixed.SinTable
	sinV      *fixed.SinTable
}

// NewWave creates an effect that draws source onto p, displaced by
// len(strengths)/2 travelling waves. strengths holds a horizontal and a
// vertical strength, in pixels, per wave. source is resampled with
// wraparound at its own dimensions and is not owned by the effect.
//
// Wave i moves one step every i+1 calls to Apply.
func NewWave(p *pattern.Pattern, strengths []float64, source *pattern.Pattern, opts ...Option) (Effect, error) {
	switch {
	case p == nil:
		return nil, fmt.Errorf("wave: %w", ErrNilPattern)
	case source == nil:
		return nil, fmt.Errorf("wave: %w", ErrNilSource)
	case source == p:
		return nil, fmt.Errorf("wave: %w", ErrSourceIsTarget)
	case len(strengths)%2 != 0:
		return nil, fmt.Errorf("wave: %d strengths: %w", len(strengths), ErrStrengthCount)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	k := &wave{
		strengths: make([]int, len(strengths)),
		offsets:   make([]int, len(strengths)),
		source:    source,
		sinH:      fixed.NewSinTable(p.Width),
		sinV:      fixed.NewSinTable(p.Height),
	}
	for i, s := range strengths {
		k.strengths[i] = fixed.FromFloat(s)
		k.offsets[i] = o.rng.Intn(p.Width * p.Height)
	}

	return newDispatch("wave", p, k, o.threads), nil
}

// Pixel displaces horizontally by a wave running down the rows and
// vertically by one running along the columns. Crossing the axes keeps
// the distortion from lining up into axis aligned bands.
func (k *wave) Pixel(px []uint8, x, y int) {
	sx, sy := fixed.ToFixed(x), fixed.ToFixed(y)
	for i := 0; i < len(k.strengths); i += 2 {
		n := i/2 + 1
		sx += fixed.Mul(k.strengths[i], k.sinV.At(y*n+k.offsets[i]))
		sy += fixed.Mul(k.strengths[i+1], k.sinH.At(x*n+k.offsets[i+1]))
	}

	src := k.source
	row1, row2 := pattern.Rows(src.Pix, sy, src.Width, src.Height)
	pattern.Blend4(px, row1, row2, sx, sy, src.Width)
}

func (k *wave) Update(iteration int) {
	for i := 0; i < len(k.offsets); i += 2 {
		if iteration%(i/2+1) == 0 {
			k.offsets[i]++
			k.offsets[i+1]++
		}
	}
}

func (k *wave) Release() {
	k.sinH.Release()
	k.sinV.Release()
	k.strengths, k.offsets = nil, nil
	k.source = nil
}
