package effect

import (
	"fmt"

	"stereogram/pkg/fixed"
	"stereogram/pkg/pattern"
)

// luminance brightens and darkens pixels along a sum of sine waves.
type luminance struct {
	strengths  []int
	offsets    []int
	components Component
	sinX       *fixed.SinTable
	sinY       *fixed.SinTable
}

// NewLuminance creates an effect that overlays len(strengths) luminance
// waves on p. Wave i has a wave length of the pattern dimension divided by
// i+1 and a strength of strengths[i]; only the channels in components are
// changed.
//
// Every Apply moves wave i by i steps, so wave 0 stands still and higher
// waves travel faster.
func NewLuminance(p *pattern.Pattern, strengths []float64, components Component, opts ...Option) (Effect, error) {
	if p == nil {
		return nil, fmt.Errorf("luminance: %w", ErrNilPattern)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	k := &luminance{
		strengths:  make([]int, len(strengths)),
		offsets:    make([]int, len(strengths)),
		components: components,
		sinX:       fixed.NewSinTable(p.Width),
		sinY:       fixed.NewSinTable(p.Height),
	}
	for i, s := range strengths {
		k.strengths[i] = fixed.FromFloat(s)
		k.offsets[i] = o.rng.Intn(p.Width * p.Height)
	}

	return newDispatch("luminance", p, k, o.threads), nil
}

func (k *luminance) Pixel(px []uint8, x, y int) {
	v := 0
	for i, s := range k.strengths {
		n := i + 1
		v += fixed.Mul(s, k.sinX.At(k.offsets[i]+x*n)+k.sinY.At(k.offsets[i]+y*n))
	}

	for c := 0; c < pattern.BytesPerPixel; c++ {
		if k.components&(1<<c) != 0 {
			px[c] = uint8(fixed.Clamp(int(px[c]) + fixed.Mul(int(px[c]), v)))
		}
	}
}

func (k *luminance) Update(int) {
	for i := range k.offsets {
		k.offsets[i] += i
	}
}

func (k *luminance) Release() {
	k.sinX.Release()
	k.sinY.Release()
	k.strengths, k.offsets = nil, nil
}
