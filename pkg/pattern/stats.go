package pattern

import "gonum.org/v1/gonum/stat"

// ChannelStats describes the distribution of one colour channel.
type ChannelStats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Stats holds per channel statistics in R, G, B, A order.
type Stats [BytesPerPixel]ChannelStats

// Stats computes the mean, standard deviation and range of every channel.
func (p *Pattern) Stats() Stats {
	var s Stats
	n := p.Width * p.Height
	values := make([]float64, n)

	for c := 0; c < BytesPerPixel; c++ {
		lo, hi := 255.0, 0.0
		for i := 0; i < n; i++ {
			v := float64(p.Pix[i*BytesPerPixel+c])
			values[i] = v
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}

		mean, std := stat.MeanStdDev(values, nil)
		if n < 2 {
			std = 0
		}
		s[c] = ChannelStats{Mean: mean, StdDev: std, Min: lo, Max: hi}
	}

	return s
}
