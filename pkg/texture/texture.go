// Package texture exports rendered patterns to an external graphics layer.
//
// It never touches a graphics context. It hands out raw RGBA bytes with
// their dimensions, the scalar uniforms a stereogram shader expects, and
// the selected depth channel packed as a single channel lookup buffer.
package texture

import (
	"errors"
	"fmt"

	"stereogram/pkg/pattern"
)

// Names of the uniforms a stereogram shader program binds.
const (
	UniformStrength = "strength"
	UniformPattern  = "pattern"
	UniformZBuffer  = "zbuffer"
)

// ErrChannel is returned when a lookup asks for a channel the z-buffer does
// not have.
var ErrChannel = errors.New("texture: channel out of range")

// Texture is an RGBA8 upload: Width*Height*4 bytes, rows top to bottom
// without padding.
type Texture struct {
	Pix    []uint8
	Width  int
	Height int
}

// FromPattern returns a texture sharing p's storage.
func FromPattern(p *pattern.Pattern) Texture {
	return Texture{Pix: p.Pix, Width: p.Width, Height: p.Height}
}

// Uniforms are the values bound to a stereogram shader program.
type Uniforms struct {
	// Strength is the displacement of the deepest level, as passed to
	// stereo.New.
	Strength float32

	// PatternUnit is the texture unit holding the background pattern.
	PatternUnit int32

	// ZBufferUnit is the texture unit holding the depth lookup.
	ZBufferUnit int32
}

// Values returns the uniforms keyed by their shader names.
func (u Uniforms) Values() map[string]any {
	return map[string]any{
		UniformStrength: u.Strength,
		UniformPattern:  u.PatternUnit,
		UniformZBuffer:  u.ZBufferUnit,
	}
}

// ChannelLookup copies channel of every z-buffer element into a tightly
// packed Width*Height buffer, top row first, whatever the z-buffer's stride.
func ChannelLookup(zb *pattern.ZBuffer, channel int) ([]uint8, error) {
	if channel < 0 || channel >= zb.Channels {
		return nil, fmt.Errorf("%w: %d of %d", ErrChannel, channel, zb.Channels)
	}

	out := make([]uint8, zb.Width*zb.Height)
	for y := 0; y < zb.Height; y++ {
		row := zb.Row(y)
		dst := out[y*zb.Width : (y+1)*zb.Width]
		for x := range dst {
			dst[x] = row[x*zb.Channels+channel]
		}
	}
	return out, nil
}
