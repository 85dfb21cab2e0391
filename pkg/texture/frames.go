package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"stereogram/pkg/codec"
	"stereogram/pkg/pattern"
)

// streamMagic starts every raw frame stream.
var streamMagic = [4]byte{'S', 'I', 'R', 'D'}

var (
	// ErrFrameSize is returned when a frame does not match the stream size.
	ErrFrameSize = errors.New("texture: frame size differs from stream")

	// ErrBadStream is returned when a stream does not start with the
	// expected header.
	ErrBadStream = errors.New("texture: not a frame stream")
)

// FrameName returns the file name of frame index in a sequence.
func FrameName(prefix string, index int, f codec.Format) string {
	return fmt.Sprintf("%s_%03d%s", prefix, index, f.Ext())
}

// SaveFrame writes p as frame index of a sequence in dir.
func SaveFrame(dir, prefix string, index int, p *pattern.Pattern, f codec.Format) (string, error) {
	path := filepath.Join(dir, FrameName(prefix, index, f))
	if err := codec.EncodeFile(path, p); err != nil {
		return "", err
	}
	return path, nil
}

// SaveFrameSequence writes every frame to dir as prefix_000, prefix_001, ...
func SaveFrameSequence(frames []*pattern.Pattern, dir, prefix string, f codec.Format) error {
	for i, p := range frames {
		if _, err := SaveFrame(dir, prefix, i, p, f); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// FrameWriter writes a zstd compressed stream of raw RGBA frames of one
// size, for inspecting an animation outside the tool. It is an export
// only: nothing in the pipeline reads it back. The stream is a header of
// the magic "SIRD" and the little endian uint32 width and height, followed
// by the frames' pixels back to back.
type FrameWriter struct {
	enc    *zstd.Encoder
	width  int
	height int
	frames int
	closed bool
}

// NewFrameWriter starts a stream of width x height frames on w.
func NewFrameWriter(w io.Writer, width, height int) (*FrameWriter, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create frame encoder: %w", err)
	}

	header := struct {
		Magic         [4]byte
		Width, Height uint32
	}{streamMagic, uint32(width), uint32(height)}
	if err := binary.Write(enc, binary.LittleEndian, header); err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to write stream header: %w", err)
	}

	return &FrameWriter{enc: enc, width: width, height: height}, nil
}

// WriteFrame appends p to the stream.
func (fw *FrameWriter) WriteFrame(p *pattern.Pattern) error {
	if p.Width != fw.width || p.Height != fw.height {
		return fmt.Errorf("%w: %dx%d, stream is %dx%d", ErrFrameSize, p.Width, p.Height, fw.width, fw.height)
	}
	if _, err := fw.enc.Write(p.Pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", fw.frames, err)
	}
	fw.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (fw *FrameWriter) Frames() int {
	return fw.frames
}

// Close flushes the stream. It does not close the underlying writer and
// may be called more than once.
func (fw *FrameWriter) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true
	return fw.enc.Close()
}

// ReadFrames decodes a stream written by FrameWriter.
func ReadFrames(r io.Reader) ([]*pattern.Pattern, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame decoder: %w", err)
	}
	defer dec.Close()

	var header struct {
		Magic         [4]byte
		Width, Height uint32
	}
	if err := binary.Read(dec, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	if header.Magic != streamMagic {
		return nil, ErrBadStream
	}

	var frames []*pattern.Pattern
	for {
		p, err := pattern.New(int(header.Width), int(header.Height))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadStream, err)
		}
		if _, err := io.ReadFull(dec, p.Pix); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, fmt.Errorf("failed to read frame %d: %w", len(frames), err)
		}
		frames = append(frames, p)
	}
}
