// Package render drives the complete stereogram pipeline: it loads a
// background tile and a depth map, animates the background with effects
// and synthesizes one stereogram per frame.
package render

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"stereogram/internal/logging"
	"stereogram/pkg/codec"
	"stereogram/pkg/effect"
	"stereogram/pkg/pattern"
	"stereogram/pkg/stereo"
	"stereogram/pkg/texture"
)

// Metrics summarises a finished rendering run.
type Metrics struct {
	// Width and Height of the rendered frames
	Width  int
	Height int

	// Frames is the number of frames rendered
	Frames int

	// LoadTime covers decoding, tile scaling and depth fitting
	LoadTime time.Duration

	// EffectTime is the time spent animating the background
	EffectTime time.Duration

	// SynthesisTime is the time spent in stereogram synthesis
	SynthesisTime time.Duration

	// SaveTime is the time spent encoding and writing frames
	SaveTime time.Duration

	// Output holds per channel statistics of the last frame
	Output pattern.Stats

	// FrameDelta is the mean root mean square difference between
	// consecutive frames, in 8 bit units. It is 0 for a single frame.
	FrameDelta float64
}

// Params holds the rendering parameters.
type Params struct {
	// BackgroundFile is the image tiled behind the hidden shape
	BackgroundFile string

	// DepthFile is the depth map; brighter is deeper unless Inverted
	DepthFile string

	// OutputFile is the path of the stereogram. With more than one frame
	// it becomes the prefix of a numbered sequence next to it.
	OutputFile string

	// Format of the written frames; empty derives it from OutputFile
	Format codec.Format

	// Width and Height of the output; 0 uses the depth map size
	Width  int
	Height int

	// TileWidth rescales the background tile; 0 keeps its size
	TileWidth int

	// Strength is the displacement of the deepest level in pixels
	Strength float64

	// Inverted swaps near and far
	Inverted bool

	// Channel of the depth map holding the depth
	Channel int

	// Frames is the number of frames to render; 0 renders one
	Frames int

	// Luminance holds the strengths of the luminance waves; empty disables
	// the effect
	Luminance []float64

	// LuminanceComponents selects the channels the luminance waves touch
	LuminanceComponents effect.Component

	// Wave holds horizontal/vertical strength pairs of the distortion
	// waves; empty disables the effect
	Wave []float64

	// RawStream, if set, receives every frame as a zstd compressed stream
	RawStream string

	// Threads per executor; 0 uses the default thread count
	Threads int

	// Seed makes effect phases reproducible; 0 picks a random seed
	Seed int64

	// SaveIntermediaryResults determines whether to save the prepared
	// background and depth map
	SaveIntermediaryResults bool

	// IntermediaryDir is the directory where intermediary results will be saved.
	// Only used when SaveIntermediaryResults is true.
	IntermediaryDir string
}

// Renderer runs the rendering pipeline:
// 1. Loading and scaling the background tile
// 2. Loading the depth map and fitting it to the output size
// 3. Creating the stereogram and its effects
// 4. Animating, synthesizing and saving every frame
// 5. Calculating metrics
type Renderer struct {
	params *Params

	// source is the pristine background tile effects start from
	source *pattern.Pattern

	// depthImage is the fitted depth map depth refers to
	depthImage image.Image
	depth      *pattern.ZBuffer

	image     *stereo.Image
	luminance effect.Effect
	wave      effect.Effect

	// files lists the written frames in order
	files []string

	metrics Metrics
}

// NewRenderer creates a renderer with the provided parameters.
func NewRenderer(params *Params) *Renderer {
	return &Renderer{params: params}
}

// Process runs the complete rendering pipeline. The renderer must be closed
// afterwards, whether Process succeeded or not.
func (r *Renderer) Process() error {
	log := logging.Logger()

	if r.params.SaveIntermediaryResults {
		if err := os.MkdirAll(r.params.IntermediaryDir, 0755); err != nil {
			return fmt.Errorf("failed to create intermediary directory: %w", err)
		}
	}

	format, err := r.outputFormat()
	if err != nil {
		return err
	}

	start := time.Now()

	// Step 1: Load the background tile
	log.Info("render: loading background", "file", r.params.BackgroundFile)
	if err := r.loadBackground(); err != nil {
		return fmt.Errorf("failed to load background: %w", err)
	}
	if r.params.SaveIntermediaryResults {
		if err := r.saveIntermediaryResult("01_background", r.source, 0); err != nil {
			log.Warn("render: failed to save background", "error", err)
		}
	}

	// Step 2: Load and fit the depth map
	log.Info("render: loading depth map", "file", r.params.DepthFile)
	if err := r.loadDepth(); err != nil {
		return fmt.Errorf("failed to load depth map: %w", err)
	}
	if r.params.SaveIntermediaryResults {
		p, err := pattern.FromImage(r.depthImage)
		if err == nil {
			err = r.saveIntermediaryResult("02_depth", p, 0)
		}
		if err != nil {
			log.Warn("render: failed to save depth map", "error", err)
		}
	}

	r.metrics.LoadTime = time.Since(start)

	// Step 3: Create the stereogram and its effects
	if err := r.setup(); err != nil {
		return err
	}

	// Step 4: Render every frame
	frames := max(r.params.Frames, 1)
	log.Info("render: rendering", "frames", frames,
		"width", r.metrics.Width, "height", r.metrics.Height)
	if err := r.renderFrames(frames, format); err != nil {
		return err
	}

	// Step 5: Calculate metrics
	r.metrics.Output = r.image.Output().Stats()
	return nil
}

// outputFormat returns the configured format, falling back to the output
// file's extension.
func (r *Renderer) outputFormat() (codec.Format, error) {
	if r.params.Format != "" {
		return codec.ParseFormat(string(r.params.Format))
	}
	return codec.FormatFromPath(r.params.OutputFile)
}

func (r *Renderer) loadBackground() error {
	tile, err := codec.DecodeFile(r.params.BackgroundFile)
	if err != nil {
		return err
	}

	tile, err = codec.ScaleTile(tile, r.params.TileWidth)
	if err != nil {
		return fmt.Errorf("failed to scale tile: %w", err)
	}

	r.source = tile
	return nil
}

func (r *Renderer) loadDepth() error {
	file, err := os.Open(r.params.DepthFile)
	if err != nil {
		return err
	}
	defer file.Close()

	img, err := codec.DecodeImage(file)
	if err != nil {
		return err
	}

	b := img.Bounds()
	width, height := r.params.Width, r.params.Height
	if width == 0 {
		width = b.Dx()
	}
	if height == 0 {
		height = b.Dy()
	}

	r.depthImage = codec.FitDepth(img, width, height)
	r.depth, err = codec.DepthFromImage(r.depthImage)
	if err != nil {
		return err
	}

	r.metrics.Width, r.metrics.Height = width, height
	return nil
}

func (r *Renderer) setup() error {
	p := r.params

	img, err := stereo.New(r.metrics.Width, r.metrics.Height, r.source.Clone(),
		p.Strength, p.Inverted, stereo.WithThreads(p.Threads))
	if err != nil {
		return fmt.Errorf("failed to create stereogram: %w", err)
	}
	r.image = img

	opts := []effect.Option{effect.WithThreads(p.Threads)}
	if p.Seed != 0 {
		opts = append(opts, effect.WithSeed(p.Seed))
	}

	if len(p.Wave) > 0 {
		r.wave, err = effect.NewWave(img.Background(), p.Wave, r.source, opts...)
		if err != nil {
			return fmt.Errorf("failed to create wave effect: %w", err)
		}
	}
	if len(p.Luminance) > 0 {
		r.luminance, err = effect.NewLuminance(img.Background(), p.Luminance, p.LuminanceComponents, opts...)
		if err != nil {
			return fmt.Errorf("failed to create luminance effect: %w", err)
		}
	}
	return nil
}

func (r *Renderer) renderFrames(frames int, format codec.Format) (err error) {
	var stream *texture.FrameWriter
	if r.params.RawStream != "" {
		file, createErr := os.Create(r.params.RawStream)
		if createErr != nil {
			return fmt.Errorf("failed to create raw stream: %w", createErr)
		}
		defer func() {
			err = closeJoin(err, file, "raw stream")
		}()

		stream, err = texture.NewFrameWriter(file, r.metrics.Width, r.metrics.Height)
		if err != nil {
			return err
		}
		defer stream.Close()
	}

	var previous, current []float64
	var delta float64

	for i := 0; i < frames; i++ {
		t := time.Now()
		if err := r.animate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		r.metrics.EffectTime += time.Since(t)

		t = time.Now()
		if err := r.image.Apply(r.depth, r.params.Channel); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		r.metrics.SynthesisTime += time.Since(t)

		t = time.Now()
		out := r.image.Output()
		path, err := r.saveFrame(i, frames, format)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		r.files = append(r.files, path)
		if stream != nil {
			if err := stream.WriteFrame(out); err != nil {
				return err
			}
		}
		r.metrics.SaveTime += time.Since(t)

		if frames > 1 {
			current = toFloat(out.Pix, current)
			if previous != nil {
				delta += floats.Distance(previous, current, 2) / math.Sqrt(float64(len(current)))
			}
			previous, current = current, previous
		}

		r.metrics.Frames++
		logging.Logger().Debug("render: frame done", "index", i, "file", path)
	}

	if frames > 1 {
		r.metrics.FrameDelta = delta / float64(frames-1)
	}

	if stream != nil {
		return stream.Close()
	}
	return nil
}

// animate redraws the background for the next frame. The wave effect
// resamples the pristine tile; without it the tile is copied back so the
// luminance waves do not accumulate from frame to frame.
func (r *Renderer) animate() error {
	bg := r.image.Background()

	if r.wave != nil {
		if err := r.wave.Apply(); err != nil {
			return err
		}
	} else if r.luminance != nil {
		copy(bg.Pix, r.source.Pix)
	}

	if r.luminance != nil {
		return r.luminance.Apply()
	}
	return nil
}

// saveFrame writes the current output. A single frame goes to OutputFile,
// a sequence to numbered files next to it.
func (r *Renderer) saveFrame(index, frames int, format codec.Format) (string, error) {
	out := r.image.Output()
	base := strings.TrimSuffix(r.params.OutputFile, filepath.Ext(r.params.OutputFile))

	if frames == 1 {
		path := base + format.Ext()
		return path, codec.EncodeFile(path, out)
	}
	return texture.SaveFrame(filepath.Dir(base), filepath.Base(base), index, out, format)
}

// saveIntermediaryResult saves an intermediary result of the pipeline.
func (r *Renderer) saveIntermediaryResult(stage string, p *pattern.Pattern, index int) error {
	if !r.params.SaveIntermediaryResults {
		return nil
	}

	path := filepath.Join(r.params.IntermediaryDir, stage, fmt.Sprintf("%03d.png", index))
	return codec.EncodeFile(path, p)
}

// GetMetrics returns the metrics of the last Process call.
func (r *Renderer) GetMetrics() Metrics {
	return r.metrics
}

// Output returns the last rendered frame, or nil before Process.
func (r *Renderer) Output() *pattern.Pattern {
	if r.image == nil {
		return nil
	}
	return r.image.Output()
}

// Files returns the paths of the frames written by Process.
func (r *Renderer) Files() []string {
	return r.files
}

// Close stops all worker threads. It may be called more than once.
func (r *Renderer) Close() error {
	var errs []error
	for _, e := range []effect.Effect{r.wave, r.luminance} {
		if e != nil {
			if err := e.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := r.image.Close(); err != nil {
		errs = append(errs, err)
	}
	r.depth.Free()

	return errors.Join(errs...)
}

// closeJoin closes c and joins a close failure to err.
func closeJoin(err error, c io.Closer, what string) error {
	if cerr := c.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("failed to close %s: %w", what, cerr))
	}
	return err
}

// toFloat converts pixel bytes to floats, reusing dst when it is large
// enough.
func toFloat(pix []uint8, dst []float64) []float64 {
	if cap(dst) < len(pix) {
		dst = make([]float64, len(pix))
	}
	dst = dst[:len(pix)]
	for i, v := range pix {
		dst[i] = float64(v)
	}
	return dst
}
