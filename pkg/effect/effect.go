// Package effect implements animated per pixel effects on a Pattern.
//
// An effect is a Kernel, which computes a single pixel and advances its own
// animation state, driven by a generic dispatcher that owns a para.Executor
// and walks the target row by row.
package effect

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"stereogram/internal/logging"
	"stereogram/pkg/para"
	"stereogram/pkg/pattern"
)

var (
	// ErrNilPattern is returned when an effect is created without a target.
	ErrNilPattern = errors.New("effect: nil target pattern")

	// ErrClosed is returned by Apply after Close.
	ErrClosed = errors.New("effect: closed")
)

// Component selects colour channels of a pixel.
type Component int

// Single channel components, combined with |.
const (
	Red Component = 1 << iota
	Green
	Blue
	Alpha
)

// Colors selects the three colour channels and leaves alpha alone.
const Colors = Red | Green | Blue

// Kernel is the per pixel part of an effect.
type Kernel interface {
	// Pixel updates px, the RGBA bytes of the target pixel at (x, y).
	// It is called concurrently for pixels of different rows.
	Pixel(px []uint8, x, y int)

	// Update advances the animation. iteration is the number of completed
	// Apply calls before this one.
	Update(iteration int)

	// Release drops resources held by the kernel.
	Release()
}

// Effect is an animated effect bound to a target pattern.
type Effect interface {
	// Name identifies the kind of effect.
	Name() string

	// Target returns the pattern the effect draws on. It is not owned by
	// the effect.
	Target() *pattern.Pattern

	// Iteration returns the number of completed Apply calls.
	Iteration() int

	// Apply renders one frame onto the target and advances the animation.
	Apply() error

	// Close releases the effect's resources.
	Close() error
}

// Option configures effect creation.
type Option func(*options)

type options struct {
	threads int
	rng     *rand.Rand
}

func defaultOptions() options {
	return options{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithThreads sets the number of threads of the effect's executor. The
// default is para.ThreadCount.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithSeed makes the random wave phases reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand draws the random wave phases from r.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rng = r
		}
	}
}

// dispatch runs a kernel over every pixel of its target.
type dispatch[K Kernel] struct {
	name      string
	target    *pattern.Pattern
	iteration int
	kernel    K
	exec      *para.Executor[*dispatch[K]]
	closed    bool
}

func newDispatch[K Kernel](name string, target *pattern.Pattern, kernel K, threads int) *dispatch[K] {
	d := &dispatch[K]{
		name:   name,
		target: target,
		kernel: kernel,
	}
	d.exec = para.New(d, applyLines[K], threads)

	logging.Logger().Debug("effect: created", "name", name,
		"width", target.Width, "height", target.Height, "threads", d.exec.Threads())
	return d
}

// applyLines is the executor callback: it feeds rows [start, end) of the
// target to the kernel pixel by pixel.
func applyLines[K Kernel](d *dispatch[K], start, end, _, _ int) {
	p := d.target
	for y := start; y < end; y++ {
		row := p.Row(y)
		for x := 0; x < p.Width; x++ {
			i := x * pattern.BytesPerPixel
			d.kernel.Pixel(row[i:i+pattern.BytesPerPixel:i+pattern.BytesPerPixel], x, y)
		}
	}
}

func (d *dispatch[K]) Name() string {
	return d.name
}

func (d *dispatch[K]) Target() *pattern.Pattern {
	return d.target
}

func (d *dispatch[K]) Iteration() int {
	return d.iteration
}

// Apply renders every row of the target, then updates the kernel once.
func (d *dispatch[K]) Apply() error {
	if d.closed {
		return ErrClosed
	}
	if err := d.exec.Execute(0, d.target.Height); err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}

	d.kernel.Update(d.iteration)
	d.iteration++
	return nil
}

// Close joins the executor and releases the kernel. It may be called more
// than once.
func (d *dispatch[K]) Close() error {
	if d.closed {
		return nil
	}
	if err := d.exec.Close(); err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}

	d.kernel.Release()
	d.closed = true
	return nil
}

// Run applies an effect once and closes it. err is the error returned by the
// effect's constructor, so calls can be written as
//
//	effect.Run(effect.NewLuminance(p, strengths, effect.Colors))
func Run(e Effect, err error) error {
	if err != nil {
		return err
	}

	applyErr := e.Apply()
	return errors.Join(applyErr, e.Close())
}
