package lottie

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultDimension is used when an animation does not declare its size.
	DefaultDimension = 512
	// MaxDimension caps the exported GIF width and height.
	MaxDimension = 256
	// MaxFrames caps the number of sampled frames.
	MaxFrames = 24

	defaultDuration = 2 * time.Second
	defaultWorkers  = 4
)

// ErrTimeout is returned when GIF encoding does not finish in time.
var ErrTimeout = errors.New("lottie: gif export timed out")

var activeSurfaces atomic.Int64

// ActiveSurfaces reports the number of drawing surfaces currently allocated
// by EncodeGIF.
func ActiveSurfaces() int64 {
	return activeSurfaces.Load()
}

// Plan describes how an animation is sampled for GIF export.
type Plan struct {
	Width  int
	Height int
	// Frames holds the animation frame numbers to sample, in order.
	Frames []float64
	// Delay is the per-frame display time.
	Delay time.Duration
}

// PlanFrames computes output size and sample points for anim. The output is
// at most MaxDimension on each side and holds between 2 and MaxFrames
// frames spread evenly across the animation.
func PlanFrames(anim *Animation) Plan {
	dim := func(v float64) int {
		n := int(math.Round(v))
		if n <= 0 {
			n = DefaultDimension
		}
		return min(n, MaxDimension)
	}

	total := max(1, math.Round(anim.OutPoint-anim.InPoint))
	count := int(min(MaxFrames, max(2, total)))
	step := total / float64(count)

	frames := make([]float64, count)
	for i := range frames {
		frames[i] = anim.InPoint + float64(i)*step
	}

	duration := defaultDuration
	if anim.FrameRate > 0 {
		duration = time.Duration(total / anim.FrameRate * float64(time.Second))
	}
	delay := time.Duration(math.Round(float64(duration)/float64(count)/float64(time.Millisecond))) * time.Millisecond

	return Plan{
		Width:  dim(anim.Width),
		Height: dim(anim.Height),
		Frames: frames,
		Delay:  delay,
	}
}

// Options tunes EncodeGIF.
type Options struct {
	// Timeout bounds rendering and encoding. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Workers is the number of frames rendered concurrently.
	Workers int
}

// EncodeGIF rasterizes anim into a looping animated GIF. Every drawing
// surface it allocates is released before it returns, whether it succeeds,
// fails or times out.
func EncodeGIF(ctx context.Context, anim *Animation, opts Options) ([]byte, error) {
	if anim == nil {
		return nil, ErrInvalid
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	plan := PlanFrames(anim)
	images, err := renderFrames(ctx, anim, plan, workers)
	if err != nil {
		return nil, timeoutErr(ctx, err)
	}

	delay := max(1, int(math.Round(float64(plan.Delay)/float64(10*time.Millisecond))))
	delays := make([]int, len(images))
	for i := range delays {
		delays[i] = delay
	}
	out := &gif.GIF{Image: images, Delay: delays}

	type encoded struct {
		data []byte
		err  error
	}
	done := make(chan encoded, 1)
	go func() {
		var buf bytes.Buffer
		err := gif.EncodeAll(&buf, out)
		done <- encoded{data: buf.Bytes(), err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, timeoutErr(ctx, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("encode gif: %w", res.err)
		}
		return res.data, nil
	}
}

func renderFrames(ctx context.Context, anim *Animation, plan Plan, workers int) ([]*image.Paletted, error) {
	images := make([]*image.Paletted, len(plan.Frames))
	next := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(next)
		for i := range plan.Frames {
			select {
			case next <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() (err error) {
			dc := gg.NewContext(plan.Width, plan.Height)
			activeSurfaces.Add(1)
			defer activeSurfaces.Add(-1)
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("render frame: %v", r)
				}
			}()

			for i := range next {
				if err := gctx.Err(); err != nil {
					return err
				}
				images[i] = toPaletted(RenderFrame(dc, anim, plan.Frames[i]))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}

func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
