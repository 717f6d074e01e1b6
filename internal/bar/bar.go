// Package bar drives the blocks: once per interval every block renders
// concurrently under a shared deadline and the results are joined in
// configured order.
package bar

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/blocks"
	"github.com/Dicklesworthstone/statusline/internal/model"
)

// PanicError carries a recovered block panic and the goroutine's stack.
type PanicError struct {
	Block string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bar: block %s panicked: %v", e.Block, e.Value)
}

// Guard runs fn and turns a panic into a *PanicError attributed to name.
func Guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Block: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Bar owns the ordered block list.
type Bar struct {
	blocks  []blocks.Block
	busy    []atomic.Bool
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Bar whose ticks never last longer than timeout. A block still
// running at the deadline contributes nothing and is not started again until
// it returns.
func New(bs []blocks.Block, timeout time.Duration, logger *slog.Logger) *Bar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bar{blocks: bs, busy: make([]atomic.Bool, len(bs)), timeout: timeout, logger: logger}
}

type result struct {
	index int
	segs  []model.Segment
	err   error
}

// Tick renders one line. A non-nil error is fatal: the output would be wrong
// rather than merely incomplete.
func (b *Bar) Tick(ctx context.Context, now time.Time) ([]model.Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan result, len(b.blocks))
	pending := make(map[int]bool, len(b.blocks))
	for i, blk := range b.blocks {
		i, blk := i, blk
		if !b.busy[i].CompareAndSwap(false, true) {
			b.logger.Debug("block still running from an earlier tick", slog.String("block", blk.Name()))
			continue
		}
		pending[i] = true
		go func() {
			defer b.busy[i].Store(false)
			start := time.Now()
			var segs []model.Segment
			err := Guard(blk.Name(), func() (err error) {
				segs, err = blk.Render(ctx, now)
				return err
			})
			if elapsed := time.Since(start); err == nil && elapsed > b.timeout {
				b.logger.Warn("block overran tick deadline",
					slog.String("block", blk.Name()),
					slog.Duration("elapsed", elapsed))
			}
			done <- result{index: i, segs: named(segs, blk.Name()), err: err}
		}()
	}

	results := make([][]model.Segment, len(b.blocks))
	for len(pending) > 0 {
		select {
		case r := <-done:
			if r.err != nil {
				return nil, r.err
			}
			delete(pending, r.index)
			results[r.index] = r.segs
		case <-ctx.Done():
			for i := range pending {
				b.logger.Debug("block missed tick deadline", slog.String("block", b.blocks[i].Name()))
			}
			pending = nil
		}
	}

	var out []model.Segment
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// named copies segs, filling in name where a segment has none. Blocks may
// hand back slices they keep, such as cached ones, so those are never written.
func named(segs []model.Segment, name string) []model.Segment {
	if len(segs) == 0 {
		return nil
	}
	out := make([]model.Segment, len(segs))
	copy(out, segs)
	for i := range out {
		if out[i].Name == "" {
			out[i].Name = name
		}
	}
	return out
}

// Frame is one rendered tick.
type Frame struct {
	At       time.Time
	Segments []model.Segment
	Err      error
}

// Stream renders a frame immediately and then every interval until ctx is
// done. The channel is closed after ctx ends or after a frame carrying an
// error.
func (b *Bar) Stream(ctx context.Context, interval time.Duration) <-chan Frame {
	ch := make(chan Frame)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		now := time.Now()
		for {
			segs, err := b.Tick(ctx, now)
			select {
			case ch <- Frame{At: now, Segments: segs, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			select {
			case now = <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
