package bar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/blocks"
	"github.com/Dicklesworthstone/statusline/internal/model"
)

type stubBlock struct {
	name  string
	segs  []model.Segment
	delay time.Duration
	err   error
	panic bool
}

func (s stubBlock) Name() string { return s.name }

func (s stubBlock) Render(ctx context.Context, _ time.Time) ([]model.Segment, error) {
	if s.panic {
		panic("index out of range")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, nil
		}
	}
	return s.segs, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func texts(segs []model.Segment) string {
	var parts []string
	for _, s := range segs {
		parts = append(parts, s.Name+":"+s.Text)
	}
	return strings.Join(parts, " ")
}

func TestTickKeepsOrder(t *testing.T) {
	b := New([]blocks.Block{
		stubBlock{name: "a", segs: []model.Segment{model.Text("1"), model.Text("2")}, delay: 20 * time.Millisecond},
		stubBlock{name: "b"},
		stubBlock{name: "c", segs: []model.Segment{{Name: "custom", Text: "3"}}},
	}, time.Second, testLogger())
	segs, err := b.Tick(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := texts(segs); got != "a:1 a:2 custom:3" {
		t.Fatalf("Tick = %q", got)
	}
}

func TestTickDeadlineDropsSlowBlock(t *testing.T) {
	b := New([]blocks.Block{
		stubBlock{name: "slow", segs: []model.Segment{model.Text("late")}, delay: time.Minute},
		stubBlock{name: "fast", segs: []model.Segment{model.Text("ok")}},
	}, 50*time.Millisecond, testLogger())
	start := time.Now()
	segs, err := b.Tick(context.Background(), start)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("tick was not bounded by its deadline")
	}
	if got := texts(segs); got != "fast:ok" {
		t.Fatalf("Tick = %q", got)
	}
}

// stuckBlock blocks until release is closed and never looks at its context,
// like a statfs on a hung mount.
type stuckBlock struct {
	release chan struct{}
	calls   *atomic.Int32
}

func (s stuckBlock) Name() string { return "stuck" }

func (s stuckBlock) Render(context.Context, time.Time) ([]model.Segment, error) {
	s.calls.Add(1)
	<-s.release
	return []model.Segment{model.Text("late")}, nil
}

func TestTickDeadlineIgnoredByBlock(t *testing.T) {
	stuck := stuckBlock{release: make(chan struct{}), calls: new(atomic.Int32)}
	defer close(stuck.release)
	b := New([]blocks.Block{
		stuck,
		stubBlock{name: "fast", segs: []model.Segment{model.Text("ok")}},
	}, 50*time.Millisecond, testLogger())

	for i := 0; i < 2; i++ {
		start := time.Now()
		segs, err := b.Tick(context.Background(), start)
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("tick %d took %v with a 50ms ceiling", i, elapsed)
		}
		if got := texts(segs); got != "fast:ok" {
			t.Fatalf("tick %d = %q", i, got)
		}
	}
	if n := stuck.calls.Load(); n != 1 {
		t.Fatalf("stuck block started %d times, want 1", n)
	}
}

func TestTickRestartsBlockAfterItReturns(t *testing.T) {
	stuck := stuckBlock{release: make(chan struct{}), calls: new(atomic.Int32)}
	b := New([]blocks.Block{stuck}, 20*time.Millisecond, testLogger())
	if _, err := b.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	close(stuck.release)
	deadline := time.Now().Add(5 * time.Second)
	for b.busy[0].Load() {
		if time.Now().After(deadline) {
			t.Fatal("block never finished")
		}
		time.Sleep(time.Millisecond)
	}
	segs, err := b.Tick(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := texts(segs); got != "stuck:late" {
		t.Fatalf("Tick = %q", got)
	}
	if n := stuck.calls.Load(); n != 2 {
		t.Fatalf("stuck block started %d times, want 2", n)
	}
}

func TestTickLeavesReturnedSegmentsAlone(t *testing.T) {
	cached := []model.Segment{model.Text("vpn")}
	b := New([]blocks.Block{stubBlock{name: "vpn", segs: cached}}, time.Second, testLogger())
	segs, err := b.Tick(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if segs[0].Name != "vpn" {
		t.Fatalf("name = %q", segs[0].Name)
	}
	if cached[0].Name != "" {
		t.Fatalf("block's own slice was modified: %+v", cached[0])
	}
}

func TestGuard(t *testing.T) {
	err := Guard("gpu poller", func() error { panic("bad csv") })
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Block != "gpu poller" || pe.Value != "bad csv" {
		t.Fatalf("Guard = %v", err)
	}
	boom := errors.New("boom")
	if err := Guard("x", func() error { return boom }); err != boom {
		t.Fatalf("Guard = %v, want %v", err, boom)
	}
}

func TestTickPropagatesFatalErrors(t *testing.T) {
	boom := errors.New("boom")
	b := New([]blocks.Block{stubBlock{name: "x", err: boom}}, time.Second, testLogger())
	if _, err := b.Tick(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestTickRecoversPanics(t *testing.T) {
	b := New([]blocks.Block{stubBlock{name: "bad", panic: true}}, time.Second, testLogger())
	_, err := b.Tick(context.Background(), time.Now())
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PanicError", err)
	}
	if pe.Block != "bad" || len(pe.Stack) == 0 {
		t.Fatalf("unexpected panic error %+v", pe)
	}
}

func TestStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := New([]blocks.Block{stubBlock{name: "a", segs: []model.Segment{model.Text("x")}}}, time.Second, testLogger())
	frames := b.Stream(ctx, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		f, ok := <-frames
		if !ok || f.Err != nil || len(f.Segments) != 1 {
			t.Fatalf("frame %d = %+v, %v", i, f, ok)
		}
	}
	cancel()
	for range frames {
	}
}

func TestStreamStopsAfterError(t *testing.T) {
	b := New([]blocks.Block{stubBlock{name: "a", err: errors.New("boom")}}, time.Second, testLogger())
	frames := b.Stream(context.Background(), time.Millisecond)
	f := <-frames
	if f.Err == nil {
		t.Fatal("expected error frame")
	}
	if _, ok := <-frames; ok {
		t.Fatal("stream should close after an error frame")
	}
}
