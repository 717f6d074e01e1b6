// Package rate turns cumulative counters into smoothed throughput.
//
// A Clock is advanced once per tick and yields the interval shared by every
// counter sampled in that tick. A Smoother keeps per-source history and
// produces the instantaneous rate, a time-adjusted exponentially weighted
// average of it, and a lifetime high-water mark used to normalize the
// average into a percentage.
package rate

import (
	"math"
	"sync"
	"time"
)

// MinInterval is substituted for zero or negative elapsed time.
const MinInterval = time.Millisecond

// Clock remembers when the previous tick was sampled.
type Clock struct {
	mu   sync.Mutex
	last time.Time
}

// NewClock returns a clock whose first interval is measured from start.
func NewClock(start time.Time) *Clock { return &Clock{last: start} }

// Advance records now and returns the time elapsed since the previous call,
// never less than MinInterval.
func (c *Clock) Advance(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := now.Sub(c.last)
	c.last = now
	if d < MinInterval {
		d = MinInterval
	}
	return d
}

// Flow is the smoothed view of one counter direction.
type Flow struct {
	Rate float64 // bytes/s over the last interval, never negative
	EWA  float64
	HWM  float64
}

// Percent normalizes EWA against the high-water mark, clamped to [0,100].
func (f Flow) Percent() float64 {
	if f.HWM <= 0 {
		return 0
	}
	p := f.EWA / f.HWM * 100
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Reading is the result of one Observe call.
type Reading struct {
	Sent Flow
	Recv Flow
}

type state struct {
	lastSent, lastRecv uint64
	sent, recv         Flow
}

// Smoother tracks rate history per named source. Entries are kept for the
// life of the process; a vanished source costs one map slot.
type Smoother struct {
	tau time.Duration

	mu      sync.Mutex
	sources map[string]*state
}

// NewSmoother returns a Smoother with time constant tau. Smaller values react
// faster; non-positive values disable smoothing.
func NewSmoother(tau time.Duration) *Smoother {
	return &Smoother{tau: tau, sources: make(map[string]*state)}
}

// Observe folds the current counters for name into its history. The first
// observation of a source only seeds its counters, so its rate is zero.
func (s *Smoother) Observe(name string, sent, recv uint64, interval time.Duration) Reading {
	if interval < MinInterval {
		interval = MinInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sources[name]
	if !ok {
		st = &state{
			lastSent: sent,
			lastRecv: recv,
			sent:     Flow{HWM: 1},
			recv:     Flow{HWM: 1},
		}
		s.sources[name] = st
	}

	decay := 0.0
	if s.tau > 0 {
		decay = math.Exp(-interval.Seconds() / s.tau.Seconds())
	}
	st.sent = step(st.sent, delta(st.lastSent, sent)/interval.Seconds(), decay)
	st.recv = step(st.recv, delta(st.lastRecv, recv)/interval.Seconds(), decay)
	st.lastSent, st.lastRecv = sent, recv

	return Reading{Sent: st.sent, Recv: st.recv}
}

// Len reports how many sources have history.
func (s *Smoother) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

func step(prev Flow, r, decay float64) Flow {
	return Flow{
		Rate: r,
		EWA:  decay*prev.EWA + (1-decay)*r,
		HWM:  math.Max(prev.HWM, r),
	}
}

// delta treats a counter that went backwards (interface reset) as no traffic.
func delta(prev, cur uint64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur - prev)
}
