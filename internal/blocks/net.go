package blocks

import (
	"context"
	"sort"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
	"github.com/Dicklesworthstone/statusline/internal/rate"
)

const (
	glyphDown = "\U0001f873"
	glyphUp   = "\U0001f871"
)

// Net shows smoothed receive and send throughput per interface, each bar
// normalized against the highest rate seen on that interface so far.
type Net struct {
	Env
	// Interfaces to show, in order. Empty means every interface except lo.
	Interfaces []string
	Smoother   *rate.Smoother
	Clock      *rate.Clock
}

func (n Net) Name() string { return "net" }

func (n Net) Render(ctx context.Context, now time.Time) ([]model.Segment, error) {
	counters, err := n.Source.Net(ctx)
	if err != nil {
		return n.degrade(n.Name(), err)
	}
	// Advance only on a successful read so the interval always matches the
	// counter delta.
	interval := n.Clock.Advance(now)

	names := n.Interfaces
	if len(names) == 0 {
		for name := range counters {
			if name != "lo" {
				names = append(names, name)
			}
		}
		sort.Strings(names)
	}

	s := n.Style
	var out []model.Segment
	for _, name := range names {
		c, ok := counters[name]
		if !ok {
			continue
		}
		r := n.Smoother.Observe(name, c.BytesSent, c.BytesRecv, interval)
		out = append(out, s.label(name))
		out = append(out, n.glyph(glyphDown, r.Recv.Rate > 0, s.Good))
		out = append(out, s.bytes(r.Recv.EWA, 7, "B/s", r.Recv.Percent(), true, false)...)
		out = append(out, n.glyph(glyphUp, r.Sent.Rate > 0, s.Bad))
		out = append(out, s.bytes(r.Sent.EWA, 7, "B/s", r.Sent.Percent(), true, true)...)
	}
	return out, nil
}

// glyph is colored only while traffic is flowing.
func (n Net) glyph(text string, active bool, c model.Color) model.Segment {
	seg := model.Segment{Text: text}
	if active {
		seg.Foreground = &c
	}
	return seg
}
