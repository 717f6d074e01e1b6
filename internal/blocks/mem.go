package blocks

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Mem shows available RAM and free swap. Both bars fill with what is left.
type Mem struct {
	Env
}

func (m Mem) Name() string { return "mem" }

func (m Mem) Render(ctx context.Context, _ time.Time) ([]model.Segment, error) {
	v, err := m.Source.Memory(ctx)
	if err != nil {
		return m.degrade(m.Name(), err)
	}
	s := m.Style
	out := []model.Segment{s.label("ram")}
	out = append(out, s.bytes(float64(v.AvailableBytes), 8, "B", percentOf(v.AvailableBytes, v.TotalBytes), true, true)...)
	if v.SwapTotal > 0 {
		out = append(out, s.label("swap"))
		out = append(out, s.bytes(float64(v.SwapFree), 8, "B", percentOf(v.SwapFree, v.SwapTotal), true, true)...)
	}
	return out, nil
}
