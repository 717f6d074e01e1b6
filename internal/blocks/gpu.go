package blocks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

const gpuBarWidth = 10

// GPU shows utilization and free VRAM for each configured device.
type GPU struct {
	Env
	Devices []int
}

func (g GPU) Name() string { return "gpu" }

func (g GPU) Render(ctx context.Context, _ time.Time) ([]model.Segment, error) {
	s := g.Style
	var out []model.Segment
	for _, idx := range g.Devices {
		d, err := g.Source.GPU(ctx, idx)
		if err != nil {
			if _, ferr := g.degrade(g.Name(), err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		free := uint64(0)
		if d.MemTotal > d.MemUsed {
			free = d.MemTotal - d.MemUsed
		}
		blank := fmt.Sprintf("%*s", gpuBarWidth, "")
		out = append(out, s.label(fmt.Sprintf("gpu%d", idx)))
		out = append(out, s.Labeler.Label(blank, d.Util, false, 1, true)...)
		out = append(out, s.label(fmt.Sprintf("vram%d", idx)))
		out = append(out, s.bytes(float64(free), 8, "B", percentOf(free, d.MemTotal), true, true)...)
		g.Logger.Debug("gpu sampled", slog.Int("index", idx), slog.String("name", d.Name), slog.Float64("util", d.Util))
	}
	return out, nil
}
