package blocks

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/cache"
	"github.com/Dicklesworthstone/statusline/internal/config"
	"github.com/Dicklesworthstone/statusline/internal/model"
	"github.com/Dicklesworthstone/statusline/internal/rate"
)

// FromConfig instantiates the configured blocks in order. Stateful pieces
// (rate history, the sample clock, the VPN cache) are created here once and
// owned by their block for the life of the process.
func FromConfig(cfg config.Config, env Env, start time.Time) ([]Block, error) {
	out := make([]Block, 0, len(cfg.Blocks))
	for i, b := range cfg.Blocks {
		switch b.Type {
		case config.BlockClock:
			out = append(out, Clock{Format: cfg.ClockFormat})
		case config.BlockMem:
			out = append(out, Mem{Env: env})
		case config.BlockCPU:
			mode := b.Style
			if mode == "" {
				mode = CPUCells
			}
			out = append(out, CPU{Env: env, Mode: mode})
		case config.BlockGPU:
			if !cfg.EnableGPU {
				continue
			}
			devices := b.Devices
			if len(devices) == 0 {
				devices = []int{0}
			}
			out = append(out, GPU{Env: env, Devices: devices})
		case config.BlockDisk:
			out = append(out, Disk{Env: env, Label: b.Label, Path: b.Path})
		case config.BlockNet:
			out = append(out, Net{
				Env:        env,
				Interfaces: b.Interfaces,
				Smoother:   rate.NewSmoother(cfg.Tau),
				Clock:      rate.NewClock(start),
			})
		case config.BlockMedia:
			out = append(out, Media{Env: env, Width: cfg.Media.Width, Rate: cfg.Media.Rate, Separator: cfg.Media.Separator})
		case config.BlockVPN:
			out = append(out, VPN{Env: env, Cache: cache.NewTTL[[]model.Segment](cfg.VPN.TTL, env.Logger)})
		default:
			return nil, fmt.Errorf("blocks: entry %d: unknown type %q", i, b.Type)
		}
		env.Logger.Debug("block configured", slog.String("type", b.Type))
	}
	return out, nil
}
