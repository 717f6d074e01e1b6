package blocks

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/cache"
	"github.com/Dicklesworthstone/statusline/internal/model"
)

// VPN shows the tunnel state. The status command is slow, so its rendering
// is cached for a ttl; a failed query hides the block until the next window.
type VPN struct {
	Env
	Cache *cache.TTL[[]model.Segment]
}

func (v VPN) Name() string { return "vpn" }

func (v VPN) Render(ctx context.Context, now time.Time) ([]model.Segment, error) {
	segs, err := v.Cache.Get(ctx, now, v.query)
	if err != nil {
		return v.degrade(v.Name(), err)
	}
	return segs, nil
}

func (v VPN) query(ctx context.Context) ([]model.Segment, error) {
	st, err := v.Source.VPN(ctx)
	if err != nil {
		return nil, err
	}
	s := v.Style
	if !st.Connected {
		return []model.Segment{s.label("vpn"), colored("off", s.Bad)}, nil
	}
	relay := st.Relay
	if relay == "" {
		relay = "on"
	}
	return []model.Segment{s.label("vpn"), colored(relay, s.Good)}, nil
}

func colored(text string, c model.Color) model.Segment {
	seg := model.Colored(text, c)
	seg.Separator = true
	return seg
}
