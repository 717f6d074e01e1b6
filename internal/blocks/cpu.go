package blocks

import (
	"context"
	"fmt"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// CPU display modes.
const (
	// CPUCells packs two cores per character cell: "▄" whose background is
	// the even core and foreground the odd core.
	CPUCells = "cells"
	// CPULabel shows mean load as a gradient label.
	CPULabel = "label"
)

const halfBlock = "▄"

// CPU shows per-core load.
type CPU struct {
	Env
	Mode string
}

func (c CPU) Name() string { return "cpu" }

func (c CPU) Render(ctx context.Context, _ time.Time) ([]model.Segment, error) {
	load, err := c.Source.CPU(ctx)
	if err != nil {
		return c.degrade(c.Name(), err)
	}
	if len(load) == 0 {
		return nil, nil
	}
	s := c.Style
	out := []model.Segment{s.label("cpu")}

	if c.Mode == CPULabel {
		var sum float64
		for _, l := range load {
			sum += l
		}
		mean := sum / float64(len(load))
		return append(out, s.Labeler.Label(fmt.Sprintf("%5.1f%%", mean), mean, false, 1, true)...), nil
	}

	for i := 0; i < len(load); i += 2 {
		bg := s.Gradient.At(load[i], false)
		fg := s.Labeler.Dark
		if i+1 < len(load) {
			fg = s.Gradient.At(load[i+1], false)
		}
		seg := model.Segment{Text: halfBlock, Foreground: &fg, Background: &bg}
		seg.Merge()
		out = append(out, seg)
	}
	last := &out[len(out)-1]
	last.Separator = true
	last.SeparatorWidth = nil
	return out, nil
}
