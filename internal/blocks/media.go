package blocks

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
	"github.com/Dicklesworthstone/statusline/internal/render"
)

// Media shows the current track of an MPRIS player as a scrolling marquee.
type Media struct {
	Env
	Width     int
	Rate      time.Duration
	Separator string
}

func (m Media) Name() string { return "media" }

func (m Media) Render(ctx context.Context, now time.Time) ([]model.Segment, error) {
	t, err := m.Source.Track(ctx)
	if err != nil {
		return m.degrade(m.Name(), err)
	}
	text := t.Title
	switch {
	case t.Artist != "" && t.Title != "":
		text = t.Artist + " - " + t.Title
	case t.Title == "":
		text = t.Artist
	}
	return []model.Segment{
		m.Style.label(statusGlyph(t.Status)),
		model.Text(render.Marquee(text, m.Width, m.Rate, m.Separator, now)),
	}, nil
}

func statusGlyph(status string) string {
	switch status {
	case "Playing":
		return "▶"
	case "Paused":
		return "⏸"
	default:
		return "■"
	}
}
