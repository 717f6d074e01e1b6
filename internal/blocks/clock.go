package blocks

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Clock shows the local time.
type Clock struct {
	Format string
}

func (c Clock) Name() string { return "clock" }

func (c Clock) Render(_ context.Context, now time.Time) ([]model.Segment, error) {
	return []model.Segment{model.Text(now.Format(c.Format))}, nil
}
