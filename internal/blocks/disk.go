package blocks

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Disk shows free space on one filesystem. The bar fills with free space,
// so a full disk renders entirely empty.
type Disk struct {
	Env
	Label string
	Path  string
}

func (d Disk) Name() string { return "disk" }

func (d Disk) Render(ctx context.Context, _ time.Time) ([]model.Segment, error) {
	u, err := d.Source.Disk(ctx, d.Path)
	if err != nil {
		return d.degrade(d.Name(), err)
	}
	label := d.Label
	if label == "" {
		label = d.Path
	}
	out := []model.Segment{d.Style.label(label)}
	return append(out, d.Style.bytes(float64(u.FreeBytes), 8, "B", percentOf(u.FreeBytes, u.TotalBytes), true, true)...), nil
}
