// Package blocks composes raw samples into bar segments. Each block pulls
// from a sampler.Source and renders through the shared Style.
package blocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/config"
	"github.com/Dicklesworthstone/statusline/internal/model"
	"github.com/Dicklesworthstone/statusline/internal/render"
	"github.com/Dicklesworthstone/statusline/internal/sampler"
)

// Block renders one section of the bar for a tick.
type Block interface {
	Name() string
	Render(ctx context.Context, now time.Time) ([]model.Segment, error)
}

// Style is the shared palette and formatters.
type Style struct {
	Gradient render.Gradient // Start is bad, End is good
	Accent   model.Color
	Good     model.Color
	Bad      model.Color
	Labeler  render.Labeler
	Scaler   render.Scaler
}

// NewStyle builds a Style from a parsed theme.
func NewStyle(p config.Palette, units []string) Style {
	g := render.Gradient{Start: p.Bad, Mid: p.Warn, End: p.Good}
	return Style{
		Gradient: g,
		Accent:   p.Accent,
		Good:     p.Good,
		Bad:      p.Bad,
		Labeler:  render.Labeler{Gradient: g, Light: p.Light, Dark: p.Dark},
		Scaler:   render.Scaler{Units: units},
	}
}

// label is the accent-colored caption in front of a value.
func (s Style) label(text string) model.Segment {
	return model.Colored(text, s.Accent)
}

// bytes renders a byte count as a gradient label, e.g. "  1.50 GiB".
func (s Style) bytes(n float64, width int, suffix string, percent float64, reverse, trailingSep bool) []model.Segment {
	return s.Labeler.Label(s.Scaler.Format(n, width)+suffix, percent, reverse, 1, trailingSep)
}

// Env is what every block needs.
type Env struct {
	Source sampler.Source
	Style  Style
	Logger *slog.Logger
}

// degrade turns an expected collaborator failure into an empty contribution.
// Anything else is returned as-is and ends the process.
func (e Env) degrade(block string, err error) ([]model.Segment, error) {
	if errors.Is(err, sampler.ErrNotFound) || errors.Is(err, sampler.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		e.Logger.Debug("block skipped", slog.String("block", block), slog.String("error", err.Error()))
		return nil, nil
	}
	return nil, fmt.Errorf("blocks: %s: %w", block, err)
}

func percentOf(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
