package render

import (
	"math"
	"strings"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Labeler draws text as a progress bar: the filled part takes the gradient's
// End color, the empty part its Start color, and the one cell straddling the
// boundary a blend that moves toward Start as more of it is covered.
type Labeler struct {
	Gradient Gradient
	Light    model.Color
	Dark     model.Color
}

// Label pads text with margin spaces on each side and splits it into up to
// three merged segments. The filled side always means "good": with reverse
// unset percent is a higher-is-worse value, with reverse set higher is better.
func (l Labeler) Label(text string, percent float64, reverse bool, margin int, trailingSep bool) []model.Segment {
	if margin < 0 {
		margin = 0
	}
	pad := strings.Repeat(" ", margin)
	runes := []rune(pad + text + pad)
	n := len(runes)

	good := clampPercent(percent)
	if !reverse {
		good = 100 - good
	}
	// Snap away float noise such as 0.3*10 = 3.0000000000000004.
	cutoff := math.Round(good/100*float64(n)*1e9) / 1e9
	solid := int(math.Floor(cutoff))
	firstEmpty := int(math.Ceil(cutoff))
	frac := cutoff - float64(solid)

	var out []model.Segment
	if solid > 0 || n == 0 {
		out = append(out, l.cell(string(runes[:solid]), l.Gradient.End))
	}
	if frac > 0 {
		out = append(out, l.cell(string(runes[solid:firstEmpty]), l.Gradient.At(frac*100, false)))
	}
	if firstEmpty < n {
		out = append(out, l.cell(string(runes[firstEmpty:]), l.Gradient.Start))
	}

	for i := 0; i < len(out)-1; i++ {
		out[i].Merge()
	}
	if !trailingSep {
		out[len(out)-1].Merge()
	}
	return out
}

func (l Labeler) cell(text string, bg model.Color) model.Segment {
	fg := Foreground(bg, l.Light, l.Dark)
	return model.Segment{Text: text, Foreground: &fg, Background: &bg, Separator: true}
}
