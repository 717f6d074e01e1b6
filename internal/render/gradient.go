package render

import (
	"math"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Gradient is a two-segment linear color ramp: Start..Mid over the lower half
// and Mid..End over the upper half.
type Gradient struct {
	Start model.Color
	Mid   model.Color
	End   model.Color
}

// At maps percent to a color. Unless reverse is set the percent is inverted
// first, so a "higher is worse" value of 0 lands on End and 100 on Start.
// Channels are truncated, not rounded.
func (g Gradient) At(percent float64, reverse bool) model.Color {
	p := clampPercent(percent)
	if !reverse {
		p = 100 - p
	}
	if p <= 50 {
		return lerp(g.Start, g.Mid, p/50)
	}
	return lerp(g.Mid, g.End, (p-50)/50)
}

func lerp(a, b model.Color, t float64) model.Color {
	return model.Color{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Luminance is the relative luminance of c on the 0-255 scale.
func Luminance(c model.Color) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// Foreground picks light text for dark backgrounds and dark text otherwise.
func Foreground(bg, light, dark model.Color) model.Color {
	if Luminance(bg) <= 127 {
		return light
	}
	return dark
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
