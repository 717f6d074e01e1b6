// Package render turns raw metric values into fixed-width text and colored
// segments: binary-prefix number formatting, gradient colors, gradient labels
// and the scrolling marquee.
package render

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultUnits are the binary-prefix suffixes, one per 2^10 tier.
var DefaultUnits = []string{" ", " Ki", " Mi", " Gi", " Ti", " Pi", " Ei"}

// Scaler formats magnitudes into fixed-width strings with a unit suffix.
// The zero value uses DefaultUnits.
type Scaler struct {
	Units []string
}

// Format renders n scaled to its binary-prefix tier, using as many decimals
// as fit in width. The result is right-justified and exactly width runes long.
func (s Scaler) Format(n float64, width int) string {
	units := s.Units
	if len(units) == 0 {
		units = DefaultUnits
	}
	if width < 1 {
		return ""
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return clip("?"+units[0], width)
	}

	tier := 0
	if n != 0 {
		tier = int(math.Floor(math.Log2(math.Abs(n)) / 10))
	}
	if tier < 0 {
		tier = 0
	}
	if tier > len(units)-1 {
		tier = len(units) - 1
	}

	// Rounding can push a value into an extra digit (1023.99 -> "1024"), so
	// fall through to the next tier before giving up.
	for t := tier; t < len(units); t++ {
		if out, ok := fit(n/math.Exp2(float64(10*t)), units[t], width); ok {
			return out
		}
	}
	// Width too narrow for the suffix vocabulary.
	last := len(units) - 1
	return clip(strconv.FormatFloat(n/math.Exp2(float64(10*last)), 'f', 0, 64)+units[last], width)
}

func fit(scaled float64, unit string, width int) (string, bool) {
	digits := 0
	if scaled != 0 {
		digits = int(math.Floor(math.Log10(math.Abs(scaled))))
	}
	if digits < 0 {
		digits = 0
	}
	sign := 0
	if scaled < 0 {
		sign = 1
	}
	decimals := width - sign - (digits + 1) - 1 - utf8.RuneCountInString(unit)
	if decimals < 0 {
		decimals = 0
	}
	for d := decimals; d >= 0; d-- {
		out := strconv.FormatFloat(scaled, 'f', d, 64) + unit
		if utf8.RuneCountInString(out) <= width {
			return padLeft(out, width), true
		}
	}
	return "", false
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return padLeft(s, width)
	}
	return string(r[:width])
}
