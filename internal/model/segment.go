// Package model holds the raw samples read from the system and the styled
// segments the bar is built from.
package model

import "fmt"

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// RGB is shorthand for Color{r, g, b}.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// MarshalText implements encoding.TextMarshaler so colors serialize as "#rrggbb".
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// Segment is one contiguous styled run of text in the status line.
type Segment struct {
	Name           string `json:"name,omitempty"`
	Text           string `json:"full_text"`
	Foreground     *Color `json:"color,omitempty"`
	Background     *Color `json:"background,omitempty"`
	Separator      bool   `json:"separator"`
	SeparatorWidth *int   `json:"separator_block_width,omitempty"`
}

// Text returns a plain segment followed by the default separator.
func Text(s string) Segment { return Segment{Text: s, Separator: true} }

// Colored returns a segment with the given foreground and no separator.
func Colored(s string, fg Color) Segment {
	return Segment{Text: s, Foreground: &fg}
}

// Merge hides the separator so the segment visually joins its right neighbour.
func (s *Segment) Merge() {
	zero := 0
	s.Separator = false
	s.SeparatorWidth = &zero
}
