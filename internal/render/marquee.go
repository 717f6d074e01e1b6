package render

import (
	"time"
)

// Marquee returns a width-rune window over text that scrolls one rune every
// rate, wrapping through sep. Text that already fits is padded and static.
func Marquee(text string, width int, rate time.Duration, sep string, t time.Time) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= width {
		return padRight(text, width)
	}
	if rate <= 0 {
		return string(runes[:width])
	}

	buf := append(runes, []rune(sep)...)
	l := int64(len(buf))
	ns, r := t.UnixNano(), int64(rate)
	step := ns / r
	if ns%r != 0 && ns < 0 {
		step--
	}
	begin := step % l
	if begin < 0 {
		begin += l
	}

	out := make([]rune, 0, width)
	for i := int64(0); i < int64(width); i++ {
		out = append(out, buf[(begin+i)%l])
	}
	return string(out)
}
