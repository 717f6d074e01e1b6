package i3bar

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

func TestWriterFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fg := model.RGB(0x66, 0xff, 0x66)
	seg := model.Segment{Text: "eth0", Foreground: &fg}
	seg.Merge()
	if err := w.Write([]model.Segment{seg, model.Text("12:00")}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(nil); err != nil {
		t.Fatalf("Write(nil): %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	want := []string{
		`{"version":1}`,
		`[`,
		`[{"full_text":"eth0","color":"#66ff66","separator":false,"separator_block_width":0},{"full_text":"12:00","separator":true}],`,
		`[],`,
		``,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s\nwant     %s", i, lines[i], want[i])
		}
	}
}

func TestWriterStartsLazily(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write([]model.Segment{model.Text("x")}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "{\"version\":1}\n[\n") {
		t.Fatalf("missing header: %q", buf.String())
	}
	if err := w.Start(); err != nil || strings.Count(buf.String(), "version") != 1 {
		t.Fatalf("Start after Write should be a no-op")
	}
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterReportsWriteErrors(t *testing.T) {
	if err := NewWriter(brokenPipe{}).Write([]model.Segment{model.Text("x")}); err == nil {
		t.Fatal("expected write error")
	}
}
