// Package i3bar speaks the i3bar/swaybar JSON protocol: a header object, an
// opening bracket, then one comma-terminated JSON array of blocks per line.
package i3bar

import (
	"bufio"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Header is the first line of the stream.
type Header struct {
	Version int `json:"version"`
}

// Writer emits ticks to a status bar host. Each line is encoded in full
// before anything is written, so an encoding failure never leaves a
// half-written line behind.
type Writer struct {
	w       *bufio.Writer
	started bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Start writes the header and opens the infinite array.
func (w *Writer) Start() error {
	if w.started {
		return nil
	}
	hdr, err := json.Marshal(Header{Version: 1})
	if err != nil {
		return fmt.Errorf("i3bar: encode header: %w", err)
	}
	w.w.Write(hdr)
	w.w.WriteString("\n[\n")
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("i3bar: write header: %w", err)
	}
	w.started = true
	return nil
}

// Write emits one tick and flushes it.
func (w *Writer) Write(segs []model.Segment) error {
	if !w.started {
		if err := w.Start(); err != nil {
			return err
		}
	}
	if segs == nil {
		segs = []model.Segment{}
	}
	line, err := json.Marshal(segs)
	if err != nil {
		return fmt.Errorf("i3bar: encode tick: %w", err)
	}
	w.w.Write(line)
	w.w.WriteString(",\n")
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("i3bar: write tick: %w", err)
	}
	return nil
}
