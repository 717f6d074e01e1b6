// Package ui previews the bar in a terminal, rendering each segment with its
// colors the way an i3bar host would.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Dicklesworthstone/statusline/internal/bar"
	"github.com/Dicklesworthstone/statusline/internal/config"
	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Model renders live frames from the bar.
type Model struct {
	cfg       config.Config
	latest    bar.Frame
	frames    int
	started   time.Time
	err       error
	stream    <-chan bar.Frame
	ctxCancel context.CancelFunc
	width     int
}

// New starts streaming frames from b. The preview quits when ctx ends.
func New(ctx context.Context, cfg config.Config, b *bar.Bar) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		cfg:       cfg,
		started:   time.Now(),
		stream:    b.Stream(ctx, cfg.Interval),
		ctxCancel: cancel,
		width:     120,
	}
}

// Messages
type tickMsg struct{}

func tickCmd() tea.Cmd { return tea.Tick(time.Second/20, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctxCancel()
			return m, tea.Quit
		}
	case tickMsg:
		select {
		case f, ok := <-m.stream:
			if !ok {
				return m, tea.Quit
			}
			if f.Err != nil {
				m.err = f.Err
				m.ctxCancel()
				return m, tea.Quit
			}
			m.latest = f
			m.frames++
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	barStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#222222"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func (m *Model) View() string {
	header := titleStyle.Render("statusline preview") + "  " +
		subtleStyle.Render("q to quit")
	if m.err != nil {
		return header + "\n" + errStyle.Render(m.err.Error()) + "\n"
	}
	footer := subtleStyle.Render(Footer(m.frames, len(m.latest.Segments), m.started, time.Now()))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", barStyle.Width(m.width).Render(Line(m.latest.Segments)), "", footer)
}

// Footer summarises the session so far.
func Footer(frames, segments int, started, now time.Time) string {
	return fmt.Sprintf("frame %s · %d segments · started %s",
		humanize.Comma(int64(frames)), segments, humanize.RelTime(started, now, "ago", "from now"))
}

// Line renders segments left to right. A visible separator becomes a dim
// bar, a zero-width hidden one joins its neighbours, anything else a gap.
func Line(segs []model.Segment) string {
	var b strings.Builder
	for i, s := range segs {
		st := lipgloss.NewStyle()
		if s.Foreground != nil {
			st = st.Foreground(lipgloss.Color(s.Foreground.Hex()))
		}
		if s.Background != nil {
			st = st.Background(lipgloss.Color(s.Background.Hex()))
		}
		b.WriteString(st.Render(s.Text))
		if i == len(segs)-1 {
			break
		}
		switch {
		case s.Separator:
			b.WriteString(subtleStyle.Render(" │ "))
		case s.SeparatorWidth != nil && *s.SeparatorWidth == 0:
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

// RunPreview starts the Bubble Tea program.
func RunPreview(ctx context.Context, cfg config.Config, b *bar.Bar) error {
	m := New(ctx, cfg, b)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return err
	}
	return m.err
}
