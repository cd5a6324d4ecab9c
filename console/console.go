// Package console renders job progress as plain terminal lines.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"vp9-encoder/encoder"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED") // Violet
	colorSuccess = lipgloss.Color("#10B981") // Emerald
	colorError   = lipgloss.Color("#EF4444") // Red
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorMuted   = lipgloss.Color("#6B7280") // Gray

	percentStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	noteStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

const clearLine = "\r\x1b[2K"

// Sink writes one line per event. In Inline mode progress redraws a single
// terminal line instead.
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	bar    progress.Model
	inline bool

	pending bool // an inline progress line is on screen without a newline
}

// New returns a console sink writing to out. Inline should only be set when
// out is a terminal.
func New(out io.Writer, inline bool) *Sink {
	return &Sink{
		out: out,
		bar: progress.New(
			progress.WithGradient("#7C3AED", "#10B981"),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		inline: inline,
	}
}

var _ encoder.Sink = (*Sink)(nil)

// OnProgress draws the bar with percent and status.
func (s *Sink) OnProgress(percent float64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("%s %s  %s",
		s.bar.ViewAs(percent/100),
		percentStyle.Render(fmt.Sprintf("%5.1f%%", percent)),
		statusStyle.Render(status),
	)
	if s.inline {
		fmt.Fprint(s.out, clearLine+line)
		s.pending = true
		return
	}
	fmt.Fprintln(s.out, line)
}

// OnLog prints line, highlighting advisories.
func (s *Sink) OnLog(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.breakLine()
	if strings.HasPrefix(line, "Note:") {
		line = noteStyle.Render(line)
	}
	fmt.Fprintln(s.out, line)
}

// OnDone prints the outcome message.
func (s *Sink) OnDone(o encoder.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.breakLine()
	if o.OK() {
		fmt.Fprintln(s.out, successStyle.Render("✓ "+o.Message()))
		return
	}
	fmt.Fprintln(s.out, errorStyle.Render("✗ "+o.Message()))
}

// breakLine ends a pending inline progress line.
func (s *Sink) breakLine() {
	if s.pending {
		fmt.Fprintln(s.out)
		s.pending = false
	}
}
