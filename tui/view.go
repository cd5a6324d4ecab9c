package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"vp9-encoder/config"
	"vp9-encoder/units"
)

// Color palette - modern, readable
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Violet
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#10B981") // Emerald
	colorError     = lipgloss.Color("#EF4444") // Red
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorText      = lipgloss.Color("#F9FAFB") // White
	colorTextDim   = lipgloss.Color("#9CA3AF") // Light gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
)

var (
	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	// Section headers
	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				MarginTop(1)

	// Settings panel
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	focusedPanelStyle = panelStyle.
				BorderForeground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	// Help text
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	// Log viewport
	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	// Percentage styles based on progress
	percentLowStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	percentMidStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	percentHighStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)
)

// formatPercentage caps the display at 99.9% until the job reports done.
func formatPercentage(pct float64, done bool) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if !done && pct > 99.9 {
		pct = 99.9
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// getPercentageStyle returns appropriate style based on progress
func getPercentageStyle(pct float64) lipgloss.Style {
	if pct < 33 {
		return percentLowStyle
	} else if pct < 66 {
		return percentMidStyle
	}
	return percentHighStyle
}

func truncatePath(path string, maxLen int) string {
	runes := []rune(path)
	if len(runes) <= maxLen {
		return path
	}
	// Show beginning and end
	if maxLen < 20 {
		return string(runes[:maxLen-3]) + "..."
	}
	half := (maxLen - 5) / 2
	return string(runes[:half]) + " ... " + string(runes[len(runes)-half:])
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" ▶ VP9 Encoder ") + "\n")
	b.WriteString(m.renderSettings() + "\n")

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render("  ✗ "+m.errMsg) + "\n")
	}

	if m.Phase != PhaseEditing {
		b.WriteString(m.renderProgress())
	}

	if len(m.logs) > 0 {
		b.WriteString(sectionHeaderStyle.Render("  Encoder Output") + "\n")
		b.WriteString(logBoxStyle.Render(m.LogViewport.View()) + "\n")
	}

	b.WriteString(helpStyle.Render(m.helpText()) + "\n")
	return b.String()
}

func (m Model) renderSettings() string {
	row := func(f field, label, value string) string {
		ls := labelStyle
		marker := "  "
		if m.focus == f && m.Phase != PhaseRunning {
			ls = focusedLabelStyle
			marker = "▸ "
		}
		return marker + ls.Render(label) + value
	}
	selector := func(f field, value, hint string) string {
		v := valueStyle.Render(value)
		if m.focus == f && m.Phase != PhaseRunning {
			v = "‹ " + v + " ›"
		}
		if hint != "" {
			v += "  " + hintStyle.Render(hint)
		}
		return v
	}

	qualityLabel := "CRF"
	if m.mode == config.ModeBitrate {
		qualityLabel = "Bitrate"
	}
	p := m.preset()

	lines := []string{
		row(fieldInput, "Input", m.inputs[fieldInput].View()),
		row(fieldOutput, "Output", m.inputs[fieldOutput].View()),
		row(fieldQuality, qualityLabel, m.inputs[fieldQuality].View()),
		row(fieldThreads, "Threads", m.inputs[fieldThreads].View()),
		row(fieldPreset, "Preset", selector(fieldPreset, p.Label, config.PresetDescription(p.Name))),
		row(fieldMode, "Mode", selector(fieldMode, modeLabel(m.mode), "")),
		row(fieldHWDecode, "HW decode", selector(fieldHWDecode, onOff(m.hwDecode), "VideoToolbox, macOS only")),
		row(fieldTwoPass, "Two-pass", selector(fieldTwoPass, onOff(m.twoPass), "bitrate mode only")),
	}

	style := panelStyle
	if m.Phase != PhaseRunning {
		style = focusedPanelStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func modeLabel(mode config.Mode) string {
	if mode == config.ModeBitrate {
		return "Bitrate (size-targeted)"
	}
	return "CRF (quality-targeted)"
}

func (m Model) renderProgress() string {
	var b strings.Builder
	b.WriteString("\n")

	done := m.outcome != nil && m.outcome.OK()
	pct := formatPercentage(m.percent, done)
	lead := "  "
	if m.Phase == PhaseRunning && m.percent == 0 {
		lead = " " + m.spinner.View() + " "
	}
	b.WriteString(lead + m.progress.ViewAs(m.percent/100) + "  " +
		getPercentageStyle(m.percent).Render(pct) + "\n")

	status := m.status
	if m.Phase == PhaseRunning && !m.started.IsZero() {
		status += "  ·  elapsed " + units.FormatClock(time.Since(m.started))
	}
	b.WriteString("  " + hintStyle.Render(status) + "\n")

	if m.outcome != nil {
		msg := truncatePath(m.outcome.Message(), max(m.Width-6, 60))
		if m.outcome.OK() {
			b.WriteString("\n" + successStyle.Render("  ✓ "+msg) + "\n")
		} else {
			b.WriteString("\n" + errorStyle.Render("  ✗ "+msg) + "\n")
		}
	}
	return b.String()
}

func (m Model) helpText() string {
	if m.Phase == PhaseRunning {
		return "  [Esc] Stop  •  [PgUp/PgDn] Scroll log  •  [Ctrl+C] Quit"
	}
	return "  [Tab] Next field  •  [←/→] Change  •  [Enter] Start  •  [Esc] Quit"
}

// renderNote highlights advisory log lines.
func renderNote(line string) string {
	if strings.HasPrefix(line, "Note:") {
		return warningStyle.Render(line)
	}
	return line
}
