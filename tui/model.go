package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vp9-encoder/config"
	"vp9-encoder/encoder"
)

// JobRunner is what the panel needs from encoder.Runner.
type JobRunner interface {
	Run(ctx context.Context, opts config.Options, sink encoder.Sink) (encoder.Outcome, error)
	Stop() bool
	Busy() bool
}

// Phase is the panel's view of the job lifecycle.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseRunning
	PhaseFinished
)

// field is a focusable control. The first four are text inputs and index
// Model.inputs directly.
type field int

const (
	fieldInput field = iota
	fieldOutput
	fieldQuality
	fieldThreads
	fieldPreset
	fieldMode
	fieldHWDecode
	fieldTwoPass
	fieldCount
)

const textFields = int(fieldThreads) + 1

const maxLogLines = 500

// Model is the Bubble Tea model for the panel UI
type Model struct {
	runner JobRunner
	base   config.Options // flag values the form does not expose

	inputs    []textinput.Model
	focus     field
	presetIdx int
	mode      config.Mode
	hwDecode  bool
	twoPass   bool

	Phase   Phase
	events  chan tea.Msg
	cancel  context.CancelFunc
	started time.Time

	spinner  spinner.Model
	progress progress.Model
	percent  float64
	status   string

	logs        []string
	LogViewport viewport.Model
	outcome     *encoder.Outcome
	errMsg      string

	Width  int
	Height int
}

// NewModel creates the panel pre-filled from base.
func NewModel(runner JobRunner, base config.Options) Model {
	newInput := func(placeholder, value string, width int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 1000
		ti.Width = width
		ti.SetValue(value)
		return ti
	}

	threads := ""
	if base.Threads > 0 {
		threads = strconv.Itoa(base.Threads)
	}

	inputs := make([]textinput.Model, textFields)
	inputs[fieldInput] = newInput("path to source video", base.InputPath, 60)
	inputs[fieldOutput] = newInput("defaults to <input>.webm", base.OutputPath, 60)
	inputs[fieldQuality] = newInput("", base.Quality, 12)
	inputs[fieldThreads] = newInput("auto", threads, 6)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorSecondary)

	// Custom gradient: violet -> emerald (matches our color scheme)
	prog := progress.New(
		progress.WithGradient("#7C3AED", "#10B981"),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	vp := viewport.New(80, 8)
	vp.SetContent("")

	mode := base.Mode
	if mode == "" {
		mode = config.ModeCRF
	}

	m := Model{
		runner:      runner,
		base:        base,
		inputs:      inputs,
		presetIdx:   presetIndex(base.Preset),
		mode:        mode,
		hwDecode:    base.HWDecode,
		twoPass:     base.TwoPass,
		Phase:       PhaseEditing,
		spinner:     s,
		progress:    prog,
		LogViewport: vp,
	}
	m.setFocus(fieldInput)
	m.refreshQualityPlaceholder()
	return m
}

func presetIndex(name config.PresetName) int {
	for i, p := range config.AvailablePresets() {
		if p == name {
			return i
		}
	}
	for i, p := range config.AvailablePresets() {
		if p == config.PresetBalanced {
			return i
		}
	}
	return 0
}

// Init initializes the Bubble Tea program
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.progress.Width = max(msg.Width-24, 10)
		m.LogViewport.Width = max(msg.Width-6, 20)

		// Ensure viewport height doesn't go negative
		m.LogViewport.Height = max(msg.Height-24, 3)
		return m, nil

	case progressMsg:
		m.percent = msg.percent
		m.status = msg.status
		return m, waitForEvent(m.events)

	case logMsg:
		m.appendLog(string(msg))
		return m, waitForEvent(m.events)

	case doneMsg:
		out := msg.outcome
		m.outcome = &out
		m.Phase = PhaseFinished
		if m.cancel != nil {
			m.cancel()
		}
		return m, m.setFocus(fieldInput)

	case runReturnedMsg:
		// A refused start never reaches OnDone.
		if msg.err != nil && m.Phase == PhaseRunning {
			m.Phase = PhaseEditing
			m.errMsg = capitalizeFirst(msg.err.Error())
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stop()
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case "esc":
		if m.Phase == PhaseRunning {
			m.stop()
			return m, nil
		}
		return m, tea.Quit
	case "enter":
		return m.start()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.LogViewport, cmd = m.LogViewport.Update(msg)
		return m, cmd
	}

	if m.Phase == PhaseRunning {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "left", "right", " ":
		if m.focus >= fieldPreset {
			m.cycle(msg.String() == "left")
			return m, nil
		}
	}
	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.Phase == PhaseRunning || int(m.focus) >= textFields {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// cycle changes the focused selector or toggle.
func (m *Model) cycle(back bool) {
	switch m.focus {
	case fieldPreset:
		n := len(config.AvailablePresets())
		if back {
			m.presetIdx = (m.presetIdx + n - 1) % n
		} else {
			m.presetIdx = (m.presetIdx + 1) % n
		}
	case fieldMode:
		if m.mode == config.ModeCRF {
			m.mode = config.ModeBitrate
		} else {
			m.mode = config.ModeCRF
		}
		m.inputs[fieldQuality].SetValue("")
	case fieldHWDecode:
		m.hwDecode = !m.hwDecode
	case fieldTwoPass:
		m.twoPass = !m.twoPass
	}
	m.refreshQualityPlaceholder()
}

func (m *Model) refreshQualityPlaceholder() {
	if m.mode == config.ModeBitrate {
		m.inputs[fieldQuality].Placeholder = config.DefaultBitrate
		return
	}
	m.inputs[fieldQuality].Placeholder = strconv.Itoa(m.preset().CRF)
}

func (m Model) preset() config.Preset {
	return config.GetPreset(config.AvailablePresets()[m.presetIdx])
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if field(i) == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// options merges the form into the flag defaults.
func (m Model) options() (config.Options, error) {
	opts := m.base
	opts.InputPath = strings.TrimSpace(m.inputs[fieldInput].Value())
	opts.OutputPath = strings.TrimSpace(m.inputs[fieldOutput].Value())
	opts.Quality = strings.TrimSpace(m.inputs[fieldQuality].Value())
	opts.Preset = config.AvailablePresets()[m.presetIdx]
	opts.Mode = m.mode
	opts.HWDecode = m.hwDecode
	opts.TwoPass = m.twoPass

	opts.Threads = 0
	if s := strings.TrimSpace(m.inputs[fieldThreads].Value()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("threads must be a whole number, got %q", s)
		}
		opts.Threads = n
	}
	return opts, nil
}

// start launches a job unless one is already running.
func (m Model) start() (tea.Model, tea.Cmd) {
	if m.Phase == PhaseRunning || m.runner.Busy() {
		m.appendLog("A conversion is already running")
		return m, nil
	}
	opts, err := m.options()
	if err != nil {
		m.errMsg = capitalizeFirst(err.Error())
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg)

	m.Phase = PhaseRunning
	m.events = events
	m.cancel = cancel
	m.started = time.Now()
	m.percent = 0
	m.status = "Probing input…"
	m.outcome = nil
	m.errMsg = ""
	m.logs = nil
	m.LogViewport.SetContent("")
	m.setFocus(fieldCount)

	return m, tea.Batch(
		m.spinner.Tick,
		runJob(ctx, m.runner, opts, events),
		waitForEvent(events),
	)
}

func (m *Model) stop() {
	if m.Phase != PhaseRunning {
		return
	}
	if m.runner.Stop() {
		m.appendLog("Stopping…")
	}
}

func (m *Model) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	rendered := make([]string, len(m.logs))
	for i, l := range m.logs {
		rendered[i] = renderNote(l)
	}
	m.LogViewport.SetContent(strings.Join(rendered, "\n"))
	m.LogViewport.GotoBottom()
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
