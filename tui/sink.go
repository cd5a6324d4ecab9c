package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"vp9-encoder/config"
	"vp9-encoder/encoder"
)

// progressMsg carries one OnProgress call.
type progressMsg struct {
	percent float64
	status  string
}

// logMsg carries one OnLog call.
type logMsg string

// doneMsg carries the job outcome.
type doneMsg struct {
	outcome encoder.Outcome
}

// runReturnedMsg is sent when Run itself returns. Only a refusal (ErrBusy)
// is interesting; the outcome already arrived as doneMsg.
type runReturnedMsg struct {
	err error
}

// chanSink forwards runner callbacks to the program as messages, one per
// callback, in order. Sends are abandoned once ctx ends so a quitting program
// never strands the runner goroutine.
type chanSink struct {
	ctx    context.Context
	events chan<- tea.Msg
}

func (s chanSink) send(msg tea.Msg) {
	select {
	case s.events <- msg:
	case <-s.ctx.Done():
	}
}

func (s chanSink) OnProgress(percent float64, status string) {
	s.send(progressMsg{percent: percent, status: status})
}

func (s chanSink) OnLog(line string) { s.send(logMsg(line)) }

func (s chanSink) OnDone(o encoder.Outcome) { s.send(doneMsg{outcome: o}) }

// runJob runs the whole job on the command goroutine and closes events when
// the runner is finished with the sink.
func runJob(ctx context.Context, r JobRunner, opts config.Options, events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(events)
		_, err := r.Run(ctx, opts, chanSink{ctx: ctx, events: events})
		return runReturnedMsg{err: err}
	}
}

// waitForEvent delivers the next sink message.
func waitForEvent(sub <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if msg, ok := <-sub; ok {
			return msg
		}
		return nil
	}
}
