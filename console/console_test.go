package console

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"vp9-encoder/encoder"
)

func TestSink_LinePerProgressUpdate(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)

	s.OnProgress(25, "2.5s / 10.0s")
	s.OnProgress(50, "5.0s / 10.0s")
	s.OnProgress(100, "Done")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want 3", lines)
	}
	for i, want := range []string{"25.0%", "50.0%", "100.0%"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[1], "5.0s / 10.0s") {
		t.Errorf("status missing from %q", lines[1])
	}
}

func TestSink_InlineBreaksBeforeLog(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, true)

	s.OnProgress(10, "a")
	s.OnProgress(20, "b")
	s.OnLog("progress=continue")

	out := buf.String()
	if strings.Count(out, clearLine) != 2 {
		t.Errorf("inline progress should redraw with a line clear: %q", out)
	}
	if !strings.HasSuffix(out, "\nprogress=continue\n") {
		t.Errorf("log line should start on a fresh line: %q", out)
	}
}

func TestSink_Done(t *testing.T) {
	tests := []struct {
		name    string
		outcome encoder.Outcome
		want    string
	}{
		{
			"success",
			encoder.Outcome{OutputPath: "out.webm", Size: 1024, SizeKnown: true},
			"Complete: out.webm (1.0 KB)",
		},
		{
			"failure",
			encoder.Outcome{Err: &encoder.EncodeError{Pass: 2, ExitCode: 1}},
			"Conversion failed in pass 2/2 (exit code 1)",
		},
		{
			"cancelled",
			encoder.Outcome{Err: encoder.ErrCancelled},
			"Conversion stopped by user",
		},
		{
			"missing input",
			encoder.Outcome{Err: fmt.Errorf("%w: clip.mp4", encoder.ErrInputMissing)},
			"Input missing: clip.mp4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf, false).OnDone(tt.outcome)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("OnDone wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
