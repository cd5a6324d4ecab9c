package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Process is a running encoder subprocess.
type Process interface {
	// Stdout streams the -progress key=value lines.
	Stdout() io.Reader
	// Wait blocks until exit. A non-zero exit is reported through the code,
	// not the error; the error is reserved for wait failures.
	Wait() (exitCode int, err error)
	// Kill terminates the process. Killing an exited process is a no-op.
	Kill() error
	// Pid is the OS process id, or 0 when unknown.
	Pid() int
	// ErrorOutput returns the last lines the process wrote to stderr.
	ErrorOutput() []string
}

// Launcher starts encoder processes.
type Launcher interface {
	Launch(name string, args []string) (Process, error)
}

// ExecLauncher starts real processes with os/exec.
type ExecLauncher struct{}

// Launch starts name with args and a pipe on stdout.
func (ExecLauncher) Launch(name string, args []string) (Process, error) {
	cmd := exec.Command(name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	p := &execProcess{cmd: cmd, stdout: stdout, stderr: newTailWriter(maxStderrLines)}
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailWriter
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() (int, error) {
	// The reader may have stopped at progress=end; everything left has to be
	// read before Wait closes the pipe.
	_, _ = io.Copy(io.Discard, p.stdout)

	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) ErrorOutput() []string { return p.stderr.Lines() }

const maxStderrLines = 20

// tailWriter keeps the last n complete lines written to it.
type tailWriter struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial []byte
}

func newTailWriter(n int) *tailWriter {
	return &tailWriter{max: n}
}

func (w *tailWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, b...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.push(string(bytes.TrimRight(w.partial[:i], "\r")))
		w.partial = w.partial[i+1:]
	}
	return len(b), nil
}

func (w *tailWriter) push(line string) {
	if line == "" {
		return
	}
	w.lines = append(w.lines, line)
	if len(w.lines) > w.max {
		w.lines = w.lines[len(w.lines)-w.max:]
	}
}

// Lines returns the retained lines plus any unterminated trailing text.
func (w *tailWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, len(w.lines), len(w.lines)+1)
	copy(out, w.lines)
	if len(w.partial) > 0 {
		out = append(out, string(w.partial))
	}
	return out
}
