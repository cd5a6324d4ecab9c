// Package logging builds the zerolog logger shared by the runner and the
// front-ends.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options selects where log records go.
type Options struct {
	// File, when set, receives JSON records appended at debug level.
	File string
	// Verbose lowers the console threshold from warn to debug.
	Verbose bool
	// Console writes human-readable records to Stderr. The panel UI owns the
	// terminal and turns this off.
	Console bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for opts. Close the returned closer when done; it
// flushes and closes the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.Console {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		level := zerolog.WarnLevel
		if opts.Verbose {
			level = zerolog.DebugLevel
		}
		cw := zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.TimeOnly,
			NoColor:    !colorEnabled(stderr),
		}
		writers = append(writers, levelFilter{w: cw, min: level})
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
	return logger, closer, nil
}

// levelFilter drops records below min.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

// colorEnabled follows NO_COLOR and TERM=dumb and only colors terminals.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || strings.ToLower(os.Getenv("TERM")) == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
