package encoder

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced in Outcome.Err.
var (
	ErrBusy         = errors.New("a conversion is already running")
	ErrInputMissing = errors.New("input missing")
	ErrCancelled    = errors.New("stopped by user")
)

// ProbeError reports that the input's duration could not be determined.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("could not read duration of %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// EncodeError reports a non-zero ffmpeg exit. Pass is 0 for single-pass jobs.
type EncodeError struct {
	Pass     int
	ExitCode int
	Err      error // set when the process could not be started or waited on
}

func (e *EncodeError) Error() string {
	msg := "conversion failed"
	if e.Pass > 0 {
		msg = fmt.Sprintf("conversion failed in pass %d/2", e.Pass)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
}

func (e *EncodeError) Unwrap() error { return e.Err }
