package encoder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 10 * time.Second

// MediaInfo is what a job needs to know about its input.
type MediaInfo struct {
	Duration      float64 // seconds, > 0
	Width         int
	Height        int
	HasDimensions bool
}

// Prober queries an input file for duration and frame size.
type Prober interface {
	// Duration returns the container duration in seconds or a *ProbeError.
	Duration(ctx context.Context, path string) (float64, error)
	// Dimensions returns the first video stream's size; ok is false on any
	// failure and callers fall back to default tiling.
	Dimensions(ctx context.Context, path string) (width, height int, ok bool)
}

// FFprobe implements Prober with the ffprobe binary.
type FFprobe struct {
	Path string // binary name or path; "ffprobe" when empty
}

func (p FFprobe) bin() string {
	if p.Path == "" {
		return "ffprobe"
	}
	return p.Path
}

// Duration runs ffprobe for format=duration.
func (p FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.bin(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, &ProbeError{Path: path, Err: err}
	}
	d, err := parseDuration(out)
	if err != nil {
		return 0, &ProbeError{Path: path, Err: err}
	}
	return d, nil
}

// Dimensions runs ffprobe for the first video stream's width and height.
func (p FFprobe) Dimensions(ctx context.Context, path string) (int, int, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.bin(),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0:s=x",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, false
	}
	return parseDimensions(out)
}

// parseDuration accepts a single positive float.
func parseDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, errors.New("empty ffprobe output")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q", s)
	}
	if !(d > 0) || d > maxDuration {
		return 0, fmt.Errorf("duration %q out of range", s)
	}
	return d, nil
}

// maxDuration rejects Inf and nonsense values; one week of video.
const maxDuration = 7 * 24 * 3600

// parseDimensions accepts "WIDTHxHEIGHT". Some containers repeat the line
// or add a trailing separator; only the first line counts.
func parseDimensions(out []byte) (int, int, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	line = strings.TrimSuffix(strings.TrimSpace(line), "x")
	ws, hs, ok := strings.Cut(line, "x")
	if !ok {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	h, err2 := strconv.Atoi(strings.TrimSpace(hs))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// probeMedia collects MediaInfo; only the duration is mandatory.
func probeMedia(ctx context.Context, p Prober, path string) (MediaInfo, error) {
	d, err := p.Duration(ctx, path)
	if err != nil {
		var pe *ProbeError
		if !errors.As(err, &pe) {
			err = &ProbeError{Path: path, Err: err}
		}
		return MediaInfo{}, err
	}
	info := MediaInfo{Duration: d}
	info.Width, info.Height, info.HasDimensions = p.Dimensions(ctx, path)
	return info, nil
}
