package encoder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"vp9-encoder/units"
)

// lineKind classifies one line of ffmpeg -progress output.
type lineKind int

const (
	lineIgnored lineKind = iota
	lineElapsed          // out_time_us / out_time_ms / out_time
	lineState            // progress=continue and friends
	lineEnd              // progress=end
)

// classifyLine parses a key=value progress line. For lineElapsed it also
// returns the elapsed output time in seconds.
func classifyLine(line string) (lineKind, float64) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return lineIgnored, 0
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "out_time_us", "out_time_ms":
		// Both are microsecond counters; out_time_ms is misnamed in ffmpeg.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return lineIgnored, 0
		}
		return lineElapsed, float64(us) / 1_000_000
	case "out_time":
		secs, ok := units.ParseTimestamp(value)
		if !ok {
			return lineIgnored, 0
		}
		return lineElapsed, secs
	case "progress":
		if value == "end" {
			return lineEnd, 0
		}
		return lineState, 0
	}
	return lineIgnored, 0
}

// clampPercentage ensures percentage is within 0-100 range
func clampPercentage(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Percent maps elapsed output time to a clamped percentage of duration.
func Percent(elapsed, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return clampPercentage(elapsed / duration * 100)
}

// progressTracker turns elapsed samples into (percent, status) pairs for one
// pass, with a wall-clock ETA once the pass is past warmup.
type progressTracker struct {
	duration float64
	label    string // "Pass 1/2" or empty
	start    time.Time
	now      func() time.Time
}

func newProgressTracker(duration float64, label string) *progressTracker {
	return &progressTracker{duration: duration, label: label, start: time.Now(), now: time.Now}
}

func (t *progressTracker) sample(elapsed float64) (float64, string) {
	pct := Percent(elapsed, t.duration)

	var b strings.Builder
	if t.label != "" {
		b.WriteString(t.label)
		b.WriteString(" · ")
	}
	fmt.Fprintf(&b, "%.1fs / %.1fs", elapsed, t.duration)
	if eta, ok := t.eta(pct); ok {
		b.WriteString(" · ETA ")
		b.WriteString(units.FormatClock(eta))
	}
	return pct, b.String()
}

// eta extrapolates wall time from the share done so far.
func (t *progressTracker) eta(pct float64) (time.Duration, bool) {
	if pct < 1 || pct >= 100 {
		return 0, false
	}
	spent := t.now().Sub(t.start)
	if spent <= 0 {
		return 0, false
	}
	return time.Duration(float64(spent) * (100 - pct) / pct), true
}
