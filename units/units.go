// Package units converts between human-readable quantities (byte counts,
// ffmpeg timestamps, bitrate shorthand) and numbers.
//
// None of the parsers return errors: malformed input yields ok=false and the
// caller decides on a default.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count with one decimal place, scaling by 1024
// up to GB. Values beyond the GB range stay in GB.
func FormatBytes(n int64) string {
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, byteUnits[unit])
}

// ParseTimestamp parses ffmpeg's out_time format "HH:MM:SS[.fraction]" into
// seconds. "N/A", empty and malformed input report ok=false. A fraction that
// is not made of digits only is ignored.
func ParseTimestamp(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}

	hms, fraction, _ := strings.Cut(s, ".")
	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0, false
	}

	var total float64
	for i, mult := range []float64{3600, 60, 1} {
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, false
		}
		total += float64(v) * mult
	}

	if fraction != "" && isDigits(fraction) {
		f, err := strconv.ParseFloat("0."+fraction, 64)
		if err == nil {
			total += f
		}
	}
	return total, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseBitrate converts shorthand like "500k" or "2M" to bits per second.
// A bare number is taken as bits per second.
func ParseBitrate(s string) (int64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = 1_000_000
		s = strings.TrimSuffix(s, "m")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	bps := v * mult
	if math.Abs(bps) >= math.MaxInt64 {
		return 0, false
	}
	return int64(bps), true
}

// FormatClock renders a duration as M:SS or H:MM:SS. Negative durations
// render as a dash.
func FormatClock(d time.Duration) string {
	if d < 0 {
		return "—"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
