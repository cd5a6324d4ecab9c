package encoder

import (
	"math"
	"strings"
	"testing"
	"testing/quick"
	"time"
)

// For any percentage value, clampPercentage returns a value in [0, 100].
func TestClampPercentage_Property(t *testing.T) {
	f := func(pct float64) bool {
		if math.IsNaN(pct) || math.IsInf(pct, 0) {
			return true
		}
		result := clampPercentage(pct)
		return result >= 0 && result <= 100
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

// Percent never leaves [0, 100] for any elapsed time and positive duration.
func TestPercent_Property(t *testing.T) {
	f := func(elapsedUs uint64, durationMs uint32) bool {
		if durationMs == 0 {
			return Percent(float64(elapsedUs), 0) == 0
		}
		p := Percent(float64(elapsedUs)/1e6, float64(durationMs)/1e3)
		return p >= 0 && p <= 100
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		elapsed, duration, want float64
	}{
		{5, 10, 50},
		{0, 10, 0},
		{15, 10, 100},
		{-1, 10, 0},
		{5, 0, 0},
		{5, -3, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.elapsed, tt.duration); got != tt.want {
			t.Errorf("Percent(%v, %v) = %v, want %v", tt.elapsed, tt.duration, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line     string
		wantKind lineKind
		wantSecs float64
	}{
		{"out_time_us=5000000", lineElapsed, 5},
		{"out_time_ms=5000000", lineElapsed, 5},
		{"out_time=00:01:02.500000", lineElapsed, 62.5},
		{"  out_time_us = 1500000  ", lineElapsed, 1.5},
		{"out_time_us=N/A", lineIgnored, 0},
		{"out_time_us=-1", lineIgnored, 0},
		{"out_time=N/A", lineIgnored, 0},
		{"progress=continue", lineState, 0},
		{"progress=end", lineEnd, 0},
		{"frame=120", lineIgnored, 0},
		{"fps=29.97", lineIgnored, 0},
		{"garbage", lineIgnored, 0},
		{"", lineIgnored, 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			kind, secs := classifyLine(tt.line)
			if kind != tt.wantKind {
				t.Fatalf("classifyLine(%q) kind = %v, want %v", tt.line, kind, tt.wantKind)
			}
			if math.Abs(secs-tt.wantSecs) > 1e-9 {
				t.Errorf("classifyLine(%q) secs = %v, want %v", tt.line, secs, tt.wantSecs)
			}
		})
	}
}

func TestProgressTracker_Status(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := &progressTracker{duration: 10, label: "Pass 1/2", start: start}

	tr.now = func() time.Time { return start.Add(5 * time.Second) }
	pct, status := tr.sample(5)
	if pct != 50 {
		t.Errorf("pct = %v, want 50", pct)
	}
	if want := "Pass 1/2 · 5.0s / 10.0s · ETA 0:05"; status != want {
		t.Errorf("status = %q, want %q", status, want)
	}
}

func TestProgressTracker_NoETAOutsideWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := &progressTracker{duration: 100, start: start}
	tr.now = func() time.Time { return start.Add(time.Second) }

	for _, elapsed := range []float64{0, 0.5, 100, 120} {
		_, status := tr.sample(elapsed)
		if strings.Contains(status, "ETA") {
			t.Errorf("sample(%v) status %q should not carry an ETA", elapsed, status)
		}
		if strings.HasPrefix(status, " · ") {
			t.Errorf("unlabelled status %q has a dangling separator", status)
		}
	}
}
