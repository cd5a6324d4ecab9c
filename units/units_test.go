package units

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"testing/quick"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0.0 B"},
		{"small", 512, "512.0 B"},
		{"just below KB", 1023, "1023.0 B"},
		{"exactly 1 KB", 1024, "1.0 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"1 MB", 1024 * 1024, "1.0 MB"},
		{"700 MB", 734003200, "700.0 MB"},
		{"1 GB", 1024 * 1024 * 1024, "1.0 GB"},
		{"no TB unit", 2048 * 1024 * 1024 * 1024, "2048.0 GB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

// The chosen unit is the largest one keeping the number below 1024, except
// that GB absorbs everything above it.
func TestFormatBytes_UnitProperty(t *testing.T) {
	f := func(n uint64) bool {
		b := int64(n >> 1)
		out := FormatBytes(b)
		num, unit, ok := strings.Cut(out, " ")
		if !ok {
			return false
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return false
		}
		if unit == "GB" {
			return b >= 1024*1024*1024
		}
		// one-decimal rounding can push e.g. 1023.96 to "1024.0"
		return v < 1024.05
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"01:02:03.500", 3723.5, true},
		{"00:00:05", 5, true},
		{"00:01:23.456789", 83.456789, true},
		{"10:00:00.", 36000, true},
		{"00:00:01.5x", 1, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"bad", 0, false},
		{"01:02", 0, false},
		{"aa:00:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseTimestamp(%q) = %f, want %f", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"1M", 1_000_000, true},
		{"500k", 500_000, true},
		{"12345", 12345, true},
		{" 2.5m ", 2_500_000, true},
		{"800K", 800_000, true},
		{"", 0, false},
		{"   ", 0, false},
		{"fast", 0, false},
		{"k", 0, false},
		{"infm", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseBitrate(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseBitrate(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-1, "—"},
		{0, "0:00"},
		{30 * time.Second, "0:30"},
		{90 * time.Second, "1:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
