package config

import (
	"errors"
	"testing"
)

func TestGetPreset(t *testing.T) {
	tests := []struct {
		name     PresetName
		crf      int
		speed    int
		deadline Deadline
	}{
		{PresetQuality, 28, 0, DeadlineBest},
		{PresetBalanced, 30, 1, DeadlineGood},
		{PresetSmaller, 32, 2, DeadlineGood},
		{PresetSpeedy, 30, 3, DeadlineRealtime},
		{"nonsense", 30, 1, DeadlineGood},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			p := GetPreset(tt.name)
			if p.CRF != tt.crf || p.Speed != tt.speed || p.Deadline != tt.deadline {
				t.Errorf("GetPreset(%q) = %+v", tt.name, p)
			}
		})
	}
}

func TestAvailablePresets_AllDescribed(t *testing.T) {
	for _, name := range AvailablePresets() {
		if !IsPreset(name) {
			t.Errorf("%q listed but not known", name)
		}
		if PresetDescription(name) == "" {
			t.Errorf("%q has no description", name)
		}
	}
	if IsPreset("fastest") {
		t.Error("IsPreset accepted an unknown name")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		ok     bool
	}{
		{"defaults", func(o *Options) {}, true},
		{"no input", func(o *Options) { o.InputPath = " " }, false},
		{"unknown preset", func(o *Options) { o.Preset = "ultra" }, false},
		{"unknown mode", func(o *Options) { o.Mode = "vbr" }, false},
		{"crf in range", func(o *Options) { o.Quality = "36" }, true},
		{"crf out of range", func(o *Options) { o.Quality = "64" }, false},
		{"crf not a number", func(o *Options) { o.Quality = "1M" }, false},
		{"bitrate value", func(o *Options) { o.Mode = ModeBitrate; o.Quality = "800k" }, true},
		{"deadline", func(o *Options) { o.Deadline = "best" }, true},
		{"bad deadline", func(o *Options) { o.Deadline = "slow" }, false},
		{"negative aq", func(o *Options) { o.AQMode = -1 }, false},
		{"bad priority", func(o *Options) { o.Priority = "turbo" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			o.InputPath = "in.mp4"
			tt.mutate(&o)
			err := o.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrInvalidOptions) {
					t.Errorf("error %v does not wrap ErrInvalidOptions", err)
				}
			}
		})
	}
}

func TestResolveQuality(t *testing.T) {
	balanced := GetPreset(PresetBalanced)
	tests := []struct {
		name        string
		mode        Mode
		quality     string
		wantCRF     int
		wantBitrate string
	}{
		{"crf from preset", ModeCRF, "", 30, ""},
		{"crf override", ModeCRF, "24", 24, ""},
		{"crf garbage falls back", ModeCRF, "abc", 30, ""},
		{"bitrate value", ModeBitrate, "800k", 0, "800k"},
		{"bitrate default", ModeBitrate, "  ", 0, DefaultBitrate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crf, br := ResolveQuality(tt.mode, tt.quality, balanced)
			if crf != tt.wantCRF || br != tt.wantBitrate {
				t.Errorf("ResolveQuality = (%d, %q), want (%d, %q)", crf, br, tt.wantCRF, tt.wantBitrate)
			}
		})
	}
}

func TestResolveThreads(t *testing.T) {
	if got := ResolveThreads(6, 16); got != 6 {
		t.Errorf("explicit threads: got %d", got)
	}
	if got := ResolveThreads(0, 16); got != 16 {
		t.Errorf("auto threads: got %d", got)
	}
	if got := ResolveThreads(-3, 0); got != 4 {
		t.Errorf("no cpu count: got %d", got)
	}
}

func TestResolveTile(t *testing.T) {
	if got := ResolveTile(-1, 3); got != 3 {
		t.Errorf("auto: got %d", got)
	}
	if got := ResolveTile(0, 3); got != 0 {
		t.Errorf("explicit zero: got %d", got)
	}
	if got := ResolveTile(2, 3); got != 2 {
		t.Errorf("override: got %d", got)
	}
}

func TestResolveJob(t *testing.T) {
	o := DefaultOptions()
	o.InputPath = "/videos/clip.mp4"
	o.Preset = PresetQuality
	o.Mode = ModeCRF
	o.TwoPass = true
	o.TileRows = 0

	job := ResolveJob(o, 3, 1, 8)
	if job.OutputPath != "/videos/clip.webm" {
		t.Errorf("OutputPath = %q", job.OutputPath)
	}
	if job.CRF != 28 || job.Speed != 0 || job.Deadline != DeadlineBest {
		t.Errorf("preset not applied: %+v", job)
	}
	if job.TwoPass || job.RunsTwoPass() {
		t.Error("two-pass must be ignored in CRF mode")
	}
	if job.Threads != 8 || job.TileColumns != 3 || job.TileRows != 0 {
		t.Errorf("resolution wrong: threads=%d cols=%d rows=%d", job.Threads, job.TileColumns, job.TileRows)
	}

	o.Mode = ModeBitrate
	o.Quality = "2M"
	o.Speed = 4
	o.Deadline = DeadlineRealtime
	o.OutputPath = "out/small.webm"
	job = ResolveJob(o, 3, 1, 8)
	if !job.RunsTwoPass() || job.Bitrate != "2M" || job.CRF != 0 {
		t.Errorf("bitrate job wrong: %+v", job)
	}
	if job.Speed != 4 || job.Deadline != DeadlineRealtime || job.OutputPath != "out/small.webm" {
		t.Errorf("overrides not applied: %+v", job)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := map[string]string{
		"movie.mp4":          "movie.webm",
		"/a/b/clip.MOV":      "/a/b/clip.webm",
		"noext":              "noext.webm",
		"already.webm":       "already.vp9.webm",
		"dir.v1/episode.mkv": "dir.v1/episode.webm",
	}
	for in, want := range tests {
		if got := DefaultOutputPath(in); got != want {
			t.Errorf("DefaultOutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPassLogPath(t *testing.T) {
	if got := PassLogPath("/out/movie.webm"); got != "/out/movie.passlog" {
		t.Errorf("PassLogPath = %q", got)
	}
}
