package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Mode selects what drives output quality.
type Mode string

const (
	ModeCRF     Mode = "crf"     // Quality-targeted, output size varies
	ModeBitrate Mode = "bitrate" // Size-targeted average bitrate
)

// Deadline is the libvpx effort class.
type Deadline string

const (
	DeadlineGood     Deadline = "good"
	DeadlineBest     Deadline = "best"
	DeadlineRealtime Deadline = "realtime"
)

// Deadlines returns the accepted deadline classes.
func Deadlines() []Deadline {
	return []Deadline{DeadlineGood, DeadlineBest, DeadlineRealtime}
}

// ParseDeadline accepts any of the names returned by Deadlines.
func ParseDeadline(s string) (Deadline, error) {
	d := Deadline(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Deadlines() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown deadline %q (good, best, realtime)", ErrInvalidOptions, s)
}

// Priority is the OS scheduling class requested for the encoder process.
type Priority string

const (
	PriorityIdle   Priority = "idle"
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ErrInvalidOptions wraps every validation failure of Options.
var ErrInvalidOptions = errors.New("invalid options")

const (
	// DefaultBitrate is used when bitrate mode is chosen with no value.
	DefaultBitrate = "1M"
	// DefaultAQMode is libvpx variance AQ.
	DefaultAQMode = 1
	// AutoTile asks for the resolution heuristic.
	AutoTile = -1
	// AutoSpeed keeps the preset's speed.
	AutoSpeed = -1

	outputExt  = ".webm"
	passLogExt = ".passlog"
)

// Options is the raw user request as collected by the CLI or the panel UI.
// It becomes a Job once the runner has probed the input.
type Options struct {
	InputPath  string
	OutputPath string // empty: derived from InputPath

	Preset PresetName
	Mode   Mode
	// Quality holds the CRF digits in ModeCRF and the bitrate shorthand
	// ("1M", "800k") in ModeBitrate. Empty means the preset/default value.
	Quality string

	Speed       int      // AutoSpeed keeps the preset value
	Deadline    Deadline // empty keeps the preset value
	Threads     int      // 0 or negative: all logical CPUs
	TileColumns int      // negative: heuristic
	TileRows    int      // negative: heuristic
	AQMode      int
	HWDecode    bool
	TwoPass     bool // honoured in ModeBitrate only
	Overwrite   bool
	Priority    Priority

	FFmpegPath  string
	FFprobePath string
}

// DefaultOptions returns options for the balanced preset in CRF mode.
func DefaultOptions() Options {
	return Options{
		Preset:      PresetBalanced,
		Mode:        ModeCRF,
		Speed:       AutoSpeed,
		TileColumns: AutoTile,
		TileRows:    AutoTile,
		AQMode:      DefaultAQMode,
		Priority:    PriorityNormal,
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
	}
}

// Validate checks the fields that do not need the filesystem.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.InputPath) == "" {
		return fmt.Errorf("%w: input file is required", ErrInvalidOptions)
	}
	if !IsPreset(o.Preset) {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidOptions, o.Preset)
	}
	switch o.Mode {
	case ModeCRF:
		if q := strings.TrimSpace(o.Quality); q != "" {
			crf, err := strconv.Atoi(q)
			if err != nil || crf < 0 || crf > 63 {
				return fmt.Errorf("%w: CRF must be 0-63, got %q", ErrInvalidOptions, o.Quality)
			}
		}
	case ModeBitrate:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode)
	}
	if o.Deadline != "" {
		if _, err := ParseDeadline(string(o.Deadline)); err != nil {
			return err
		}
	}
	if o.AQMode < 0 {
		return fmt.Errorf("%w: aq-mode must not be negative", ErrInvalidOptions)
	}
	switch o.Priority {
	case "", PriorityIdle, PriorityLow, PriorityNormal, PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidOptions, o.Priority)
	}
	return nil
}

// Job is the fully resolved configuration of one encode.
type Job struct {
	InputPath   string
	OutputPath  string
	Mode        Mode
	CRF         int
	Bitrate     string
	Speed       int
	Deadline    Deadline
	Threads     int
	TileColumns int
	TileRows    int
	AQMode      int
	HWDecode    bool
	TwoPass     bool
	Overwrite   bool
}

// RunsTwoPass reports whether the job uses an analysis pass.
func (j Job) RunsTwoPass() bool {
	return j.TwoPass && j.Mode == ModeBitrate
}

// Describe is a one-line summary of the quality driver.
func (j Job) Describe() string {
	if j.Mode == ModeBitrate {
		if j.RunsTwoPass() {
			return fmt.Sprintf("Bitrate %s (size-targeted, 2-pass)", j.Bitrate)
		}
		return fmt.Sprintf("Bitrate %s (size-targeted)", j.Bitrate)
	}
	return fmt.Sprintf("CRF %d (quality-targeted)", j.CRF)
}

// ResolveJob builds a Job from options plus the probe-dependent values the
// runner has gathered: the tiling heuristic's choice and the CPU count.
func ResolveJob(o Options, autoCols, autoRows, cpus int) Job {
	preset := GetPreset(o.Preset)
	crf, bitrate := ResolveQuality(o.Mode, o.Quality, preset)

	speed := preset.Speed
	if o.Speed >= 0 {
		speed = o.Speed
	}
	deadline := preset.Deadline
	if o.Deadline != "" {
		deadline = o.Deadline
	}

	output := strings.TrimSpace(o.OutputPath)
	if output == "" {
		output = DefaultOutputPath(o.InputPath)
	}

	return Job{
		InputPath:   o.InputPath,
		OutputPath:  output,
		Mode:        o.Mode,
		CRF:         crf,
		Bitrate:     bitrate,
		Speed:       speed,
		Deadline:    deadline,
		Threads:     ResolveThreads(o.Threads, cpus),
		TileColumns: ResolveTile(o.TileColumns, autoCols),
		TileRows:    ResolveTile(o.TileRows, autoRows),
		AQMode:      o.AQMode,
		HWDecode:    o.HWDecode,
		TwoPass:     o.TwoPass && o.Mode == ModeBitrate,
		Overwrite:   o.Overwrite,
	}
}

// ResolveQuality picks the active quality driver. In CRF mode a valid
// user value beats the preset CRF; in bitrate mode an empty value falls back
// to DefaultBitrate. The inactive driver is returned as its zero value.
func ResolveQuality(mode Mode, quality string, preset Preset) (crf int, bitrate string) {
	quality = strings.TrimSpace(quality)
	if mode == ModeBitrate {
		if quality == "" {
			return 0, DefaultBitrate
		}
		return 0, quality
	}
	if v, err := strconv.Atoi(quality); err == nil && v >= 0 {
		return v, ""
	}
	return preset.CRF, ""
}

// ResolveThreads returns requested when positive, else the CPU count, else 4.
func ResolveThreads(requested, cpus int) int {
	if requested > 0 {
		return requested
	}
	if cpus > 0 {
		return cpus
	}
	return 4
}

// ResolveTile returns override when it is zero or more, else auto.
func ResolveTile(override, auto int) int {
	if override >= 0 {
		return override
	}
	return auto
}

// DefaultOutputPath replaces the input extension with .webm. A .webm input
// gets a .vp9.webm output so the source is never overwritten.
func DefaultOutputPath(input string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	if out := stem + outputExt; out != input {
		return out
	}
	return stem + ".vp9" + outputExt
}

// PassLogPath is the two-pass statistics prefix for an output file.
func PassLogPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + passLogExt
}
