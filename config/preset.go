// Package config holds the preset catalogue, the raw user options and the
// resolution rules that turn them into a concrete encode job.
package config

import "strings"

// PresetName identifies an entry of the preset catalogue.
type PresetName string

const (
	PresetQuality  PresetName = "quality"  // CRF 28, speed 0, best
	PresetBalanced PresetName = "balanced" // CRF 30, speed 1, good
	PresetSmaller  PresetName = "smaller"  // CRF 32, speed 2, good
	PresetSpeedy   PresetName = "speedy"   // CRF 30, speed 3, realtime
)

// Preset seeds CRF, speed and deadline for a job.
type Preset struct {
	Name     PresetName
	Label    string
	CRF      int
	Speed    int // libvpx -cpu-used; 0 is slowest/best
	Deadline Deadline
}

var presets = []Preset{
	{PresetQuality, "Quality First (CRF 28, speed 0, best)", 28, 0, DeadlineBest},
	{PresetBalanced, "Balanced (CRF 30, speed 1, good)", 30, 1, DeadlineGood},
	{PresetSmaller, "Smaller (CRF 32, speed 2, good)", 32, 2, DeadlineGood},
	{PresetSpeedy, "Speedy (CRF 30, speed 3, realtime)", 30, 3, DeadlineRealtime},
}

// AvailablePresets returns all preset names in display order.
func AvailablePresets() []PresetName {
	names := make([]PresetName, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// IsPreset reports whether name is in the catalogue.
func IsPreset(name PresetName) bool {
	for _, p := range presets {
		if p.Name == name {
			return true
		}
	}
	return false
}

// ParsePreset normalises user input to a PresetName. Unknown names are
// returned as-is so Validate can report them.
func ParsePreset(s string) PresetName {
	return PresetName(strings.ToLower(strings.TrimSpace(s)))
}

// GetPreset returns the preset for name, falling back to balanced.
func GetPreset(name PresetName) Preset {
	for _, p := range presets {
		if p.Name == name {
			return p
		}
	}
	return presets[1]
}

// PresetDescription returns a human-readable description of a preset.
func PresetDescription(name PresetName) string {
	switch name {
	case PresetQuality:
		return "Slowest, best looking output - for content worth the wait"
	case PresetSmaller:
		return "Trades a little quality for noticeably smaller files"
	case PresetSpeedy:
		return "Realtime deadline - quick previews and drafts"
	default:
		return "Good quality/size balance for general content"
	}
}
