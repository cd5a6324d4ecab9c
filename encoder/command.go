package encoder

import (
	"runtime"
	"strconv"

	"vp9-encoder/config"
)

// Pass selects which pass of a two-pass encode BuildArgs describes. The zero
// value is a plain single-pass encode.
type Pass struct {
	Number     int    // 1 or 2; 0 for single pass
	LogPath    string // -passlogfile prefix
	NullOutput bool   // discard output (analysis pass)
}

// hostOS gates -hwaccel; tests override it.
var hostOS = runtime.GOOS

func nullDevice() string {
	if hostOS == "windows" {
		return "NUL"
	}
	return "/dev/null"
}

// BuildArgs returns the ffmpeg arguments (without the binary name) for job.
// The order is fixed: globals, hwaccel, input, -an, codec block, speed and
// deadline, quality driver, pass, progress reporting, output.
func BuildArgs(job config.Job, pass Pass) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if job.Overwrite {
		args = append(args, "-y")
	}

	// VideoToolbox is the only accelerator wired up.
	if job.HWDecode && hostOS == "darwin" {
		args = append(args, "-hwaccel", "videotoolbox")
	}

	args = append(args,
		"-i", job.InputPath,
		"-an",
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuv420p",
		"-row-mt", "1",
		"-tile-columns", strconv.Itoa(job.TileColumns),
		"-tile-rows", strconv.Itoa(job.TileRows),
		"-threads", strconv.Itoa(job.Threads),
		"-aq-mode", strconv.Itoa(job.AQMode),
		"-auto-alt-ref", "1",
		"-lag-in-frames", "25",
		"-cpu-used", strconv.Itoa(job.Speed),
		"-deadline", string(job.Deadline),
	)

	if job.Mode == config.ModeBitrate {
		args = append(args, "-b:v", job.Bitrate)
	} else {
		// -b:v 0 lifts the bitrate cap so CRF alone drives quality
		args = append(args, "-crf", strconv.Itoa(job.CRF), "-b:v", "0")
	}

	if pass.Number > 0 && pass.LogPath != "" {
		args = append(args, "-pass", strconv.Itoa(pass.Number), "-passlogfile", pass.LogPath)
	}

	args = append(args, "-progress", "pipe:1", "-nostats")

	if pass.NullOutput {
		return append(args, "-f", "null", nullDevice())
	}
	return append(args, job.OutputPath)
}
