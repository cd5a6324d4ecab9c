package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"vp9-encoder/config"
	"vp9-encoder/console"
	"vp9-encoder/encoder"
	"vp9-encoder/logging"
	"vp9-encoder/tui"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	opts        config.Options
	tui         bool
	listPresets bool
	showVersion bool
	logFile     string
	verbose     bool

	preset   string
	bitrate  string
	crf      int
	deadline string
	priority string
}

func newFlagSet(f *cliFlags, stdout io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("vp9-encoder", flag.ContinueOnError)
	fs.SetOutput(stdout)
	def := config.DefaultOptions()

	fs.BoolVar(&f.tui, "tui", false, "Open the interactive panel UI")
	fs.StringVar(&f.preset, "preset", string(def.Preset), "Encoding preset: quality, balanced, smaller, speedy")
	fs.BoolVar(&f.listPresets, "list-presets", false, "List all available presets and exit")

	fs.StringVar(&f.bitrate, "bitrate", "", "Target bitrate (e.g. 800k, 2M); switches to bitrate mode")
	fs.StringVar(&f.bitrate, "b", "", "Same as -bitrate")
	fs.IntVar(&f.crf, "crf", -1, "Constant quality 0-63 (default: preset value)")
	fs.IntVar(&f.opts.Speed, "speed", config.AutoSpeed, "libvpx -cpu-used 0-5 (default: preset value)")
	fs.StringVar(&f.deadline, "deadline", "", "Deadline: good, best, realtime (default: preset value)")
	fs.IntVar(&f.opts.Threads, "threads", 0, "Encoder threads (0 = all logical CPUs)")
	fs.IntVar(&f.opts.TileColumns, "tile-columns", config.AutoTile, "log2 tile columns (-1 = by resolution)")
	fs.IntVar(&f.opts.TileRows, "tile-rows", config.AutoTile, "log2 tile rows (-1 = by resolution)")
	fs.IntVar(&f.opts.AQMode, "aq-mode", config.DefaultAQMode, "libvpx adaptive quantization mode")
	fs.BoolVar(&f.opts.HWDecode, "hwdec", false, "Hardware-accelerated decoding (VideoToolbox, macOS only)")
	fs.BoolVar(&f.opts.TwoPass, "two-pass", false, "Two-pass encode (bitrate mode only)")
	fs.BoolVar(&f.opts.Overwrite, "y", false, "Overwrite the output file")
	fs.StringVar(&f.priority, "priority", string(def.Priority), "Encoder process priority: idle, low, normal, high")

	fs.StringVar(&f.opts.FFmpegPath, "ffmpeg", def.FFmpegPath, "ffmpeg binary")
	fs.StringVar(&f.opts.FFprobePath, "ffprobe", def.FFprobePath, "ffprobe binary")
	fs.StringVar(&f.logFile, "log", "", "Append JSON logs to file")
	fs.BoolVar(&f.verbose, "verbose", false, "Debug logging on stderr")
	fs.BoolVar(&f.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "Usage: vp9-encoder [options] <input-file> [output-file]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Encodes video to VP9/WebM using FFmpeg with libvpx-vp9.")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Presets:")
		for _, p := range config.AvailablePresets() {
			fmt.Fprintf(stdout, "  %-10s %s\n", p, config.PresetDescription(p))
		}
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Examples:")
		fmt.Fprintln(stdout, "  vp9-encoder movie.mkv                       # Balanced preset, CRF mode")
		fmt.Fprintln(stdout, "  vp9-encoder -preset=quality movie.mkv       # Slowest, best quality")
		fmt.Fprintln(stdout, "  vp9-encoder -b 2M -two-pass clip.mp4 out.webm")
		fmt.Fprintln(stdout, "  vp9-encoder -tui                            # Interactive panel")
	}
	return fs
}

// parseArgs turns the command line into options. Positional arguments are
// the input and an optional output path.
func parseArgs(args []string, stdout io.Writer) (*cliFlags, error) {
	f := &cliFlags{opts: config.DefaultOptions()}
	fs := newFlagSet(f, stdout)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 2 {
		return nil, fmt.Errorf("%w: too many arguments: %s", config.ErrInvalidOptions, strings.Join(rest[2:], " "))
	}
	if len(rest) > 0 {
		f.opts.InputPath = rest[0]
	}
	if len(rest) > 1 {
		f.opts.OutputPath = rest[1]
	}

	f.opts.Preset = config.ParsePreset(f.preset)
	f.opts.Priority = config.Priority(strings.ToLower(strings.TrimSpace(f.priority)))
	if f.deadline != "" {
		d, err := config.ParseDeadline(f.deadline)
		if err != nil {
			return nil, err
		}
		f.opts.Deadline = d
	}
	switch {
	case f.bitrate != "":
		if f.crf >= 0 {
			return nil, fmt.Errorf("%w: -crf and -bitrate are mutually exclusive", config.ErrInvalidOptions)
		}
		f.opts.Mode = config.ModeBitrate
		f.opts.Quality = f.bitrate
	case f.crf >= 0:
		f.opts.Mode = config.ModeCRF
		f.opts.Quality = fmt.Sprint(f.crf)
	}
	return f, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseArgs(args, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if f.showVersion {
		fmt.Fprintf(stdout, "vp9-encoder %s\n", version)
		return 0
	}

	// Handle -list-presets
	if f.listPresets {
		fmt.Fprintln(stdout, "Available encoding presets:")
		fmt.Fprintln(stdout)
		for _, name := range config.AvailablePresets() {
			p := config.GetPreset(name)
			fmt.Fprintf(stdout, "  %s\n", name)
			fmt.Fprintf(stdout, "    %s\n", config.PresetDescription(name))
			fmt.Fprintf(stdout, "    CRF: %d, Speed: %d, Deadline: %s\n", p.CRF, p.Speed, p.Deadline)
			fmt.Fprintln(stdout)
		}
		return 0
	}

	if !f.tui {
		if f.opts.InputPath == "" {
			newFlagSet(&cliFlags{}, stdout).Usage()
			return 1
		}
		if err := f.opts.Validate(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	log, closer, err := logging.New(logging.Options{
		File:    f.logFile,
		Verbose: f.verbose,
		Console: !f.tui,
		Stderr:  stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	runner := encoder.NewRunner(encoder.FFprobe{Path: f.opts.FFprobePath}, encoder.ExecLauncher{}, log)

	if f.tui {
		return runPanel(runner, f.opts, log, stderr)
	}
	return runConsole(runner, f.opts, stdout)
}

// runConsole runs one job with line output. Ctrl+C stops the encoder and the
// job still ends through the normal outcome path.
func runConsole(runner *encoder.Runner, opts config.Options, stdout io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inline := false
	if f, ok := stdout.(*os.File); ok {
		inline = isatty.IsTerminal(f.Fd())
	}
	out, err := runner.Run(ctx, opts, console.New(stdout, inline))
	if err != nil || !out.OK() {
		return 1
	}
	return 0
}

// runPanel hands the terminal to the panel UI.
func runPanel(runner *encoder.Runner, opts config.Options, log zerolog.Logger, stderr io.Writer) int {
	p := tea.NewProgram(tui.NewModel(runner, opts), tea.WithAltScreen())
	_, err := p.Run()
	// Quitting mid-job must not leave ffmpeg behind.
	runner.Stop()
	if err != nil {
		log.Error().Err(err).Msg("panel ui")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
