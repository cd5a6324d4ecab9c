// Package encoder turns a conversion request into ffmpeg invocations and
// reports their progress: probing, tiling, argument building, and the
// single- or two-pass run with cancellation.
package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vp9-encoder/config"
	"vp9-encoder/units"
)

// State is the runner's position in the job lifecycle.
type State int

const (
	StateIdle State = iota
	StateProbing
	StatePass1
	StatePass2
	StateSinglePass
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StatePass1:
		return "pass 1/2"
	case StatePass2:
		return "pass 2/2"
	case StateSinglePass:
		return "encoding"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Running reports whether s is a pass state.
func (s State) Running() bool {
	return s == StatePass1 || s == StatePass2 || s == StateSinglePass
}

// Sink receives progress for one job. Calls arrive from the goroutine that
// called Run, in the order ffmpeg produced them; OnDone is called once.
type Sink interface {
	OnProgress(percent float64, status string)
	OnLog(line string)
	OnDone(outcome Outcome)
}

// Outcome is the terminal result of a job.
type Outcome struct {
	JobID      string
	OutputPath string
	Size       int64
	SizeKnown  bool
	Stage      State // state the job failed in; StateSucceeded on success
	ExitCode   int
	Err        error
}

// OK reports success.
func (o Outcome) OK() bool { return o.Err == nil }

// Message is the single human-readable line describing the outcome.
func (o Outcome) Message() string {
	if o.OK() {
		if o.SizeKnown {
			return fmt.Sprintf("Complete: %s (%s)", o.OutputPath, units.FormatBytes(o.Size))
		}
		return "Complete: " + o.OutputPath
	}
	if errors.Is(o.Err, ErrCancelled) {
		return "Conversion stopped by user"
	}
	return capitalize(o.Err.Error())
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// passLogSuffixes are the files libvpx/ffmpeg leave next to -passlogfile.
var passLogSuffixes = []string{".log", ".log.mbtree", "-0.log", "-0.log.mbtree"}

// Runner executes one conversion at a time.
type Runner struct {
	prober   Prober
	launcher Launcher
	log      zerolog.Logger

	// CPUs reports the logical CPU count used when threads are automatic.
	CPUs func() int

	mu        sync.Mutex
	state     State
	active    bool
	proc      Process
	cancelled bool
	cancelJob context.CancelFunc // aborts probing of the active job
}

// NewRunner wires a runner to its prober and process launcher.
func NewRunner(prober Prober, launcher Launcher, log zerolog.Logger) *Runner {
	return &Runner{
		prober:   prober,
		launcher: launcher,
		log:      log,
		CPUs:     runtime.NumCPU,
	}
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Busy reports whether a job is in progress.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Stop kills the running encoder and prevents any further pass. It returns
// false when no job is active. Stopping a process that already exited is
// harmless.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return false
	}
	r.cancelled = true
	if r.cancelJob != nil {
		r.cancelJob()
	}
	if r.proc != nil {
		if err := r.proc.Kill(); err != nil {
			r.log.Warn().Err(err).Msg("kill encoder")
		}
	}
	return true
}

// Run executes a whole job and blocks until it is terminal. It returns
// ErrBusy without side effects while another job is active; every other
// result, success or failure, is delivered both as the returned Outcome and
// through sink.OnDone. Cancelling ctx behaves like Stop.
func (r *Runner) Run(ctx context.Context, opts config.Options, sink Sink) (Outcome, error) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.active = true
	r.cancelled = false
	r.cancelJob = cancel
	r.state = StateIdle
	r.mu.Unlock()

	stopOnCancel := context.AfterFunc(ctx, func() { r.Stop() })
	defer stopOnCancel()

	jobID := uuid.NewString()
	log := r.log.With().Str("job", jobID).Logger()
	log.Info().Str("input", opts.InputPath).Msg("job started")

	out := r.run(jobCtx, opts, sink, log)
	out.JobID = jobID

	r.mu.Lock()
	if out.OK() {
		r.state = StateSucceeded
	} else {
		r.state = StateFailed
	}
	r.proc = nil
	r.cancelJob = nil
	r.active = false
	r.mu.Unlock()

	if out.OK() {
		sink.OnProgress(100, "Done")
		log.Info().Str("output", out.OutputPath).Int64("size", out.Size).Msg("job succeeded")
	} else {
		log.Error().Err(out.Err).Stringer("stage", out.Stage).Int("exit_code", out.ExitCode).Msg("job failed")
	}
	sink.OnDone(out)
	return out, nil
}

func (r *Runner) run(ctx context.Context, opts config.Options, sink Sink, log zerolog.Logger) Outcome {
	input := strings.TrimSpace(opts.InputPath)
	if fi, err := os.Stat(input); input == "" || err != nil || fi.IsDir() {
		return Outcome{Stage: StateIdle, Err: fmt.Errorf("%w: %s", ErrInputMissing, opts.InputPath)}
	}
	opts.InputPath = input
	if err := opts.Validate(); err != nil {
		return Outcome{Stage: StateIdle, Err: err}
	}

	r.setState(StateProbing)
	info, err := probeMedia(ctx, r.prober, input)
	if err != nil {
		if r.isCancelled() || ctx.Err() != nil {
			err = ErrCancelled
		}
		return Outcome{Stage: StateProbing, Err: err}
	}

	cols, rows := ChooseTiling(info.Width, info.Height, info.HasDimensions)
	job := config.ResolveJob(opts, cols, rows, r.CPUs())

	sink.OnLog(fmt.Sprintf("Converting %s → %s • %s", job.InputPath, job.OutputPath, job.Describe()))
	if info.HasDimensions {
		sink.OnLog(fmt.Sprintf("Source %dx%d, %.1fs • tiles %d/%d • %d threads",
			info.Width, info.Height, info.Duration, job.TileColumns, job.TileRows, job.Threads))
	} else {
		sink.OnLog(fmt.Sprintf("Source %.1fs, size unknown • tiles %d/%d • %d threads",
			info.Duration, job.TileColumns, job.TileRows, job.Threads))
	}
	if note, ok := sizeAdvisory(job, info); ok {
		sink.OnLog(note)
	}
	log.Debug().Interface("job", job).Float64("duration", info.Duration).Msg("resolved")

	ffmpeg := opts.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	e := passEnv{ffmpeg: ffmpeg, job: job, info: info, priority: opts.Priority, sink: sink, log: log}

	if !job.RunsTwoPass() {
		r.setState(StateSinglePass)
		return r.finish(job, r.runPass(e, Pass{}, StateSinglePass, ""))
	}

	logPath := config.PassLogPath(job.OutputPath)
	defer removePassLogs(logPath, log)

	sink.OnLog("Pass 1/2 (analysis)…")
	r.setState(StatePass1)
	first := r.runPass(e, Pass{Number: 1, LogPath: logPath, NullOutput: true}, StatePass1, "Pass 1/2")
	if !first.OK() {
		return first
	}
	// A stop that lands between the passes must not start pass 2.
	if r.isCancelled() {
		return Outcome{Stage: StatePass1, Err: ErrCancelled}
	}

	sink.OnLog("Pass 2/2 (encode)…")
	r.setState(StatePass2)
	return r.finish(job, r.runPass(e, Pass{Number: 2, LogPath: logPath}, StatePass2, "Pass 2/2"))
}

func (r *Runner) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// finish fills in the output size of a successful final pass.
func (r *Runner) finish(job config.Job, out Outcome) Outcome {
	out.OutputPath = job.OutputPath
	if !out.OK() {
		return out
	}
	out.Stage = StateSucceeded
	if fi, err := os.Stat(job.OutputPath); err == nil {
		out.Size = fi.Size()
		out.SizeKnown = true
	}
	return out
}

// passEnv is what every pass of one job shares.
type passEnv struct {
	ffmpeg   string
	job      config.Job
	info     MediaInfo
	priority config.Priority
	sink     Sink
	log      zerolog.Logger
}

// runPass launches one ffmpeg pass, relays its progress and waits for it.
func (r *Runner) runPass(e passEnv, pass Pass, stage State, label string) Outcome {
	args := BuildArgs(e.job, pass)
	e.log.Debug().Str("cmd", e.ffmpeg+" "+strings.Join(args, " ")).Int("pass", pass.Number).Msg("launching")

	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return Outcome{Stage: stage, Err: ErrCancelled}
	}
	proc, err := r.launcher.Launch(e.ffmpeg, args)
	if err != nil {
		r.mu.Unlock()
		return Outcome{Stage: stage, ExitCode: -1, Err: &EncodeError{Pass: pass.Number, ExitCode: -1, Err: err}}
	}
	r.proc = proc
	r.mu.Unlock()

	if e.priority != "" && e.priority != config.PriorityNormal {
		if err := setPriority(proc.Pid(), e.priority); err != nil {
			e.log.Warn().Err(err).Str("priority", string(e.priority)).Msg("could not set encoder priority")
			e.sink.OnLog(fmt.Sprintf("Note: could not set %s priority: %v", e.priority, err))
		}
	}

	r.relayProgress(proc, newProgressTracker(e.info.Duration, label), e)

	code, waitErr := proc.Wait()

	r.mu.Lock()
	r.proc = nil
	cancelled := r.cancelled
	r.mu.Unlock()

	switch {
	case waitErr != nil:
		if cancelled {
			return Outcome{Stage: stage, ExitCode: -1, Err: ErrCancelled}
		}
		return Outcome{Stage: stage, ExitCode: -1, Err: &EncodeError{Pass: pass.Number, ExitCode: -1, Err: waitErr}}
	case code == 0:
		return Outcome{Stage: stage}
	case cancelled:
		e.log.Info().Int("exit_code", code).Msg("encoder stopped on request")
		return Outcome{Stage: stage, ExitCode: code, Err: ErrCancelled}
	default:
		for _, line := range proc.ErrorOutput() {
			e.sink.OnLog("ffmpeg: " + line)
		}
		return Outcome{Stage: stage, ExitCode: code, Err: &EncodeError{Pass: pass.Number, ExitCode: code}}
	}
}

// relayProgress reads progress lines until EOF or progress=end.
func (r *Runner) relayProgress(proc Process, tracker *progressTracker, e passEnv) {
	scanner := bufio.NewScanner(proc.Stdout())
	const maxScannerBuffer = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxScannerBuffer)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		kind, secs := classifyLine(line)
		switch kind {
		case lineElapsed:
			e.sink.OnProgress(tracker.sample(secs))
		case lineState:
			e.sink.OnLog(line)
		case lineEnd:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		e.log.Warn().Err(err).Msg("progress reader")
	}
}

// sizeAdvisory warns when a target bitrate would produce a file larger than
// the source. It stays silent when anything needed is unknown.
func sizeAdvisory(job config.Job, info MediaInfo) (string, bool) {
	if job.Mode != config.ModeBitrate {
		return "", false
	}
	bps, ok := units.ParseBitrate(job.Bitrate)
	if !ok || bps <= 0 {
		return "", false
	}
	fi, err := os.Stat(job.InputPath)
	if err != nil {
		return "", false
	}
	est := float64(bps) / 8 * info.Duration
	if est <= float64(fi.Size())*1.05 {
		return "", false
	}
	return fmt.Sprintf("Note: target bitrate implies ~%s output; may exceed source (%s)",
		units.FormatBytes(int64(est)), units.FormatBytes(fi.Size())), true
}

// removePassLogs deletes two-pass statistics files, ignoring errors.
func removePassLogs(prefix string, log zerolog.Logger) {
	for _, suffix := range passLogSuffixes {
		path := prefix + suffix
		if err := os.Remove(path); err == nil {
			log.Debug().Str("path", path).Msg("removed pass log")
		}
	}
}
