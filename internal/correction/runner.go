// Package correction invokes the external atmospheric correction tool with
// its fixed argument contract.
package correction

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/sister-sbg/rfl-cli/internal/failure"
)

// StderrTailSize is how much trailing stderr a ProcessError carries.
const StderrTailSize = 4096

// Inputs are the positional arguments and generated artifacts of one
// correction invocation.
type Inputs struct {
	Radiance       string
	Location       string
	Observation    string
	WorkDir        string
	Sensor         string
	WavelengthPath string
	SurfacePath    string
	LogPath        string
}

// Options are passed to the tool unchanged.
type Options struct {
	Presolve         bool
	AnalyticalLine   bool
	EmpiricalLine    bool
	EmulatorBase     string
	Cores            int
	SegmentationSize int
}

// Result describes a finished invocation. Duration is set even when Run
// returns an error.
type Result struct {
	Command  []string
	ExitCode int
	Duration time.Duration
}

// Runner executes the correction step.
type Runner interface {
	Run(ctx context.Context, in Inputs, opts Options) (Result, error)
}

// Args builds the tool arguments following script: five positionals then the
// named options in a fixed order.
func Args(script string, in Inputs, opts Options) []string {
	return []string{
		script,
		in.Radiance,
		in.Location,
		in.Observation,
		in.WorkDir,
		in.Sensor,
		"--presolve=" + flag(opts.Presolve),
		"--analytical_line=" + flag(opts.AnalyticalLine),
		"--empirical_line=" + flag(opts.EmpiricalLine),
		"--emulator_base=" + opts.EmulatorBase,
		"--n_cores=" + strconv.Itoa(opts.Cores),
		"--wavelength_path=" + in.WavelengthPath,
		"--surface_path=" + in.SurfacePath,
		"--segmentation_size=" + strconv.Itoa(opts.SegmentationSize),
		"--log_file=" + in.LogPath,
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ExecRunner runs the tool as a child process.
type ExecRunner struct {
	Interpreter string
	Script      string
	// Env holds extra variables for the child, e.g. SIXS_DIR. The parent
	// process environment is never modified.
	Env map[string]string
	// Timeout bounds the wait; zero means none.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner. If interpreter is empty, "python" is used.
func NewExecRunner(interpreter, script string, env map[string]string, timeout time.Duration) *ExecRunner {
	if interpreter == "" {
		interpreter = "python"
	}
	return &ExecRunner{Interpreter: interpreter, Script: script, Env: env, Timeout: timeout}
}

// Run executes the tool and waits for it. A nonzero exit yields a
// *failure.ProcessError and an expired timeout a *failure.TimeoutError.
func (r *ExecRunner) Run(ctx context.Context, in Inputs, opts Options) (Result, error) {
	args := Args(r.Script, in, opts)
	res := Result{Command: append([]string{r.Interpreter}, args...), ExitCode: -1}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.Interpreter, args...)
	cmd.Dir = in.WorkDir
	cmd.Env = append(os.Environ(), r.envList()...)
	cmd.WaitDelay = 5 * time.Second

	log := zap.L().With(zap.String("component", "correction"))

	// Tool progress is streamed line by line at debug level, never buffered.
	stdout := &zapio.Writer{Log: log.With(zap.String("stream", "stdout")), Level: zap.DebugLevel}
	stderr := newTailBuffer(StderrTailSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Info("starting correction", zap.String("command", strings.Join(res.Command, " ")))

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	_ = stdout.Close()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		log.Info("correction complete", zap.Duration("duration", res.Duration))
		return res, nil
	case r.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return res, &failure.TimeoutError{Timeout: r.Timeout, Duration: res.Duration, Err: err}
	case ctx.Err() != nil:
		return res, eris.Wrap(ctx.Err(), "correction: run cancelled")
	}

	tail := stderr.String()
	log.Error("correction failed",
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
		zap.String("stderr_tail", tail),
	)
	return res, &failure.ProcessError{ExitCode: res.ExitCode, StderrTail: tail, Duration: res.Duration, Err: err}
}

func (r *ExecRunner) envList() []string {
	keys := make([]string, 0, len(r.Env))
	for k := range r.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+r.Env[k])
	}
	return out
}

// tailBuffer keeps the last n bytes written to it.
type tailBuffer struct {
	n   int
	buf []byte
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{n: n}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	written := len(p)
	if len(p) >= b.n {
		b.buf = append(b.buf[:0], p[len(p)-b.n:]...)
		return written, nil
	}
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.n; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return written, nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.buf))
}
