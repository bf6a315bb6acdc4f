// Package runner launches external programs, captures their combined
// stdout/stderr through a pipe and reports how they terminated.
//
// Every external tool twofzip depends on (archiver, HTTP client, delete
// command) goes through the Runner interface so the three call sites share a
// single implementation in production and a single test double in tests.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxCapture bounds the bytes retained in Result.Output.
	DefaultMaxCapture = 64 << 10

	// NotRunnableExitCode is reported when the program could not be executed
	// at all, following the shell convention.
	NotRunnableExitCode = 127

	readChunkSize = 4 << 10
)

var (
	// ErrSpawn marks failures to create the pipe or the child process.
	// Nothing in twofzip can proceed without subprocesses, so callers treat
	// it as fatal.
	ErrSpawn = errors.New("cannot spawn process")

	// ErrNoProgram is returned for a Command without a program name.
	ErrNoProgram = errors.New("no program given")
)

// Status classifies how a child process terminated.
type Status int

const (
	// StatusExited means the process called exit; ExitCode is meaningful.
	StatusExited Status = iota
	// StatusSignaled means the process was terminated by a signal.
	StatusSignaled
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusExited:
		return "exited"
	case StatusSignaled:
		return "signaled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Command describes one program invocation.
type Command struct {
	// Program is the executable name, resolved through PATH when it has no
	// path separator.
	Program string
	// Args excludes the program name.
	Args []string
	// Stdin is fed to the child when non-nil.
	Stdin io.Reader
	// Output receives the combined stdout/stderr stream live, chunk by
	// chunk. Nil keeps the output captured only.
	Output io.Writer
}

// Argv returns the argv-style vector with the program first.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Program)
	return append(argv, c.Args...)
}

// Result is what a finished child process left behind.
type Result struct {
	Program  string
	Status   Status
	ExitCode int
	// Signal names the terminating signal when Status is StatusSignaled.
	Signal string
	// Output holds the first bytes of the combined output stream.
	Output []byte
	// Truncated is set when the stream exceeded the capture bound.
	Truncated bool
	Duration  time.Duration
	// Err is the context error when the run was cancelled or timed out.
	Err error
}

// Success reports a normal exit with status 0.
func (r *Result) Success() bool {
	return r != nil && r.Status == StatusExited && r.ExitCode == 0 && r.Err == nil
}

// String describes the termination, e.g. "exit status 2" or "signal: killed".
func (r *Result) String() string {
	if r.Status == StatusSignaled {
		return "signal: " + r.Signal
	}
	return fmt.Sprintf("exit status %d", r.ExitCode)
}

// Runner executes a Command to completion.
type Runner interface {
	// Run blocks until the child has exited and its output stream is
	// drained. A non-nil error means the child never started; every
	// started child yields a Result.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Func adapts a function to the Runner interface.
type Func func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f(ctx, cmd).
func (f Func) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ExecRunner implements Runner with os/exec and an os.Pipe shared by the
// child's stdout and stderr.
type ExecRunner struct {
	maxCapture int
	timeout    time.Duration
	waitDelay  time.Duration
	logger     *zap.Logger
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithMaxCapture bounds the retained output; n <= 0 keeps the default.
func WithMaxCapture(n int) Option {
	return func(r *ExecRunner) {
		if n > 0 {
			r.maxCapture = n
		}
	}
}

// WithTimeout kills children that run longer than d. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) {
		r.timeout = d
	}
}

// WithLogger sets the logger used for spawn/exit debug entries.
func WithLogger(l *zap.Logger) Option {
	return func(r *ExecRunner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns an ExecRunner with the given options applied.
func New(opts ...Option) *ExecRunner {
	r := &ExecRunner{
		maxCapture: DefaultMaxCapture,
		waitDelay:  time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements Runner.
//
// The argument vector is never logged: archiver invocations carry the
// compound password.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Program == "" {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, ErrNoProgram)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	log := r.logger.With(zap.String("program", c.Program), zap.Int("argc", len(c.Args)))

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: create pipe: %w", ErrSpawn, err)
	}
	defer pr.Close()

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.Stdin = c.Stdin
	cmd.WaitDelay = r.waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("start %s: %w", c.Program, ctx.Err())
		}
		if notRunnable(err) {
			log.Debug("program not runnable", zap.Error(err))
			return r.notRunnableResult(c, err, start), nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, c.Program, err)
	}
	// The child holds its own copy of the write end; closing ours lets the
	// drain below see EOF once the child exits.
	_ = pw.Close()
	log.Debug("process started", zap.Int("pid", cmd.Process.Pid))

	stop := context.AfterFunc(ctx, func() {
		_ = pr.SetReadDeadline(time.Now())
	})
	defer stop()

	capture := newBoundedBuffer(r.maxCapture)
	readErr, sinkErr := drain(pr, capture, c.Output)
	if sinkErr != nil {
		log.Debug("stopped forwarding output", zap.Error(sinkErr))
	}
	waitErr := cmd.Wait()

	res := &Result{
		Program:   c.Program,
		Output:    capture.Bytes(),
		Truncated: capture.Truncated(),
		Duration:  time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.Status, res.ExitCode = StatusExited, 0
	case errors.As(waitErr, &exitErr):
		classify(res, exitErr.ProcessState)
	case errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		classify(res, cmd.ProcessState)
	default:
		return res, fmt.Errorf("wait %s: %w", c.Program, waitErr)
	}
	if readErr != nil {
		log.Warn("output stream read failed", zap.Error(readErr))
	}
	if ctx.Err() != nil {
		res.Err = ctx.Err()
	}

	log.Debug("process finished",
		zap.Stringer("status", res.Status),
		zap.Int("exit_code", res.ExitCode),
		zap.String("signal", res.Signal),
		zap.Int("captured", len(res.Output)),
		zap.Bool("truncated", res.Truncated),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// notRunnableResult reports an executable that could not be started the
// same way a shell does: a diagnostic on the output stream and status 127.
func (r *ExecRunner) notRunnableResult(c Command, err error, start time.Time) *Result {
	msg := fmt.Sprintf("%s: %v\n", c.Program, err)
	if c.Output != nil {
		_, _ = io.WriteString(c.Output, msg)
	}
	capture := newBoundedBuffer(r.maxCapture)
	_, _ = capture.Write([]byte(msg))
	return &Result{
		Program:   c.Program,
		Status:    StatusExited,
		ExitCode:  NotRunnableExitCode,
		Output:    capture.Bytes(),
		Truncated: capture.Truncated(),
		Duration:  time.Since(start),
	}
}

// notRunnable reports whether a Start error means the program itself could
// not be executed (missing, not executable, bad format, busy), as opposed to
// the system running out of processes, memory or descriptors.
func notRunnable(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	return !resourceExhausted(pathErr.Err)
}

func resourceExhausted(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.ENOMEM) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}

// classify fills Status, ExitCode and Signal from a terminated process.
func classify(res *Result, ps *os.ProcessState) {
	if code := ps.ExitCode(); code >= 0 {
		res.Status, res.ExitCode = StatusExited, code
		return
	}
	res.Status, res.ExitCode = StatusSignaled, -1
	res.Signal = strings.TrimPrefix(ps.String(), "signal: ")
}

// drain copies src into capture and sink until EOF or until a read deadline
// set on cancellation fires. A failing sink stops receiving data but the
// stream is still drained so the child never blocks on a full pipe.
func drain(src io.Reader, capture io.Writer, sink io.Writer) (readErr, sinkErr error) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			_, _ = capture.Write(buf[:n])
			if sink != nil && sinkErr == nil {
				_, sinkErr = sink.Write(buf[:n])
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
				return nil, sinkErr
			}
			return err, sinkErr
		}
	}
}
