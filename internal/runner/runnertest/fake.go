// Package runnertest provides a recording runner.Runner for tests of code
// that shells out.
package runnertest

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/atinyakov/twofzip/internal/runner"
)

// Handler produces the outcome of one simulated invocation.
type Handler func(ctx context.Context, cmd runner.Command) (*runner.Result, error)

// Fake records every Command it receives and answers through Handler.
// A nil Handler makes every program exit 0 with no output.
//
// When the returned Result carries Output and the Command has an Output
// writer, the bytes are written to it, mimicking live forwarding.
type Fake struct {
	Handler Handler

	mu    sync.Mutex
	calls []runner.Command
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	recorded := cmd
	recorded.Args = slices.Clone(cmd.Args)
	f.mu.Lock()
	f.calls = append(f.calls, recorded)
	f.mu.Unlock()

	if f.Handler == nil {
		return Exited(0, ""), nil
	}
	res, err := f.Handler(ctx, cmd)
	if res != nil {
		res.Program = cmd.Program
		if cmd.Output != nil && len(res.Output) > 0 {
			_, _ = cmd.Output.Write(res.Output)
		}
	}
	return res, err
}

// Calls returns a copy of all recorded commands in call order.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the recorded commands whose Program equals program.
func (f *Fake) CallsTo(program string) []runner.Command {
	var out []runner.Command
	for _, c := range f.Calls() {
		if c.Program == program {
			out = append(out, c)
		}
	}
	return out
}

// ReadStdin drains cmd.Stdin, returning nil when there is none.
func ReadStdin(cmd runner.Command) []byte {
	if cmd.Stdin == nil {
		return nil
	}
	b, _ := io.ReadAll(cmd.Stdin)
	return b
}

// ByProgram dispatches on Command.Program. Programs without an entry exit 0.
func ByProgram(handlers map[string]Handler) Handler {
	return func(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
		if h, ok := handlers[cmd.Program]; ok {
			return h(ctx, cmd)
		}
		return Exited(0, ""), nil
	}
}

// Reply returns a Handler that always yields the given exit code and output.
func Reply(code int, output string) Handler {
	return func(context.Context, runner.Command) (*runner.Result, error) {
		return Exited(code, output), nil
	}
}

// Exited builds a Result for a normal exit.
func Exited(code int, output string) *runner.Result {
	return &runner.Result{
		Status:   runner.StatusExited,
		ExitCode: code,
		Output:   []byte(output),
	}
}

// Signaled builds a Result for a process killed by sig.
func Signaled(sig string) *runner.Result {
	return &runner.Result{
		Status:   runner.StatusSignaled,
		ExitCode: -1,
		Signal:   sig,
	}
}
