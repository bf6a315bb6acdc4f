package runner

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sh(script string) Command {
	return Command{Program: "sh", Args: []string{"-c", script}}
}

func TestExecRunner_Success(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), Command{Program: "echo", Args: []string{"hello", "world"}})
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, StatusExited, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello world\n", string(res.Output))
	assert.False(t, res.Truncated)
	assert.Equal(t, "echo", res.Program)
}

func TestExecRunner_CombinesStdoutAndStderr(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), sh("echo out; echo err >&2"))
	require.NoError(t, err)

	out := string(res.Output)
	assert.Contains(t, out, "out\n")
	assert.Contains(t, out, "err\n")
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), sh("echo failing; exit 3"))
	require.NoError(t, err)

	assert.False(t, res.Success())
	assert.Equal(t, StatusExited, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "exit status 3", res.String())
	assert.Equal(t, "failing\n", string(res.Output))
}

func TestExecRunner_Signaled(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), sh("kill -TERM $$"))
	require.NoError(t, err)

	assert.False(t, res.Success())
	assert.Equal(t, StatusSignaled, res.Status)
	assert.Equal(t, "terminated", res.Signal)
	assert.Equal(t, "signal: terminated", res.String())
}

func TestExecRunner_ForwardsLive(t *testing.T) {
	r := New()
	var console bytes.Buffer

	cmd := sh("printf 'adding: a.txt'; printf ' (stored 0%%)\\n' >&2")
	cmd.Output = &console
	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, "adding: a.txt (stored 0%)\n", console.String())
	assert.Equal(t, console.String(), string(res.Output))
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("console closed")
}

func TestExecRunner_FailingSinkStillDrains(t *testing.T) {
	r := New()
	sink := &failingWriter{}

	cmd := sh("head -c 200000 /dev/zero")
	cmd.Output = sink
	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, 1, sink.writes)
}

func TestExecRunner_BoundedCapture(t *testing.T) {
	r := New(WithMaxCapture(10))
	var console bytes.Buffer

	cmd := sh("printf '0123456789abcdef'")
	cmd.Output = &console
	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, "0123456789", string(res.Output))
	assert.True(t, res.Truncated)
	assert.Equal(t, "0123456789abcdef", console.String(), "forwarding is not bounded")
}

func TestExecRunner_Stdin(t *testing.T) {
	r := New()

	cmd := Command{Program: "cat", Stdin: strings.NewReader("piped input")}
	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, "piped input", string(res.Output))
}

func TestExecRunner_ProgramNotFound(t *testing.T) {
	r := New()
	var console bytes.Buffer

	cmd := Command{Program: "twofzip-no-such-tool-12345", Args: []string{"x"}, Output: &console}
	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err, "a missing executable is reported as an exit status")

	assert.False(t, res.Success())
	assert.Equal(t, StatusExited, res.Status)
	assert.Equal(t, NotRunnableExitCode, res.ExitCode)
	assert.Contains(t, string(res.Output), "twofzip-no-such-tool-12345")
	assert.Equal(t, string(res.Output), console.String())
}

func TestExecRunner_ProgramPathNotFound(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), Command{Program: t.TempDir() + "/missing"})
	require.NoError(t, err)
	assert.Equal(t, NotRunnableExitCode, res.ExitCode)
}

func TestExecRunner_ExecFormatError(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "bogus")
	require.NoError(t, os.WriteFile(bogus, []byte{0x7f, 'E', 'L', 'F', 0, 0, 0}, 0o755))
	var console bytes.Buffer

	res, err := New().Run(context.Background(), Command{Program: bogus, Output: &console})
	require.NoError(t, err, "an unexecutable file is reported as an exit status")

	assert.Equal(t, StatusExited, res.Status)
	assert.Equal(t, NotRunnableExitCode, res.ExitCode)
	assert.Contains(t, console.String(), "exec format error")
}

func TestExecRunner_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	res, err := New().Run(context.Background(), Command{Program: file + "/tool"})
	require.NoError(t, err)
	assert.Equal(t, NotRunnableExitCode, res.ExitCode)
}

func TestNotRunnable(t *testing.T) {
	pathErr := func(errno syscall.Errno) error {
		return &fs.PathError{Op: "fork/exec", Path: "/usr/bin/zip", Err: errno}
	}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found in PATH", &exec.Error{Name: "zip", Err: exec.ErrNotFound}, true},
		{"missing file", pathErr(syscall.ENOENT), true},
		{"permission", pathErr(syscall.EACCES), true},
		{"bad format", pathErr(syscall.ENOEXEC), true},
		{"text busy", pathErr(syscall.ETXTBSY), true},
		{"argument list too long", pathErr(syscall.E2BIG), true},
		{"no processes", pathErr(syscall.EAGAIN), false},
		{"no memory", pathErr(syscall.ENOMEM), false},
		{"process fd limit", pathErr(syscall.EMFILE), false},
		{"system fd limit", pathErr(syscall.ENFILE), false},
		{"pipe failure", os.NewSyscallError("pipe2", syscall.EMFILE), false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notRunnable(tt.err))
		})
	}
}

func TestExecRunner_EmptyProgram(t *testing.T) {
	r := New()

	res, err := r.Run(context.Background(), Command{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSpawn)
	assert.ErrorIs(t, err, ErrNoProgram)
}

func TestExecRunner_Timeout(t *testing.T) {
	r := New(WithTimeout(100 * time.Millisecond))

	start := time.Now()
	res, err := r.Run(context.Background(), Command{Program: "sleep", Args: []string{"5"}})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 4*time.Second)
	assert.False(t, res.Success())
	assert.Equal(t, StatusSignaled, res.Status)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestExecRunner_CancelledContext(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, Command{Program: "echo", Args: []string{"never"}})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrSpawn)
}

func TestExecRunner_CancelWhileGrandchildHoldsPipe(t *testing.T) {
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := r.Run(ctx, sh("sleep 5 & wait"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 4*time.Second)
	assert.False(t, res.Success())
	assert.Error(t, res.Err)
}

func TestExecRunner_NeverLogsArgs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(WithLogger(zap.New(core)))

	_, err := r.Run(context.Background(), Command{Program: "echo", Args: []string{"-n", "1234:hunter2"}})
	require.NoError(t, err)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotContains(t, f.String, "hunter2", "field %s leaks argv", f.Key)
		}
	}
	finished := logs.FilterMessage("process finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "echo", finished[0].ContextMap()["program"])
	assert.EqualValues(t, 2, finished[0].ContextMap()["argc"])
}

func TestCommand_Argv(t *testing.T) {
	c := Command{Program: "zip", Args: []string{"-P", "0001:pw", "out.2fz", "a.txt"}}
	assert.Equal(t, []string{"zip", "-P", "0001:pw", "out.2fz", "a.txt"}, c.Argv())
}

func TestFunc(t *testing.T) {
	var got Command
	f := Func(func(_ context.Context, c Command) (*Result, error) {
		got = c
		return &Result{Status: StatusExited}, nil
	})

	res, err := f.Run(context.Background(), Command{Program: "rm", Args: []string{"x"}})
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "rm", got.Program)
}

func TestResult_Success(t *testing.T) {
	var nilRes *Result
	assert.False(t, nilRes.Success())
	assert.True(t, (&Result{Status: StatusExited}).Success())
	assert.False(t, (&Result{Status: StatusExited, ExitCode: 1}).Success())
	assert.False(t, (&Result{Status: StatusSignaled, ExitCode: -1}).Success())
	assert.False(t, (&Result{Status: StatusExited, Err: context.Canceled}).Success())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "exited", StatusExited.String())
	assert.Equal(t, "signaled", StatusSignaled.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
