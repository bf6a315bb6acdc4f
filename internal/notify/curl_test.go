package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/twofzip/internal/notify"
	"github.com/atinyakov/twofzip/internal/runner"
	"github.com/atinyakov/twofzip/internal/runner/runnertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest() notify.Request {
	return notify.Request{ID: "req-1", Number: "5551234567", Filename: "out.2fz", Code: "0042"}
}

func TestCurlNotifier_Args(t *testing.T) {
	n := notify.NewCurlNotifier(&runnertest.Fake{}, "", "", nil)

	assert.Equal(t, []string{
		"--silent",
		"--show-error",
		"-X", "POST",
		notify.DefaultGatewayURL,
		"--data-urlencode", "number=5551234567",
		"--data-urlencode", "message=2Factor Auth Code for out.2fz: 0042",
	}, n.Args(newRequest()))
}

func TestCurlNotifier_Success(t *testing.T) {
	fake := &runnertest.Fake{Handler: runnertest.Reply(0, `{"success": true, "textId": "1"}`)}
	n := notify.NewCurlNotifier(fake, "curl", "http://gateway.local/text", nil)

	require.NoError(t, n.Notify(context.Background(), newRequest()))

	calls := fake.CallsTo("curl")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Args, "http://gateway.local/text")
	assert.Nil(t, calls[0].Output, "gateway reply must not be echoed")
}

func TestCurlNotifier_Failures(t *testing.T) {
	tests := []struct {
		name   string
		result *runner.Result
	}{
		{"failure reply", runnertest.Exited(0, `{"success": false, "error": "Invalid phone number."}`)},
		{"empty reply", runnertest.Exited(0, "")},
		{"network error", runnertest.Exited(6, "curl: (6) Could not resolve host: textbelt.com\n")},
		{"curl missing", runnertest.Exited(runner.NotRunnableExitCode, "curl: executable file not found in $PATH\n")},
		{"timed out", &runner.Result{Status: runner.StatusSignaled, ExitCode: -1, Signal: "killed", Err: context.DeadlineExceeded}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &runnertest.Fake{Handler: func(context.Context, runner.Command) (*runner.Result, error) {
				return tt.result, nil
			}}
			n := notify.NewCurlNotifier(fake, "curl", "", nil)

			err := n.Notify(context.Background(), newRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, notify.ErrNotDelivered)
		})
	}
}

func TestCurlNotifier_ExitCodeIgnoredWhenMarkerPresent(t *testing.T) {
	fake := &runnertest.Fake{Handler: runnertest.Reply(22, `{"success": true}`)}
	n := notify.NewCurlNotifier(fake, "curl", "", nil)

	assert.NoError(t, n.Notify(context.Background(), newRequest()))
}

func TestCurlNotifier_SpawnFailure(t *testing.T) {
	fake := &runnertest.Fake{Handler: func(context.Context, runner.Command) (*runner.Result, error) {
		return nil, errors.Join(runner.ErrSpawn, errors.New("pipe: too many open files"))
	}}
	n := notify.NewCurlNotifier(fake, "curl", "", nil)

	err := n.Notify(context.Background(), newRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrSpawn)
	assert.NotErrorIs(t, err, notify.ErrNotDelivered)
}
