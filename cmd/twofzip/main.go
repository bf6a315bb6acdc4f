// Package main is the twofzip command: it creates zip archives whose
// password includes a one-time code texted to a recipient, and extracts
// them again once the operator enters that code.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/twofzip/internal/app"
	"github.com/atinyakov/twofzip/internal/archive"
	"github.com/atinyakov/twofzip/internal/authcode"
	"github.com/atinyakov/twofzip/internal/config"
	"github.com/atinyakov/twofzip/internal/logger"
	"github.com/atinyakov/twofzip/internal/notify"
	"github.com/atinyakov/twofzip/internal/prompt"
	"github.com/atinyakov/twofzip/internal/runner"
	"github.com/atinyakov/twofzip/internal/undo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitConfig      = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(stderr, "twofzip:", err)
		return exitConfig
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(stderr, "twofzip:", err)
		return exitConfig
	}
	defer func() { _ = log.Log.Sync() }()

	r := runner.New(
		runner.WithTimeout(options.Timeout.Std()),
		runner.WithLogger(log.Log),
	)
	root := newRootCmd(func(in io.Reader, out io.Writer) *app.App {
		return newApp(options, r, log.Log, in, out)
	})
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return exitCode(ctx, root.ExecuteContext(ctx), log.Log)
}

// newRootCmd returns the twofzip command. Flag parsing is disabled: the
// command line starts with -e or -d and carries archiver flags that must
// reach the archiver untouched.
func newRootCmd(build func(in io.Reader, out io.Writer) *app.App) *cobra.Command {
	return &cobra.Command{
		Use:                "twofzip -e|-d password [zip_parameters] archive [files...]",
		Short:              "Password-protect zip archives with a texted two-factor code",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := build(cmd.InOrStdin(), cmd.OutOrStdout())
			_, err := a.Run(cmd.Context(), args)
			return err
		},
	}
}

// newApp wires the operations over r. The curl notifier shares r; the
// http notifier talks to the gateway directly.
func newApp(options *config.Options, r runner.Runner, zapLogger *zap.Logger, in io.Reader, out io.Writer) *app.App {
	var notifier notify.Notifier
	switch options.Notifier {
	case config.NotifierHTTP:
		notifier = notify.NewHTTPNotifier(nil, options.GatewayURL, zapLogger)
	default:
		notifier = notify.NewCurlNotifier(r, options.Curl, options.GatewayURL, zapLogger)
	}

	// unzip may ask before overwriting; it reads the same stream as the prompts.
	input := prompt.NewInput(in)

	return app.New(app.Deps{
		Codes:    authcode.NewTimeSeededGenerator(),
		Prompter: prompt.New(input, out),
		Archiver: archive.NewOperation(r, archive.Tools{Create: options.Zip, Extract: options.Unzip}, input, out, zapLogger),
		Notifier: notifier,
		Remover:  undo.NewOperation(r, options.Remove, out, zapLogger),
		Out:      out,
		Logger:   zapLogger,
		Name:     "twofzip",
	})
}

// exitCode maps the outcome of a run to the process status. Operation
// failures were already reported and exit 0.
func exitCode(ctx context.Context, err error, zapLogger *zap.Logger) int {
	switch {
	case err != nil:
		zapLogger.Error("cannot run external command", zap.Error(err))
		return exitFatal
	case ctx.Err() != nil:
		return exitInterrupted
	default:
		return exitOK
	}
}
