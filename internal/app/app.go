// Package app sequences a twofzip run: obtain the code, run the archiver,
// deliver the code and, when delivery fails, remove the archive again.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atinyakov/twofzip/internal/archive"
	"github.com/atinyakov/twofzip/internal/authcode"
	"github.com/atinyakov/twofzip/internal/notify"
	"github.com/atinyakov/twofzip/internal/runner"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of a run.
type State int

const (
	StateParseArgs State = iota
	StateShowHelp
	StateRunArchive
	StateRunNotify
	StateRunUndo
	StateDone
)

var stateNames = map[State]string{
	StateParseArgs:  "ParseArgs",
	StateShowHelp:   "ShowHelp",
	StateRunArchive: "RunArchiveOp",
	StateRunNotify:  "RunNotifyOp",
	StateRunUndo:    "RunUndoOp",
	StateDone:       "Done",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CodeGenerator produces fresh authentication codes.
type CodeGenerator interface {
	Generate() authcode.Code
}

// Prompter asks the operator for input.
type Prompter interface {
	AuthCode() (authcode.Code, error)
	PhoneNumber() (string, error)
}

// Archiver runs the external archiver.
type Archiver interface {
	Run(ctx context.Context, req archive.Request) error
}

// Remover deletes a file created earlier in the run.
type Remover interface {
	Remove(ctx context.Context, filename string) error
}

// Deps are the collaborators of an App.
type Deps struct {
	Codes    CodeGenerator
	Prompter Prompter
	Archiver Archiver
	Notifier notify.Notifier
	Remover  Remover
	// Out receives operator-facing status lines and the usage text.
	Out    io.Writer
	Logger *zap.Logger
	// Name is the program name shown in the usage text.
	Name string
}

// App drives one invocation.
type App struct {
	deps  Deps
	newID func() string
}

// New returns an App. Out defaults to io.Discard, Logger to a no-op logger
// and Name to "twofzip".
func New(deps Deps) *App {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Name == "" {
		deps.Name = "twofzip"
	}
	return &App{deps: deps, newID: uuid.NewString}
}

// Report records what a run did.
type Report struct {
	States     []State
	Mode       archive.Mode
	Archive    string
	Archived   bool
	Notified   bool
	RolledBack bool
}

// Final returns the last state reached.
func (r Report) Final() State {
	if len(r.States) == 0 {
		return StateParseArgs
	}
	return r.States[len(r.States)-1]
}

func (r *Report) enter(s State) {
	r.States = append(r.States, s)
}

// IsFatal reports whether err means subprocesses cannot be spawned at all.
func IsFatal(err error) bool {
	return errors.Is(err, runner.ErrSpawn)
}

// Run executes the invocation described by args (without the program
// name). Operation failures are reported on Out and in the Report; the
// returned error is non-nil only when IsFatal holds for it.
func (a *App) Run(ctx context.Context, args []string) (Report, error) {
	var rep Report
	rep.enter(StateParseArgs)

	inv, err := ParseArgs(args)
	if err != nil {
		a.deps.Logger.Debug("showing usage", zap.Error(err))
		rep.enter(StateShowHelp)
		Usage(a.deps.Out, a.deps.Name)
		return rep, nil
	}
	rep.Mode, rep.Archive = inv.Mode, inv.Archive

	log := a.deps.Logger.With(
		zap.String("run_id", a.newID()),
		zap.Stringer("mode", inv.Mode),
		zap.String("archive", inv.Archive),
	)
	if authcode.Ambiguous(inv.Password) {
		log.Warn("password contains the code delimiter; the compound password cannot be split unambiguously",
			zap.String("delimiter", authcode.Delimiter))
	}

	code, err := a.code(inv.Mode)
	if err != nil {
		log.Error("no authentication code", zap.Error(err))
		fmt.Fprintln(a.deps.Out, "Error: no authentication code entered")
		rep.enter(StateDone)
		return rep, nil
	}

	rep.enter(StateRunArchive)
	req := archive.NewRequest(inv.Mode, authcode.Compound(code, inv.Password), inv.Flags, inv.Archive, inv.Files)
	if err := a.deps.Archiver.Run(ctx, req); err != nil {
		if IsFatal(err) {
			return rep, err
		}
		log.Error("archive operation failed", zap.Error(err))
		fmt.Fprintln(a.deps.Out, "Error: archive operation failed")
		rep.enter(StateDone)
		return rep, nil
	}
	rep.Archived = true

	if inv.Mode != archive.ModeEncrypt {
		rep.enter(StateDone)
		return rep, nil
	}

	rep.enter(StateRunNotify)
	err = a.deliver(ctx, log, code, inv.Archive)
	if err == nil {
		rep.Notified = true
		rep.enter(StateDone)
		return rep, nil
	}
	if IsFatal(err) {
		return rep, err
	}
	log.Error("code delivery failed", zap.Error(err))

	rep.enter(StateRunUndo)
	// The archive must go even when the run was interrupted mid-delivery.
	if err := a.deps.Remover.Remove(context.WithoutCancel(ctx), inv.Archive); err != nil {
		if IsFatal(err) {
			return rep, err
		}
		log.Warn("could not remove undelivered archive", zap.Error(err))
	} else {
		rep.RolledBack = true
	}
	fmt.Fprintln(a.deps.Out, "Error sending authorization code to recipient")
	rep.enter(StateDone)
	return rep, nil
}

// code generates a fresh code for encryption and asks for the delivered
// one for decryption.
func (a *App) code(mode archive.Mode) (authcode.Code, error) {
	if mode == archive.ModeEncrypt {
		return a.deps.Codes.Generate(), nil
	}
	return a.deps.Prompter.AuthCode()
}

func (a *App) deliver(ctx context.Context, log *zap.Logger, code authcode.Code, filename string) error {
	number, err := a.deps.Prompter.PhoneNumber()
	if err != nil {
		return fmt.Errorf("%w: %w", notify.ErrNotDelivered, err)
	}
	req := notify.Request{
		ID:       a.newID(),
		Number:   number,
		Filename: filename,
		Code:     code.String(),
	}
	log.Info("delivering authentication code", zap.String("request_id", req.ID))
	return a.deps.Notifier.Notify(ctx, req)
}
