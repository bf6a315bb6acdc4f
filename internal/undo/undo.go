// Package undo removes an archive whose authentication code could not be
// delivered, so no file is left behind that nobody can open.
package undo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atinyakov/twofzip/internal/runner"
	"go.uber.org/zap"
)

// ErrNotRemoved is returned when the delete command did not succeed.
var ErrNotRemoved = errors.New("archive not removed")

// Operation deletes files with an external command.
//
// The delete is unconditional and unconfirmed; callers only hand it files
// created earlier in the same run.
type Operation struct {
	runner  runner.Runner
	tool    string
	console io.Writer
	logger  *zap.Logger
}

// NewOperation returns an Operation running tool (normally "rm"). The
// tool's own diagnostics are forwarded to console.
func NewOperation(r runner.Runner, tool string, console io.Writer, logger *zap.Logger) *Operation {
	if tool == "" {
		tool = "rm"
	}
	if console == nil {
		console = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Operation{runner: r, tool: tool, console: console, logger: logger}
}

// Remove deletes filename. A non-zero exit yields an error wrapping
// ErrNotRemoved; a spawn failure is returned as the runner reported it.
func (o *Operation) Remove(ctx context.Context, filename string) error {
	res, err := o.runner.Run(ctx, runner.Command{
		Program: o.tool,
		Args:    []string{filename},
		Output:  o.console,
	})
	if err != nil {
		return fmt.Errorf("run %s: %w", o.tool, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: %s %s: %s", ErrNotRemoved, o.tool, filename, res)
	}
	o.logger.Info("removed undelivered archive", zap.String("archive", filename))
	return nil
}
