// Package archive drives the external zip/unzip tools that create and open
// password-protected archives.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/atinyakov/twofzip/internal/runner"
	"go.uber.org/zap"
)

// ErrFailed is returned when the archiver exits unsuccessfully.
var ErrFailed = errors.New("archive operation failed")

// Mode selects between creating and extracting an archive.
type Mode int

const (
	// ModeEncrypt creates a new archive protected by a fresh code.
	ModeEncrypt Mode = iota + 1
	// ModeDecrypt extracts an archive using a code entered by the operator.
	ModeDecrypt
)

// ParseMode maps a command keyword to a Mode.
// It accepts "-e"/"encrypt" and "-d"/"decrypt".
func ParseMode(keyword string) (Mode, bool) {
	switch keyword {
	case "-e", "encrypt":
		return ModeEncrypt, true
	case "-d", "decrypt":
		return ModeDecrypt, true
	default:
		return 0, false
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeEncrypt:
		return "encrypt"
	case ModeDecrypt:
		return "decrypt"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Request is one archiver invocation. Build it with NewRequest; its
// accessors return copies so a Request cannot change after construction.
type Request struct {
	mode     Mode
	password string
	flags    []string
	archive  string
	files    []string
}

// NewRequest copies its arguments into a Request. password is the compound
// password; files lists members to add (encrypt) or to extract (decrypt,
// usually empty).
func NewRequest(mode Mode, password string, flags []string, archive string, files []string) Request {
	return Request{
		mode:     mode,
		password: password,
		flags:    slices.Clone(flags),
		archive:  archive,
		files:    slices.Clone(files),
	}
}

// Mode returns the request mode.
func (r Request) Mode() Mode { return r.mode }

// Archive returns the archive filename.
func (r Request) Archive() string { return r.archive }

// Flags returns a copy of the pass-through archiver flags.
func (r Request) Flags() []string { return slices.Clone(r.flags) }

// Files returns a copy of the member list.
func (r Request) Files() []string { return slices.Clone(r.files) }

// Args builds the archiver argument vector:
//
//	-P <password> [flags...] <archive> [files...]
func (r Request) Args() []string {
	args := make([]string, 0, 3+len(r.flags)+len(r.files))
	args = append(args, "-P", r.password)
	args = append(args, r.flags...)
	args = append(args, r.archive)
	return append(args, r.files...)
}

// Tools names the executables used for each mode.
type Tools struct {
	Create  string
	Extract string
}

// DefaultTools uses Info-ZIP's zip and unzip.
func DefaultTools() Tools {
	return Tools{Create: "zip", Extract: "unzip"}
}

// Input supplies the archiver's standard input at the moment it starts.
type Input interface {
	Reader() io.Reader
}

// Operation runs archive Requests through a runner.Runner.
type Operation struct {
	runner  runner.Runner
	tools   Tools
	input   Input
	console io.Writer
	logger  *zap.Logger
}

// NewOperation returns an Operation streaming archiver output to console.
// The archiver reads the operator's answers (unzip asks before overwriting)
// from input; a nil input gives it no stdin. A nil console discards the
// output; a nil logger disables logging.
func NewOperation(r runner.Runner, tools Tools, input Input, console io.Writer, logger *zap.Logger) *Operation {
	if console == nil {
		console = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Operation{runner: r, tools: tools, input: input, console: console, logger: logger}
}

// Tool returns the executable used for mode.
func (o *Operation) Tool(mode Mode) string {
	if mode == ModeDecrypt {
		return o.tools.Extract
	}
	return o.tools.Create
}

// Run invokes the archiver for req. It returns nil when the tool exits with
// status 0, an error wrapping ErrFailed for any other termination, and the
// runner's error when the tool could not be spawned.
func (o *Operation) Run(ctx context.Context, req Request) error {
	tool := o.Tool(req.Mode())
	cmd := runner.Command{
		Program: tool,
		Args:    req.Args(),
		Output:  o.console,
	}
	if o.input != nil {
		cmd.Stdin = o.input.Reader()
	}
	res, err := o.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("run %s: %w", tool, err)
	}

	o.logger.Info("archiver finished",
		zap.Stringer("mode", req.Mode()),
		zap.String("archive", req.Archive()),
		zap.String("result", res.String()),
	)
	if !res.Success() {
		if res.Err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrFailed, tool, res, res.Err)
		}
		return fmt.Errorf("%w: %s %s", ErrFailed, tool, res)
	}
	return nil
}
